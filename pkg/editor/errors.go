package editor

import "errors"

var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrInvalidHandle  = errors.New("invalid source handle")
	ErrEmailRequired  = errors.New("gmail email is required")
	ErrSelfConnection = errors.New("a node cannot connect to itself")
)
