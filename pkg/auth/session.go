// Package auth maps the tokens issued by the external Google sign-in flow to a
// session. The OAuth handshake itself happens elsewhere; this package only
// reads its outcome.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession is returned when the token carries neither an access nor a refresh token.
var ErrNoSession = errors.New("no session")

// ErrEmailMissing is returned when the token does not identify a user.
var ErrEmailMissing = errors.New("session token has no email")

// Claims is the session token payload written by the sign-in flow.
type Claims struct {
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Scope        string `json:"scope,omitempty"`

	jwt.RegisteredClaims
}

// Session is the signed-in user as seen by the builder.
type Session struct {
	Email       string `json:"email"`
	AccessToken string `json:"-"`
	Scope       string `json:"scope,omitempty"`
	// NeedsRefresh is set when the access token is gone but a refresh token remains.
	// The client should refresh instead of signing the user out.
	NeedsRefresh bool `json:"needsRefresh"`
}

// ResolveSession turns token claims into a session.
func ResolveSession(claims *Claims) (*Session, error) {
	if claims == nil {
		return nil, ErrNoSession
	}

	if claims.AccessToken == "" && claims.RefreshToken == "" {
		return nil, ErrNoSession
	}

	if claims.Email == "" {
		return nil, ErrEmailMissing
	}

	return &Session{
		Email:        claims.Email,
		AccessToken:  claims.AccessToken,
		Scope:        claims.Scope,
		NeedsRefresh: claims.AccessToken == "",
	}, nil
}

// IssueToken signs claims with HS256. The token expires after ttl when ttl is positive.
func IssueToken(secret []byte, claims Claims, ttl time.Duration, now time.Time) (string, error) {
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, nil
}

// ParseToken verifies an HS256 session token and returns its claims.
func ParseToken(secret []byte, token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	return claims, nil
}
