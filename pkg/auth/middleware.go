package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// CookieName is the cookie the sign-in flow stores the session token in.
const CookieName = "auth-token"

const sessionKey = "flowbuilder.session"

// Middleware rejects requests without a valid session token and stores the
// resolved session in the request locals.
func Middleware(secret []byte) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return unauthorized(c, "authentication required")
		}

		claims, err := ParseToken(secret, token)
		if err != nil {
			return unauthorized(c, "invalid session token")
		}

		session, err := ResolveSession(claims)
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				return unauthorized(c, "session expired")
			}

			return unauthorized(c, err.Error())
		}

		c.Locals(sessionKey, session)

		return c.Next()
	}
}

// SessionFrom returns the session stored by Middleware.
func SessionFrom(c fiber.Ctx) (*Session, bool) {
	session, ok := c.Locals(sessionKey).(*Session)

	return session, ok && session != nil
}

func tokenFromRequest(c fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return c.Cookies(CookieName)
}

func unauthorized(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusUnauthorized).
		WithInstance(c.Path()).
		WithType("unauthorized").
		WithDetail(detail)

	return c.Status(fiber.StatusUnauthorized).JSON(problem)
}
