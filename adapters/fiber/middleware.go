package fiber

import (
	"github.com/gofiber/fiber/v3"

	"github.com/cygnusgroup/backoffice/core"
)

// BuildProtectedMiddleware creates a Fiber middleware that resolves the
// session token and stores the session in Locals("session").
func (a *Adapter) BuildProtectedMiddleware(handler core.AuthHandler) any {
	return a.protected(handler)
}

func (a *Adapter) protected(handler core.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := extractToken(c, a.config.CookieName)
		if token == "" {
			return handleAuthError(c, core.ErrMissingSession)
		}

		session, err := handler.GetSession(c.Context(), token)
		if err != nil {
			return handleAuthError(c, err)
		}

		c.Locals("session", session)
		return c.Next()
	}
}

// SessionFrom returns the session stored by the protected middleware.
func SessionFrom(c fiber.Ctx) (*core.Session, bool) {
	s, ok := c.Locals("session").(*core.Session)
	return s, ok
}
