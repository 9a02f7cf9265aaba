package fiber

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/cygnusgroup/backoffice/core"
	"github.com/cygnusgroup/backoffice/services"
)

func (a *Adapter) login(handler core.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input core.LoginInput
		if err := c.Bind().Body(&input); err != nil {
			return c.Status(http.StatusBadRequest).JSON(core.LoginResult{
				Field:   services.FieldForm,
				Message: "invalid request body",
			})
		}

		result, err := handler.Login(c.Context(), input)
		if err != nil {
			return c.Status(mapErrorToStatus(err)).JSON(result)
		}

		a.setSessionCookie(c, result.Token)
		return c.Status(http.StatusOK).JSON(result)
	}
}

func (a *Adapter) logout(handler core.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := handler.Logout(c.Context(), extractToken(c, a.config.CookieName)); err != nil {
			return handleAuthError(c, err)
		}

		c.ClearCookie(a.config.CookieName)
		return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "redirect": "/"})
	}
}

func (a *Adapter) session(c fiber.Ctx) error {
	session, ok := SessionFrom(c)
	if !ok {
		return handleAuthError(c, core.ErrMissingSession)
	}
	return c.Status(http.StatusOK).JSON(session)
}

func (a *Adapter) health(c fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (a *Adapter) setSessionCookie(c fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.config.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.maxAge.Seconds()),
		Secure:   a.config.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// extractToken checks the Authorization header (Bearer token) first, then
// falls back to the session cookie.
func extractToken(c fiber.Ctx, cookieName string) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
		return token
	}
	return c.Cookies(cookieName)
}

func handleAuthError(c fiber.Ctx, err error) error {
	return c.Status(mapErrorToStatus(err)).JSON(fiber.Map{
		"success": false,
		"message": publicMessage(err),
	})
}

// publicMessage hides store and integrity details from clients.
func publicMessage(err error) string {
	switch mapErrorToStatus(err) {
	case http.StatusInternalServerError:
		return services.MsgAccountError
	case http.StatusServiceUnavailable:
		return services.MsgProviderDown
	}
	return err.Error()
}

func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrPasswordTooShort),
		errors.Is(err, core.ErrPasswordTooLong),
		errors.Is(err, core.ErrInvalidEmail):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrMissingSession),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrSessionExpired):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrProviderUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
