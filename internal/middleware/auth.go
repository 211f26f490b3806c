package middleware

import (
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/types"
	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "cookie_session"
	userKey       = "user"
	usernameKey   = "username"
)

// Authenticator validates sessions once initialized against the request host.
type Authenticator interface {
	services.SessionValidator
	Init(requestProtocol, requestHost string) error
	Initialized() bool
}

// AuthUser requires a session with the user role.
func AuthUser(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, auth, []string{"user"}, "data.authorization.user")
	}
}

// AuthAdmin requires a session with the admin role.
func AuthAdmin(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, auth, []string{"admin"}, "data.authorization.admin")
	}
}

func authorize(c *fiber.Ctx, auth Authenticator, roles []string, errorType string) error {
	session := c.Cookies(sessionCookie)
	if session == "" {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Authorizer cookie %q not found", sessionCookie),
			Type:    errorType,
		}
	}

	if !auth.Initialized() {
		if err := auth.Init(c.Protocol(), c.Hostname()); err != nil {
			return &types.CustomError{
				Code:    fiber.StatusServiceUnavailable,
				Message: err.Error(),
				Type:    errorType,
			}
		}
	}

	user, err := auth.ValidateSession(session, roles)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	SetUser(c, user)
	return c.Next()
}

// SetUser stores the session user on the request.
func SetUser(c *fiber.Ctx, user *services.SessionUser) {
	c.Locals(userKey, user)
	c.Locals(usernameKey, user.Username())
}

// Username is the authenticated portal username, or "" on public routes.
func Username(c *fiber.Ctx) string {
	name, _ := c.Locals(usernameKey).(string)
	return name
}
