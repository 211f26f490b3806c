package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/designsafe-ci/portal-data/internal/types"
	"github.com/gofiber/fiber/v2"
)

type fakeAuth struct {
	inits int
	users map[string]*services.SessionUser
}

func (f *fakeAuth) Init(string, string) error { f.inits++; return nil }
func (f *fakeAuth) Initialized() bool        { return f.inits > 0 }
func (f *fakeAuth) ValidateSession(cookie string, roles []string) (*services.SessionUser, error) {
	if u, ok := f.users[cookie]; ok {
		return u, nil
	}
	return nil, errors.New("session is not valid")
}

func newApp(auth Authenticator) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var ce *types.CustomError
			if errors.As(err, &ce) {
				return c.Status(ce.Code).SendString(ce.Type)
			}
			return c.Status(500).SendString(err.Error())
		},
	})
	app.Get("/me", AuthUser(auth), func(c *fiber.Ctx) error {
		return c.SendString(Username(c))
	})
	return app
}

func TestAuthUser(t *testing.T) {
	auth := &fakeAuth{users: map[string]*services.SessionUser{
		"good": {Email: "ds_user@designsafe-ci.org"},
		"nick": {Nickname: "nick", Email: "x@y"},
	}}
	app := newApp(auth)

	cases := []struct {
		cookie string
		status int
		body   string
	}{
		{"", fiber.StatusForbidden, "data.authorization.user"},
		{"bad", fiber.StatusForbidden, "data.authorization.user"},
		{"good", fiber.StatusOK, "ds_user"},
		{"nick", fiber.StatusOK, "nick"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/me", nil)
		if tc.cookie != "" {
			req.Header.Set("Cookie", sessionCookie+"="+tc.cookie)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != tc.status || string(body) != tc.body {
			t.Errorf("cookie %q: got %d %q, want %d %q", tc.cookie, resp.StatusCode, body, tc.status, tc.body)
		}
	}
	if auth.inits != 1 {
		t.Errorf("Init called %d times, want 1", auth.inits)
	}
}
