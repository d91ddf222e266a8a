package auth

import (
	"crypto/subtle"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"modular.GO/config"
)

// Context keys set by the middleware.
const (
	KeyAuthType  = "auth_type"
	KeyRoleName  = "role_name"
	KeySuperuser = "is_superuser"
)

// RoleHeader lets an authenticated caller act under a narrower role.
const RoleHeader = "X-Role"

// Middleware returns the auth middleware based on AUTH_TYPE env var.
func Middleware() echo.MiddlewareFunc {
	skipper := buildSkipper()
	switch os.Getenv("AUTH_TYPE") {
	case "key":
		return keyAuth(skipper)
	case "none":
		return noAuth()
	default:
		return basicAuth(skipper)
	}
}

func buildSkipper() middleware.Skipper {
	skipPaths := config.GetAuthSkipperPaths()
	return func(c echo.Context) bool {
		path := c.Path()
		for _, skip := range skipPaths {
			if path == skip {
				return true
			}
		}
		return false
	}
}

func basicAuth(skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Validator: func(username, password string, c echo.Context) (bool, error) {
			user, pass := os.Getenv("API_USER"), os.Getenv("API_PASS")
			ok := user != "" && pass != "" && equal(username, user) && equal(password, pass)
			if ok {
				authenticated(c, "basic")
			}
			return ok, nil
		},
		Skipper: skipper,
	})
}

func keyAuth(skipper middleware.Skipper) echo.MiddlewareFunc {
	apiKey := os.Getenv("API_KEY")
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, c echo.Context) (bool, error) {
			ok := apiKey != "" && equal(key, apiKey)
			if ok {
				authenticated(c, "key")
			}
			return ok, nil
		},
		Skipper: skipper,
	})
}

// noAuth trusts the role header; for local development only.
func noAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authenticated(c, "none")
			return next(c)
		}
	}
}

// authenticated records the caller's role. Without a role header the caller
// is the operator and bypasses role checks.
func authenticated(c echo.Context, authType string) {
	c.Set(KeyAuthType, authType)
	role := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(RoleHeader)))
	if role == "" {
		c.Set(KeySuperuser, true)
		return
	}
	c.Set(KeyRoleName, role)
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RoleName returns the role set by the middleware, or "" for anonymous callers.
func RoleName(c echo.Context) string {
	if v, ok := c.Get(KeyRoleName).(string); ok {
		return v
	}
	return ""
}

// IsSuperuser reports whether the caller authenticated without narrowing its role.
func IsSuperuser(c echo.Context) bool {
	v, _ := c.Get(KeySuperuser).(bool)
	return v
}
