package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"role": RoleName(c), "superuser": IsSuperuser(c)})
}

func TestBasicAuth_UnsetCredentialsRejectEveryone(t *testing.T) {
	t.Setenv("AUTH_TYPE", "")
	t.Setenv("API_USER", "")
	t.Setenv("API_PASS", "")

	e := echo.New()
	g := e.Group("", Middleware())
	g.GET("/me", whoami)

	for _, creds := range [][2]string{{"", ""}, {"admin", ""}, {"", "secret"}} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.SetBasicAuth(creds[0], creds[1])
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("credentials %q: status = %d, want 401", creds, rec.Code)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	t.Setenv("AUTH_TYPE", "")
	t.Setenv("API_USER", "admin")
	t.Setenv("API_PASS", "secret")

	e := echo.New()
	g := e.Group("", Middleware())
	g.GET("/me", whoami)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "{\"role\":\"\",\"superuser\":true}\n" {
		t.Fatalf("operator = %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("admin", "secret")
	req.Header.Set(RoleHeader, " User ")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != "{\"role\":\"user\",\"superuser\":false}\n" {
		t.Errorf("role header = %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
}

func TestKeyAuth(t *testing.T) {
	t.Setenv("AUTH_TYPE", "key")
	t.Setenv("API_KEY", "k-123")

	e := echo.New()
	g := e.Group("", Middleware())
	g.GET("/me", whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer k-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key status = %d, want 401", rec.Code)
	}
}

func TestSkipPaths(t *testing.T) {
	t.Setenv("AUTH_TYPE", "")
	t.Setenv("AUTH_SKIP_PATHS", "/health")

	e := echo.New()
	g := e.Group("", Middleware())
	g.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
