package product

import (
	"github.com/labstack/echo/v4"

	"modular.GO/core/auth"
)

type Permission string

const (
	CanView   Permission = "can_view"
	CanAdd    Permission = "can_add"
	CanChange Permission = "can_change"
	CanDelete Permission = "can_delete"
)

// Roles maps a caller role to the product operations it may perform.
var Roles = map[string]map[Permission]bool{
	"manager": {CanView: true, CanAdd: true, CanChange: true, CanDelete: true},
	"user":    {CanView: true, CanAdd: true, CanChange: true, CanDelete: false},
	"public":  {CanView: true, CanAdd: false, CanChange: false, CanDelete: false},
}

// HasPermission checks the caller against Roles. Authenticated callers with
// an unknown role get the public grants; anonymous callers get nothing.
func HasPermission(c echo.Context, p Permission) bool {
	if auth.IsSuperuser(c) {
		return true
	}
	if grants, ok := Roles[auth.RoleName(c)]; ok {
		return grants[p]
	}
	if c.Get(auth.KeyAuthType) != nil {
		return Roles["public"][p]
	}
	return false
}

func roleLabel(c echo.Context) string {
	switch {
	case auth.IsSuperuser(c):
		return "superuser"
	case auth.RoleName(c) != "":
		return auth.RoleName(c)
	case c.Get(auth.KeyAuthType) != nil:
		return "public"
	}
	return "anonymous"
}
