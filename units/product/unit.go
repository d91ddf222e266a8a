// Package product is the sample product catalog module. Importing it
// registers the unit; it is mounted under /products once installed.
package product

import (
	"embed"
	"io/fs"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	productEntity "modular.GO/model/entity/product"
	"modular.GO/module"
)

const (
	Identifier = "product"
	Version    = "1.0.0"
	URLPrefix  = "products"
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	module.Register(Unit{})
}

type Unit struct{}

func (Unit) Name() string { return Identifier }

func (Unit) ModuleInfo() map[string]interface{} {
	return map[string]interface{}{
		"identifier": Identifier,
		"name":       "Product Management",
		"version":    Version,
		"url_prefix": URLPrefix,
	}
}

func (Unit) RegisterRoutes(g *echo.Group, db *gorm.DB) {
	RegisterProductRoutes(g, db)
}

func (Unit) Models() []interface{} {
	return []interface{}{&productEntity.Product{}}
}

func (Unit) Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
