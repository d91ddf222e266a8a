// Package modules exposes module administration over HTTP: HTML pages under
// /modules and a JSON API under /api/modules.
package modules

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"modular.GO/api"
	"modular.GO/core/auth"
	"modular.GO/core/flash"
	moduleService "modular.GO/service/modules"
)

func init() {
	api.RegisterModule(RegisterModuleAPIRoutes)
	api.RegisterRoute(RegisterModuleAdminRoutes)
}

// RegisterModuleAdminRoutes mounts the confirm-then-POST admin pages.
func RegisterModuleAdminRoutes(e *echo.Echo, db *gorm.DB) {
	g := e.Group("/modules", auth.Middleware(), flash.Middleware())
	MountAdmin(g, NewHandler(moduleService.New(db, moduleService.Options{}), flash.NewStore()))
}

// RegisterModuleAPIRoutes mounts the JSON API on the authenticated /api group.
func RegisterModuleAPIRoutes(apiGroup *echo.Group, db *gorm.DB) {
	MountAPI(apiGroup.Group("/modules"), NewHandler(moduleService.New(db, moduleService.Options{}), flash.NewStore()))
}

func MountAdmin(g *echo.Group, h *Handler) {
	g.GET("", h.List)
	g.GET("/", h.List)
	g.GET("/:id/install", h.Confirm(actionInstall))
	g.POST("/:id/install", h.Install)
	g.GET("/:id/upgrade", h.Confirm(actionUpgrade))
	g.POST("/:id/upgrade", h.Upgrade)
	g.GET("/:id/uninstall", h.Confirm(actionUninstall))
	g.POST("/:id/uninstall", h.Uninstall)
}

func MountAPI(g *echo.Group, h *Handler) {
	g.GET("", h.ListJSON)
	g.GET("/:id", h.GetJSON)
	g.POST("/discover", h.DiscoverJSON)
	g.POST("/:id/install", h.LifecycleJSON(actionInstall))
	g.POST("/:id/upgrade", h.LifecycleJSON(actionUpgrade))
	g.POST("/:id/uninstall", h.LifecycleJSON(actionUninstall))
}
