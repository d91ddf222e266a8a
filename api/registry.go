package api

import (
	"sync"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"modular.GO/core/registry"
	moduleRepo "modular.GO/model/repository/module"
	"modular.GO/module"
)

var mu sync.Mutex

// ErrAlreadyComposed is returned when module routes were already mounted in this process.
var ErrAlreadyComposed = errors.New("api/registry: module routes already composed")

// --- /api group modules (authenticated, DB-dependent) ---

// ModuleFunc registers routes on the /api group with DB access.
type ModuleFunc func(g *echo.Group, db *gorm.DB)

func getModules() []ModuleFunc {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryAPI); ok && v != nil {
		return v.([]ModuleFunc)
	}
	return nil
}

// RegisterModule registers an API module. Call from init() in API packages.
func RegisterModule(fn ModuleFunc) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryAPI) {
		panic("api/registry: API modules locked (register only during init)")
	}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryAPI, append(getModules(), fn))
}

// ApplyModules calls all registered /api modules. Locks the registry.
func ApplyModules(g *echo.Group, db *gorm.DB) {
	for _, fn := range getModules() {
		fn(g, db)
	}
	registry.GlobalRegistry.Lock(registry.KeyRegistryAPI)
}

// --- Root-level routes (module admin pages, health, etc.) ---

// RouteFunc registers routes on the root Echo instance.
type RouteFunc func(e *echo.Echo, db *gorm.DB)

func getRoutes() []RouteFunc {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryRoutes); ok && v != nil {
		return v.([]RouteFunc)
	}
	return nil
}

// RegisterRoute registers a root-level route module. Call from init().
func RegisterRoute(fn RouteFunc) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryRoutes) {
		panic("api/registry: routes locked (register only during init)")
	}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryRoutes, append(getRoutes(), fn))
}

// RegisterGET is shorthand for registering a simple GET route on root.
func RegisterGET(path string, handler echo.HandlerFunc) {
	RegisterRoute(func(e *echo.Echo, _ *gorm.DB) {
		e.GET(path, handler)
	})
}

// ApplyRoutes calls all registered root-level routes. Locks the registry.
func ApplyRoutes(e *echo.Echo, db *gorm.DB) {
	for _, fn := range getRoutes() {
		fn(e, db)
	}
	registry.GlobalRegistry.Lock(registry.KeyRegistryRoutes)
}

// --- Dynamic module routes ---

// ComposeActiveModules mounts the routes of every installed and active module.
// A store that cannot be read composes nothing rather than failing the boot.
func ComposeActiveModules(e *echo.Echo, db *gorm.DB, loader module.Loader) ([]string, error) {
	ids, err := moduleRepo.NewModuleRepository(db).ActiveIdentifiers()
	if err != nil {
		log.WithError(err).Error("could not read active modules, no module routes mounted")
		ids = nil
	}
	return ComposeModules(e, db, loader, ids)
}

// ComposeModules mounts each module's route table under "/<url_prefix>".
// A module whose descriptor or routes fail is logged and skipped. Runs once
// per process; later lifecycle changes take effect after a restart.
func ComposeModules(e *echo.Echo, db *gorm.DB, loader module.Loader, active []string) ([]string, error) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCompose) {
		return nil, ErrAlreadyComposed
	}
	defer registry.GlobalRegistry.Lock(registry.KeyRegistryCompose)

	var mounted []string
	for _, id := range active {
		l := log.WithField("module", id)
		desc, err := loader.Descriptor(id)
		if err != nil {
			l.WithError(err).Warn("module routes skipped")
			continue
		}
		if !desc.HasRoutes() {
			l.Debug("module has no routes to mount")
			continue
		}
		if err := mount(e, db, desc); err != nil {
			l.WithError(err).Error("module routes failed to mount")
			continue
		}
		l.WithField("prefix", "/"+desc.URLPrefix).Info("module routes mounted")
		mounted = append(mounted, id)
	}
	return mounted, nil
}

// mount builds the module's routes on a private echo instance and only then
// forwards the prefix to it, so a route table that fails halfway leaves
// nothing behind on e.
func mount(e *echo.Echo, db *gorm.DB, desc module.Descriptor) error {
	sub := echo.New()
	sub.Renderer = e.Renderer
	sub.Binder = e.Binder
	sub.Validator = e.Validator
	sub.HTTPErrorHandler = e.HTTPErrorHandler
	sub.Logger = e.Logger
	if err := buildRoutes(sub, db, desc); err != nil {
		return err
	}
	prefix := "/" + desc.URLPrefix
	forward := func(c echo.Context) error {
		sub.ServeHTTP(c.Response(), c.Request())
		return nil
	}
	e.Any(prefix, forward)
	e.Any(prefix+"/*", forward)
	return nil
}

func buildRoutes(sub *echo.Echo, db *gorm.DB, desc module.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("route table panicked: %v", r)
		}
	}()
	desc.Routes(sub.Group("/"+desc.URLPrefix), db)
	return nil
}
