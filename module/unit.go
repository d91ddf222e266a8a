// Package module defines loadable units, the descriptors they expose and the
// error kinds shared by discovery, lifecycle and route composition.
package module

import (
	"io/fs"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"modular.GO/core/registry"
)

// Unit is a loadable unit compiled into the host. Most units are plain
// extensions; a unit becomes a module by also implementing Describer.
type Unit interface {
	// Name is the unit's import name; a module's identifier must match it.
	Name() string
}

// Describer is implemented by units that self-describe as modules. The map
// carries identifier, name, version and an optional url_prefix.
type Describer interface {
	ModuleInfo() map[string]interface{}
}

// RouteFunc mounts a module's route table on the group created for its prefix.
type RouteFunc func(g *echo.Group, db *gorm.DB)

// RouteProvider is implemented by modules that expose a route table.
type RouteProvider interface {
	RegisterRoutes(g *echo.Group, db *gorm.DB)
}

// ModelProvider is implemented by modules contributing gorm models to the schema.
type ModelProvider interface {
	Models() []interface{}
}

// MigrationProvider is implemented by modules shipping SQL migrations
// (golang-migrate layout: 0001_name.up.sql / 0001_name.down.sql).
type MigrationProvider interface {
	Migrations() fs.FS
}

var mu sync.Mutex

func getUnits() map[string]Unit {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryUnits); ok && v != nil {
		return v.(map[string]Unit)
	}
	return make(map[string]Unit)
}

// Register adds a unit. Call from init() in unit packages. Panics on duplicates or once locked.
func Register(u Unit) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryUnits) {
		panic("module/registry: locked (register only during init)")
	}
	units := getUnits()
	if _, ok := units[u.Name()]; ok {
		panic("module/registry: duplicate unit " + u.Name())
	}
	units[u.Name()] = u
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryUnits, units)
}

// Unregister removes a unit (for tests).
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryUnits)
	units := getUnits()
	delete(units, name)
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryUnits, units)
}

// Lookup returns the unit registered under name.
func Lookup(name string) (Unit, bool) {
	mu.Lock()
	defer mu.Unlock()
	u, ok := getUnits()[name]
	return u, ok
}

// Names returns all registered unit names, sorted.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	units := getUnits()
	names := make([]string, 0, len(units))
	for n := range units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lock freezes the unit registry. Called once the host has finished booting.
func Lock() {
	registry.GlobalRegistry.Lock(registry.KeyRegistryUnits)
}
