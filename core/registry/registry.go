package registry

import (
	"sync"

	"github.com/labstack/echo/v4"
)

// Registry is a keyed store of process-wide values. A key can be locked once
// its consumers have been applied; registries check IsLocked before writing.
type Registry struct {
	mu     sync.RWMutex
	values map[string]interface{}
	locked map[string]bool
}

// GlobalRegistry holds the extension registries (cmd, cron, api, graphql, units).
var GlobalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		values: make(map[string]interface{}),
		locked: make(map[string]bool),
	}
}

// GetGlobal returns the value stored under key.
func (r *Registry) GetGlobal(key string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// SetGlobal stores value under key. Callers check IsLocked first.
func (r *Registry) SetGlobal(key string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Lock marks key immutable.
func (r *Registry) Lock(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked[key] = true
}

// IsLocked reports whether key was locked.
func (r *Registry) IsLocked(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked[key]
}

// UnlockForTesting re-opens key so tests can register and unregister entries.
func (r *Registry) UnlockForTesting(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locked, key)
}

// --- RequestRegistry: per-request values kept on the echo context ---

// SetRequest stores value on the request context.
func SetRequest(c echo.Context, key string, value interface{}) {
	c.Set(key, value)
}

// GetRequest returns a value stored with SetRequest.
func GetRequest(c echo.Context, key string) (interface{}, bool) {
	v := c.Get(key)
	return v, v != nil
}
