package module

import (
	"emperror.dev/errors"
)

// Loader answers questions about the loadable units available to this process.
type Loader interface {
	// Identifiers lists the units discovery should look at.
	Identifiers() []string
	// Importable reports whether a unit with this identifier is present.
	Importable(id string) bool
	// Descriptor reads the unit's descriptor; fails with ErrPackageUnavailable
	// or ErrDescriptorMissing.
	Descriptor(id string) (Descriptor, error)
}

// RegistryLoader serves units registered with Register. A non-empty allow list
// restricts it to the configured unit list.
type RegistryLoader struct {
	allow map[string]struct{}
	order []string
}

// NewRegistryLoader returns a loader over registered units; pass nil to expose all.
func NewRegistryLoader(allow []string) *RegistryLoader {
	l := &RegistryLoader{}
	if len(allow) > 0 {
		l.allow = make(map[string]struct{}, len(allow))
		for _, id := range allow {
			if _, dup := l.allow[id]; dup {
				continue
			}
			l.allow[id] = struct{}{}
			l.order = append(l.order, id)
		}
	}
	return l
}

func (l *RegistryLoader) Identifiers() []string {
	if l.allow == nil {
		return Names()
	}
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *RegistryLoader) Importable(id string) bool {
	_, ok := l.unit(id)
	return ok
}

func (l *RegistryLoader) Descriptor(id string) (Descriptor, error) {
	u, ok := l.unit(id)
	if !ok {
		return Descriptor{}, NewError(KindPackageUnavailable, id, nil)
	}
	return Describe(u)
}

func (l *RegistryLoader) unit(id string) (Unit, bool) {
	if l.allow != nil {
		if _, ok := l.allow[id]; !ok {
			return nil, false
		}
	}
	return Lookup(id)
}

// Describe reads a unit's descriptor and binds its route table.
func Describe(u Unit) (d Descriptor, err error) {
	id := u.Name()
	desc, ok := u.(Describer)
	if !ok {
		return d, NewError(KindDescriptorMissing, id, nil)
	}
	defer func() {
		if r := recover(); r != nil {
			err = NewError(KindDescriptorMissing, id, errors.Errorf("module info panicked: %v", r))
		}
	}()
	d, err = DecodeDescriptor(desc.ModuleInfo())
	if err != nil {
		return Descriptor{}, NewError(KindDescriptorMissing, id, err)
	}
	if d.Identifier != id {
		return Descriptor{}, NewError(KindDescriptorMissing, id,
			errors.Errorf("module info identifier %q does not match unit %q", d.Identifier, id))
	}
	if rp, ok := u.(RouteProvider); ok {
		d.Routes = rp.RegisterRoutes
	}
	return d, nil
}
