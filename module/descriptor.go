package module

import (
	"strings"

	"emperror.dev/errors"
	"github.com/mitchellh/mapstructure"
)

// Descriptor is what a module claims to be. Read fresh from the unit each time.
type Descriptor struct {
	Identifier string `mapstructure:"identifier" json:"identifier"`
	Name       string `mapstructure:"name" json:"name"`
	Version    string `mapstructure:"version" json:"version"`
	URLPrefix  string `mapstructure:"url_prefix" json:"url_prefix,omitempty"`

	// Routes is nil when the unit has no route table.
	Routes RouteFunc `mapstructure:"-" json:"-"`
}

// HasRoutes reports whether the descriptor can be mounted.
func (d Descriptor) HasRoutes() bool {
	return d.URLPrefix != "" && d.Routes != nil
}

// DecodeDescriptor decodes a ModuleInfo map. Numeric versions ("version": 1.2)
// are accepted and kept as their string form.
func DecodeDescriptor(info map[string]interface{}) (Descriptor, error) {
	var d Descriptor
	if info == nil {
		return d, errors.New("module info is empty")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return d, err
	}
	if err := dec.Decode(info); err != nil {
		return d, errors.Wrap(err, "decode module info")
	}
	d.Identifier = strings.TrimSpace(d.Identifier)
	d.Name = strings.TrimSpace(d.Name)
	d.Version = strings.TrimSpace(d.Version)
	d.URLPrefix = strings.Trim(strings.TrimSpace(d.URLPrefix), "/")
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// Validate checks the required fields and the identifier format.
func (d Descriptor) Validate() error {
	if d.Identifier == "" || d.Name == "" || d.Version == "" {
		return errors.New("identifier, name and version are required")
	}
	if !ValidIdentifier(d.Identifier) {
		return errors.Errorf("invalid identifier %q", d.Identifier)
	}
	return nil
}

// ValidIdentifier accepts URL/path-safe slugs: ASCII letters, digits, '-' and '_'.
func ValidIdentifier(id string) bool {
	if id == "" || len(id) > 100 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
