package modules

import (
	"os"
	"path/filepath"
)

// Environment tells the lifecycle controller whether the durable enablement
// list may be rewritten. When it may not, the database flags alone drive the
// next boot's route composition.
type Environment interface {
	CanMutateDurableList() bool
	Name() string
}

// NewEnvironment picks the adapter for the deployment.
func NewEnvironment(settingsPath string, readOnly bool) Environment {
	if readOnly {
		return ReadOnlyEnvironment{}
	}
	return FileEnvironment{Path: settingsPath}
}

// FileEnvironment allows mutation when the process can write its settings artifact.
type FileEnvironment struct {
	Path string
}

func (FileEnvironment) Name() string { return "file" }

func (e FileEnvironment) CanMutateDurableList() bool {
	if e.Path == "" {
		return false
	}
	f, err := os.OpenFile(e.Path, os.O_WRONLY, 0)
	if err == nil {
		f.Close()
		return true
	}
	if !os.IsNotExist(err) {
		return false
	}
	// The file does not exist yet: writable if its directory accepts new files.
	probe, err := os.CreateTemp(filepath.Dir(e.Path), ".modular-probe-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return true
}

// ReadOnlyEnvironment is used on immutable deployment targets.
type ReadOnlyEnvironment struct{}

func (ReadOnlyEnvironment) Name() string { return "read-only" }

func (ReadOnlyEnvironment) CanMutateDurableList() bool { return false }
