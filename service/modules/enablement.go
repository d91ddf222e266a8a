package modules

import (
	"bytes"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"gopkg.in/yaml.v3"
)

// DefaultEnablementKey is the settings key holding the enabled module list.
const DefaultEnablementKey = "enabled_modules"

// EnablementList is the durable list of enabled module identifiers.
type EnablementList interface {
	// Add appends id once; added is false when it was already present.
	Add(id string) (added bool, err error)
	// Remove drops every entry equal to id; removed is false when none existed.
	Remove(id string) (removed bool, err error)
	List() ([]string, error)
}

// SettingsFile keeps the list as a YAML sequence inside a settings document.
// The rest of the document, comments included, is preserved on rewrite.
// Entries are compared by scalar value, so "id", 'id' and id are the same entry.
type SettingsFile struct {
	path string
	key  string
}

// NewSettingsFile returns a list stored under key (DefaultEnablementKey when empty).
func NewSettingsFile(path, key string) *SettingsFile {
	if key == "" {
		key = DefaultEnablementKey
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &SettingsFile{path: path, key: key}
}

func (s *SettingsFile) Path() string { return s.path }

func (s *SettingsFile) List() ([]string, error) {
	defer s.lock()()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	seq, err := s.sequence(doc, false)
	if err != nil || seq == nil {
		return nil, err
	}
	out := make([]string, 0, len(seq.Content))
	for _, n := range seq.Content {
		if n.Kind == yaml.ScalarNode {
			out = append(out, n.Value)
		}
	}
	return out, nil
}

func (s *SettingsFile) Add(id string) (bool, error) {
	defer s.lock()()
	doc, err := s.read()
	if err != nil {
		return false, err
	}
	seq, err := s.sequence(doc, true)
	if err != nil {
		return false, err
	}
	for _, n := range seq.Content {
		if n.Kind == yaml.ScalarNode && n.Value == id {
			return false, nil
		}
	}
	seq.Content = append(seq.Content, &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: id,
		Style: yaml.DoubleQuotedStyle,
	})
	return true, s.write(doc)
}

func (s *SettingsFile) Remove(id string) (bool, error) {
	defer s.lock()()
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return false, nil
	}
	doc, err := s.read()
	if err != nil {
		return false, err
	}
	seq, err := s.sequence(doc, false)
	if err != nil || seq == nil {
		return false, err
	}
	kept := seq.Content[:0]
	removed := false
	for _, n := range seq.Content {
		if n.Kind == yaml.ScalarNode && n.Value == id {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	if !removed {
		return false, nil
	}
	seq.Content = kept
	return true, s.write(doc)
}

// lock serializes writers of the same file across instances.
func (s *SettingsFile) lock() func() {
	return fileLocks.Lock(s.path)
}

// read parses the settings document; a missing or empty file yields an empty mapping.
func (s *SettingsFile) read() (*yaml.Node, error) {
	b, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "settings: failed to read file")
	}
	var doc yaml.Node
	if len(bytes.TrimSpace(b)) > 0 {
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, errors.Wrap(err, "settings: failed to parse file")
		}
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("settings: top level must be a mapping")
	}
	return &doc, nil
}

// sequence finds the list node under s.key, creating it when create is set.
func (s *SettingsFile) sequence(doc *yaml.Node, create bool) (*yaml.Node, error) {
	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != s.key {
			continue
		}
		val := root.Content[i+1]
		switch {
		case val.Kind == yaml.SequenceNode:
			return val, nil
		case val.Kind == yaml.ScalarNode && (val.Tag == "!!null" || val.Value == ""):
			if !create {
				return nil, nil
			}
			*val = yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			return val, nil
		default:
			return nil, errors.Errorf("settings: %s must be a list", s.key)
		}
	}
	if !create {
		return nil, nil
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.key},
		seq,
	)
	return seq, nil
}

// write replaces the file atomically, keeping its permissions.
func (s *SettingsFile) write(doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "settings: failed to encode file")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "settings: failed to encode file")
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(s.path); err == nil {
		mode = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*")
	if err != nil {
		return errors.Wrap(err, "settings: failed to create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "settings: failed to write file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "settings: failed to write file")
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return errors.Wrap(err, "settings: failed to set file mode")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "settings: failed to replace file")
	}
	return nil
}
