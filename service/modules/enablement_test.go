package modules

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"emperror.dev/errors"

	"modular.GO/module"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSettingsFile_AddCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.yaml")
	s := NewSettingsFile(path, "")

	added, err := s.Add("billing")
	if err != nil || !added {
		t.Fatalf("add = %v, %v", added, err)
	}
	added, err = s.Add("billing")
	if err != nil || added {
		t.Fatalf("second add = %v, %v, want false", added, err)
	}
	b, _ := os.ReadFile(path)
	if got := strings.Count(string(b), "billing"); got != 1 {
		t.Errorf("file has %d entries:\n%s", got, b)
	}
}

func TestSettingsFile_QuoteStylesAreEquivalent(t *testing.T) {
	path := writeSettings(t, `# modules enabled at boot
app_name: shop
enabled_modules:
  - 'billing'
  - "catalog"
  - billing
  - reports
`)
	s := NewSettingsFile(path, "")

	for _, id := range []string{"billing", "catalog", "reports"} {
		added, err := s.Add(id)
		if err != nil || added {
			t.Errorf("add %s = %v, %v, want already present", id, added, err)
		}
	}

	removed, err := s.Remove("billing")
	if err != nil || !removed {
		t.Fatalf("remove = %v, %v", removed, err)
	}
	ids, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"catalog", "reports"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("list = %v, want %v", ids, want)
	}

	b, _ := os.ReadFile(path)
	for _, keep := range []string{"# modules enabled at boot", "app_name: shop"} {
		if !strings.Contains(string(b), keep) {
			t.Errorf("rewrite lost %q:\n%s", keep, b)
		}
	}
	fi, _ := os.Stat(path)
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestSettingsFile_RemoveMissing(t *testing.T) {
	s := NewSettingsFile(filepath.Join(t.TempDir(), "none.yaml"), "")
	removed, err := s.Remove("billing")
	if err != nil || removed {
		t.Fatalf("remove = %v, %v, want false nil", removed, err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Errorf("remove must not create the file")
	}

	path := writeSettings(t, "enabled_modules:\n  - catalog\n")
	removed, err = NewSettingsFile(path, "").Remove("billing")
	if err != nil || removed {
		t.Fatalf("remove absent = %v, %v", removed, err)
	}
}

func TestSettingsFile_EmptyKey(t *testing.T) {
	path := writeSettings(t, "enabled_modules:\n")
	s := NewSettingsFile(path, "")
	if _, err := s.Add("billing"); err != nil {
		t.Fatalf("add: %v", err)
	}
	ids, _ := s.List()
	if !reflect.DeepEqual(ids, []string{"billing"}) {
		t.Errorf("list = %v", ids)
	}
}

func TestSettingsFile_InvalidDocument(t *testing.T) {
	path := writeSettings(t, "enabled_modules: billing\n")
	if _, err := NewSettingsFile(path, "").Add("catalog"); err == nil {
		t.Error("expected error for scalar list")
	}
	path = writeSettings(t, "- a\n- b\n")
	if _, err := NewSettingsFile(path, "").List(); err == nil {
		t.Error("expected error for non-mapping document")
	}
}

func TestSettingsFile_ConcurrentAdds(t *testing.T) {
	s := NewSettingsFile(filepath.Join(t.TempDir(), "modules.yaml"), "")
	ids := []string{"a", "b", "c", "d", "e", "f"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(id); err != nil {
				t.Errorf("add %s: %v", id, err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.List()
	if len(got) != len(ids) {
		t.Errorf("list = %v, want %d entries", got, len(ids))
	}
}

func TestSettingsFile_WriteFailureSurfacesKind(t *testing.T) {
	f := newFixture(t, desc("billing", "1.0"))
	f.seed(t, entityRecord("billing"))
	// A directory in place of the file makes every read fail.
	dir := filepath.Join(t.TempDir(), "modules.yaml")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	f.ctrl.list = NewSettingsFile(dir, "")

	_, err := f.ctrl.Install(t.Context(), "billing")
	if !errors.Is(err, module.ErrDurableListWriteFailed) {
		t.Fatalf("err = %v, want durable list write failed", err)
	}
}
