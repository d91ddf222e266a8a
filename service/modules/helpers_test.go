package modules

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"gorm.io/gorm"

	"modular.GO/internal/testutil/sqlitetest"
	entity "modular.GO/model/entity"
	moduleRepo "modular.GO/model/repository/module"
	"modular.GO/module"
)

// fakeLoader serves descriptors from memory. Identifiers in broken are
// importable but have no usable descriptor.
type fakeLoader struct {
	mu     sync.Mutex
	descs  map[string]module.Descriptor
	broken map[string]bool
}

func newFakeLoader(descs ...module.Descriptor) *fakeLoader {
	l := &fakeLoader{descs: map[string]module.Descriptor{}, broken: map[string]bool{}}
	for _, d := range descs {
		l.descs[d.Identifier] = d
	}
	return l
}

func (l *fakeLoader) Identifiers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for id := range l.descs {
		ids = append(ids, id)
	}
	for id := range l.broken {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (l *fakeLoader) Importable(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.descs[id]
	return ok || l.broken[id]
}

func (l *fakeLoader) Descriptor(id string) (module.Descriptor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken[id] {
		return module.Descriptor{}, module.NewError(module.KindDescriptorMissing, id, nil)
	}
	d, ok := l.descs[id]
	if !ok {
		return module.Descriptor{}, module.NewError(module.KindPackageUnavailable, id, nil)
	}
	return d, nil
}

func (l *fakeLoader) setVersion(id, version string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d := l.descs[id]
	d.Version = version
	l.descs[id] = d
}

func (l *fakeLoader) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.descs, id)
}

// fakeMigrator counts calls; block makes it wait for context cancellation.
type fakeMigrator struct {
	calls atomic.Int32
	err   error
	delay time.Duration
	block bool
}

func (m *fakeMigrator) Migrate(ctx context.Context, id string) (*MigrationReport, error) {
	m.calls.Add(1)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &MigrationReport{Steps: []string{"synchronized models"}}, nil
}

// failingList fails every write.
type failingList struct{}

func (failingList) Add(string) (bool, error)    { return false, errors.New("disk full") }
func (failingList) Remove(string) (bool, error) { return false, errors.New("disk full") }
func (failingList) List() ([]string, error)     { return nil, errors.New("disk full") }

type fixture struct {
	db       *gorm.DB
	repo     *moduleRepo.ModuleRepository
	loader   *fakeLoader
	migrator *fakeMigrator
	list     *SettingsFile
	ctrl     *Controller
	disc     *Discovery
}

func desc(id, version string) module.Descriptor {
	return module.Descriptor{Identifier: id, Name: id + " module", Version: version, URLPrefix: id}
}

func newFixture(t *testing.T, descs ...module.Descriptor) *fixture {
	t.Helper()
	db := sqlitetest.Open(t, &entity.ModuleRecord{}, &entity.ModuleField{})
	path := filepath.Join(t.TempDir(), "modules.yaml")
	f := &fixture{
		db:       db,
		repo:     moduleRepo.NewModuleRepository(db),
		loader:   newFakeLoader(descs...),
		migrator: &fakeMigrator{},
		list:     NewSettingsFile(path, ""),
	}
	f.disc = NewDiscovery(f.repo, f.loader)
	f.ctrl = NewController(f.repo, f.loader, FileEnvironment{Path: path}, f.list, f.migrator, time.Second)
	return f
}

func (f *fixture) seed(t *testing.T, rec entity.ModuleRecord) {
	t.Helper()
	created, err := f.repo.CreateIfMissing(&rec)
	if err != nil || !created {
		t.Fatalf("seed %s: created=%v err=%v", rec.Identifier, created, err)
	}
	if rec.Installed || rec.Active {
		if err := f.repo.UpdateState(&rec); err != nil {
			t.Fatalf("seed %s flags: %v", rec.Identifier, err)
		}
	}
}

func (f *fixture) record(t *testing.T, id string) *entity.ModuleRecord {
	t.Helper()
	rec, err := f.repo.FindByIdentifier(id)
	if err != nil {
		t.Fatalf("find %s: %v", id, err)
	}
	return rec
}

func (f *fixture) enabled(t *testing.T) []string {
	t.Helper()
	ids, err := f.list.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return ids
}

func entityRecord(id string) entity.ModuleRecord {
	return entity.ModuleRecord{Identifier: id, Name: id}
}
