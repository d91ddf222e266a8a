package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"emperror.dev/errors"

	"modular.GO/internal/testutil/sqlitetest"
	entity "modular.GO/model/entity"
	moduleService "modular.GO/service/modules"
	"modular.GO/module"
)

type stubLoader map[string]module.Descriptor

func (s stubLoader) Identifiers() []string {
	var ids []string
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

func (s stubLoader) Importable(id string) bool { _, ok := s[id]; return ok }

func (s stubLoader) Descriptor(id string) (module.Descriptor, error) {
	d, ok := s[id]
	if !ok {
		return d, module.NewError(module.KindPackageUnavailable, id, nil)
	}
	return d, nil
}

type noopMigrator struct{}

func (noopMigrator) Migrate(context.Context, string) (*moduleService.MigrationReport, error) {
	return nil, nil
}

// withService points the commands at an isolated sqlite registry.
func withService(t *testing.T, loader stubLoader) *moduleService.Service {
	t.Helper()
	db := sqlitetest.Open(t, &entity.ModuleRecord{}, &entity.ModuleField{})
	path := filepath.Join(t.TempDir(), "modules.yaml")
	svc := moduleService.New(db, moduleService.Options{
		Loader:   loader,
		Env:      moduleService.FileEnvironment{Path: path},
		List:     moduleService.NewSettingsFile(path, ""),
		Migrator: noopMigrator{},
		Timeout:  time.Second,
	})
	prev := newService
	newService = func() (*moduleService.Service, error) { return svc, nil }
	t.Cleanup(func() { newService = prev })
	return svc
}

func run(args ...string) (string, error) {
	uninstallForce = false
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_InstallUpgradeUninstall(t *testing.T) {
	loader := stubLoader{"billing": {Identifier: "billing", Name: "Billing", Version: "1.0"}}
	svc := withService(t, loader)

	out, err := run("modules:discover")
	if err != nil || !strings.Contains(out, "Discovered module 'billing'") {
		t.Fatalf("discover = %q, %v", out, err)
	}

	out, err = run("install_module", "billing")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	for _, want := range []string{"Installing module 'billing'...", "Added 'billing' to enabled modules", "Module 'billing' installed successfully"} {
		if !strings.Contains(out, want) {
			t.Errorf("install output missing %q:\n%s", want, out)
		}
	}

	out, err = run("upgrade_module", "billing")
	if err != nil || !strings.Contains(out, "is already at version 1.0") {
		t.Errorf("upgrade = %q, %v", out, err)
	}

	loader["billing"] = module.Descriptor{Identifier: "billing", Name: "Billing", Version: "1.1"}
	out, err = run("upgrade_module", "billing")
	if err != nil || !strings.Contains(out, "upgraded from 1.0 to 1.1") {
		t.Errorf("upgrade = %q, %v", out, err)
	}

	out, err = run("modules:list")
	if err != nil || !strings.Contains(out, "billing") || !strings.Contains(out, "1.1") {
		t.Errorf("list = %q, %v", out, err)
	}

	out, err = run("uninstall_module", "billing")
	if err != nil || !strings.Contains(out, "Module 'billing' uninstalled successfully") {
		t.Errorf("uninstall = %q, %v", out, err)
	}
	if rec, _ := svc.Repo.FindByIdentifier("billing"); rec.Installed {
		t.Error("record still installed")
	}
}

func TestCLI_Errors(t *testing.T) {
	withService(t, stubLoader{})

	_, err := run("install_module", "ghost")
	if !errors.Is(err, module.ErrNotFound) {
		t.Errorf("install err = %v, want not found", err)
	}
	if err == nil || err.Error() != "module 'ghost' not found in registry" {
		t.Errorf("message = %v", err)
	}

	if _, err := run("uninstall_module", "ghost"); !errors.Is(err, module.ErrNotFound) {
		t.Errorf("uninstall err = %v, want not found", err)
	}
	out, err := run("uninstall_module", "ghost", "--force")
	if err != nil || !strings.Contains(out, "proceeding with enablement list cleanup") {
		t.Errorf("forced uninstall = %q, %v", out, err)
	}

	if _, err := run("install_module"); err == nil {
		t.Error("missing argument should fail")
	}
}

func TestCLI_CronRunSingleJob(t *testing.T) {
	withService(t, stubLoader{"billing": {Identifier: "billing", Name: "Billing", Version: "1.0"}})

	out, err := run("cron:start", "--job", "modules:discover")
	if err != nil || !strings.Contains(out, "Running cron job: modules:discover") {
		t.Fatalf("cron = %q, %v", out, err)
	}
	jobName = ""

	if _, err := run("cron:start", "--job", "nope"); err == nil {
		t.Error("unknown job should fail")
	}
	jobName = ""
}
