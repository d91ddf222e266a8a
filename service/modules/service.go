// Package modules implements module discovery and the install, upgrade and
// uninstall lifecycle on top of the module record store.
package modules

import (
	"time"

	"gorm.io/gorm"

	"modular.GO/config"
	moduleRepo "modular.GO/model/repository/module"
	"modular.GO/module"
)

// Service bundles the pieces the CLI, HTTP and GraphQL surfaces share.
type Service struct {
	Repo      *moduleRepo.ModuleRepository
	Loader    module.Loader
	Discovery *Discovery
	Lifecycle *Controller
	List      EnablementList
	Env       Environment
}

// Options overrides the defaults derived from configuration.
type Options struct {
	Loader   module.Loader
	Env      Environment
	List     EnablementList
	Migrator Migrator
	Timeout  time.Duration
}

// New wires a Service from explicit options; zero fields fall back to config.AppConfig.
func New(db *gorm.DB, opts Options) *Service {
	config.LoadAppConfig()
	cfg := config.AppConfig

	if opts.Loader == nil {
		opts.Loader = module.NewRegistryLoader(cfg.Units)
	}
	if opts.List == nil {
		opts.List = NewSettingsFile(cfg.SettingsFile, "")
	}
	if opts.Env == nil {
		opts.Env = NewEnvironment(cfg.SettingsFile, cfg.ReadOnly)
	}
	if opts.Migrator == nil {
		opts.Migrator = NewSchemaMigrator(db)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.MigrationTimeout
	}

	repo := moduleRepo.NewModuleRepository(db)
	return &Service{
		Repo:      repo,
		Loader:    opts.Loader,
		Discovery: NewDiscovery(repo, opts.Loader),
		Lifecycle: NewController(repo, opts.Loader, opts.Env, opts.List, opts.Migrator, opts.Timeout),
		List:      opts.List,
		Env:       opts.Env,
	}
}
