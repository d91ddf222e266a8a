package modules

import (
	"context"
	"fmt"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"gorm.io/gorm"

	entity "modular.GO/model/entity"
	moduleRepo "modular.GO/model/repository/module"
	"modular.GO/module"
)

// DefaultMigrationTimeout bounds a migration when no timeout is configured.
const DefaultMigrationTimeout = 2 * time.Minute

// Result reports the outcome of one lifecycle operation.
type Result struct {
	Identifier  string   `json:"identifier"`
	Name        string   `json:"name"`
	FromVersion string   `json:"from_version,omitempty"`
	Version     string   `json:"version"`
	Messages    []string `json:"messages"`
	// RestartRequired is set whenever routes change; they are composed at boot only.
	RestartRequired bool `json:"restart_required"`
	Changed         bool `json:"changed"`
}

func (r *Result) say(format string, args ...interface{}) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// Controller performs install, upgrade and uninstall. Operations on the same
// identifier are serialized across the process; different identifiers run in parallel.
type Controller struct {
	repo     *moduleRepo.ModuleRepository
	loader   module.Loader
	env      Environment
	list     EnablementList
	migrator Migrator
	timeout  time.Duration
	locks    *keyedMutex
}

func NewController(repo *moduleRepo.ModuleRepository, loader module.Loader, env Environment, list EnablementList, migrator Migrator, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultMigrationTimeout
	}
	return &Controller{
		repo:     repo,
		loader:   loader,
		env:      env,
		list:     list,
		migrator: migrator,
		timeout:  timeout,
		locks:    identifierLocks,
	}
}

// Install enables a discovered module: durable list, schema, then flags.
// Preconditions are checked in order: record exists, package importable,
// descriptor readable.
func (c *Controller) Install(ctx context.Context, id string) (*Result, error) {
	unlock := c.locks.Lock(id)
	defer unlock()
	l := log.WithField("module", id).WithField("op", "install")

	rec, err := c.find(id)
	if err != nil {
		return nil, err
	}
	if !c.loader.Importable(id) {
		return nil, module.NewError(module.KindPackageUnavailable, id, nil)
	}
	desc, err := c.descriptor(id)
	if err != nil {
		return nil, err
	}

	res := &Result{Identifier: id, Name: rec.Name, FromVersion: rec.Version, Version: desc.Version}

	added := false
	if c.env.CanMutateDurableList() {
		added, err = c.list.Add(id)
		if err != nil {
			return nil, module.NewError(module.KindDurableListWriteFailed, id, err)
		}
		if added {
			res.say("Added '%s' to enabled modules", id)
		} else {
			res.say("Module '%s' already in enabled modules", id)
		}
	} else {
		res.say("Enablement list is read-only in the %s environment, module state saved in the database only", c.env.Name())
	}
	// Undo our own list edit so the list never names a module whose schema failed.
	rollback := func() {
		if !added {
			return
		}
		if _, rerr := c.list.Remove(id); rerr != nil {
			l.WithError(rerr).Error("failed to roll back enablement list entry")
		}
	}

	// A repeated install of the current version does not migrate again.
	current := rec.Installed && rec.Active && rec.Version == desc.Version
	if current {
		res.say("Module '%s' is already installed at version %s", id, desc.Version)
	} else if err := c.migrate(ctx, id, res); err != nil {
		rollback()
		l.WithError(err).Error("install failed")
		return nil, err
	}

	err = c.repo.Transaction(func(tx *moduleRepo.ModuleRepository) error {
		cur, err := tx.FindByIdentifierForUpdate(id)
		if err != nil {
			return err
		}
		now := time.Now()
		cur.Installed = true
		cur.Active = true
		cur.Version = desc.Version
		if cur.InstallDate == nil {
			cur.InstallDate = &now
		}
		return tx.UpdateState(cur)
	})
	if err != nil {
		rollback()
		return nil, module.NewError(module.KindStoreFailed, id, err)
	}

	res.Changed = !current || added
	res.RestartRequired = res.Changed
	res.say("Module '%s' installed successfully", id)
	l.WithField("version", desc.Version).Info("module installed")
	return res, nil
}

// Upgrade records the version the unit now reports, migrating first. It is a
// no-op when the stored version already matches.
func (c *Controller) Upgrade(ctx context.Context, id string) (*Result, error) {
	unlock := c.locks.Lock(id)
	defer unlock()
	l := log.WithField("module", id).WithField("op", "upgrade")

	rec, err := c.find(id)
	if err != nil {
		return nil, err
	}
	if !rec.Installed {
		return nil, module.NewError(module.KindNotInstalled, id, nil)
	}
	desc, err := c.descriptor(id)
	if err != nil {
		if module.KindOf(err) == module.KindPackageUnavailable {
			return nil, module.NewError(module.KindDescriptorMissing, id, err)
		}
		return nil, err
	}

	res := &Result{Identifier: id, Name: rec.Name, FromVersion: rec.Version, Version: desc.Version}
	if rec.Version == desc.Version {
		res.say("Module '%s' is already at version %s", id, desc.Version)
		return res, nil
	}

	if err := c.migrate(ctx, id, res); err != nil {
		l.WithError(err).Error("upgrade failed")
		return nil, err
	}

	err = c.repo.Transaction(func(tx *moduleRepo.ModuleRepository) error {
		cur, err := tx.FindByIdentifierForUpdate(id)
		if err != nil {
			return err
		}
		cur.Version = desc.Version
		return tx.UpdateState(cur)
	})
	if err != nil {
		return nil, module.NewError(module.KindStoreFailed, id, err)
	}

	res.Changed = true
	res.RestartRequired = true
	res.say("Module '%s' upgraded from %s to %s", id, rec.Version, desc.Version)
	l.WithField("from", rec.Version).WithField("to", desc.Version).Info("module upgraded")
	return res, nil
}

// Uninstall removes a module from the durable list and clears its flags. The
// schema is left in place. With force, a missing record is not an error and
// the durable list is still cleaned.
func (c *Controller) Uninstall(ctx context.Context, id string, force bool) (*Result, error) {
	unlock := c.locks.Lock(id)
	defer unlock()
	l := log.WithField("module", id).WithField("op", "uninstall")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Identifier: id, Name: id}
	rec, err := c.find(id)
	if err != nil {
		if !force || module.KindOf(err) != module.KindNotFound {
			return nil, err
		}
		rec = nil
		res.say("Module '%s' not found in registry, proceeding with enablement list cleanup", id)
	}
	if rec != nil {
		res.Name = rec.Name
		res.FromVersion = rec.Version
		res.Version = rec.Version
	}

	if c.env.CanMutateDurableList() {
		removed, err := c.list.Remove(id)
		if err != nil {
			return nil, module.NewError(module.KindDurableListWriteFailed, id, err)
		}
		if removed {
			res.Changed = true
			res.say("Removed '%s' from enabled modules", id)
		} else {
			res.say("Module '%s' was not in enabled modules", id)
		}
	} else {
		res.say("Enablement list is read-only in the %s environment, module state saved in the database only", c.env.Name())
	}

	if rec != nil {
		if rec.Installed || rec.Active {
			res.Changed = true
		}
		err := c.repo.Transaction(func(tx *moduleRepo.ModuleRepository) error {
			cur, err := tx.FindByIdentifierForUpdate(id)
			if err != nil {
				return err
			}
			cur.Installed = false
			cur.Active = false
			return tx.UpdateState(cur)
		})
		if err != nil {
			return nil, module.NewError(module.KindStoreFailed, id, err)
		}
	}

	res.RestartRequired = res.Changed
	res.say("Module '%s' uninstalled successfully", id)
	l.WithField("force", force).Info("module uninstalled")
	return res, nil
}

func (c *Controller) find(id string) (*entity.ModuleRecord, error) {
	rec, err := c.repo.FindByIdentifier(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, module.NewError(module.KindNotFound, id, nil)
	}
	if err != nil {
		return nil, module.NewError(module.KindStoreFailed, id, err)
	}
	return rec, nil
}

func (c *Controller) descriptor(id string) (module.Descriptor, error) {
	desc, err := c.loader.Descriptor(id)
	if err == nil {
		return desc, nil
	}
	if module.KindOf(err) != "" {
		return desc, err
	}
	return desc, module.NewError(module.KindDescriptorMissing, id, err)
}

// migrate runs the migrator under the configured timeout.
func (c *Controller) migrate(ctx context.Context, id string, res *Result) error {
	mctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report, err := c.migrator.Migrate(mctx, id)
	if err != nil {
		if errors.Is(mctx.Err(), context.DeadlineExceeded) {
			return module.NewError(module.KindMigrationTimeout, id, err)
		}
		return module.NewError(module.KindMigrationFailed, id, err)
	}
	if report != nil && report.FollowUp != "" {
		res.say("Schema for '%s' may need a follow-up migration: %s", id, report.FollowUp)
	}
	return nil
}
