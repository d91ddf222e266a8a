package modules

import (
	"context"

	"emperror.dev/errors"
	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	entity "modular.GO/model/entity"
	moduleRepo "modular.GO/model/repository/module"
	"modular.GO/module"
)

// discoveryWorkers bounds concurrent descriptor reads.
const discoveryWorkers = 8

// Discovery registers every describable unit that has no record yet.
type Discovery struct {
	repo   *moduleRepo.ModuleRepository
	loader module.Loader
}

func NewDiscovery(repo *moduleRepo.ModuleRepository, loader module.Loader) *Discovery {
	return &Discovery{repo: repo, loader: loader}
}

// Discover returns every identifier whose descriptor could be read
// (observed) and creates a not-installed record for each one the store did
// not know yet (created). Existing records are never modified. Units without
// a usable descriptor are skipped silently. A store without its table
// reports nothing.
func (d *Discovery) Discover(ctx context.Context) (observed, created []string, err error) {
	if !d.repo.HasTable() {
		log.Debug("module registry table missing, discovery skipped")
		return nil, nil, nil
	}

	ids := d.loader.Identifiers()
	descs := make([]*module.Descriptor, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(discoveryWorkers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			desc, err := d.loader.Descriptor(id)
			if err != nil {
				log.WithField("module", id).WithError(err).Debug("unit skipped by discovery")
				return nil
			}
			descs[i] = &desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, desc := range descs {
		if desc == nil {
			continue
		}
		observed = append(observed, desc.Identifier)
		isNew, err := d.repo.CreateIfMissing(&entity.ModuleRecord{
			Identifier: desc.Identifier,
			Name:       desc.Name,
			Version:    desc.Version,
		})
		if err != nil {
			return observed, created, errors.Wrapf(err, "discovery: create record for %s", desc.Identifier)
		}
		if isNew {
			log.WithField("module", desc.Identifier).WithField("version", desc.Version).Info("module discovered")
			created = append(created, desc.Identifier)
		}
	}
	return observed, created, nil
}
