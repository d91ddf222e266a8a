package graphqlserver

import (
	"context"
	"encoding/json"
	"time"

	"emperror.dev/errors"
	gql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"gorm.io/gorm"

	"modular.GO/graphql"
	"modular.GO/graphql/registry"
	entity "modular.GO/model/entity"
	moduleService "modular.GO/service/modules"
)

// RootResolver resolves Query and Mutation fields over the module service.
type RootResolver struct {
	svc *moduleService.Service
}

func NewRootResolver(svc *moduleService.Service) *RootResolver {
	return &RootResolver{svc: svc}
}

// Module is the GraphQL view of a module record.
type Module struct {
	ID          gql.ID
	Identifier  string
	Name        string
	Version     string
	Installed   bool
	Active      bool
	Enabled     bool
	InstallDate *string
	UpdateDate  string
	Fields      []*ModuleField
}

type ModuleField struct {
	ModelName string
	FieldName string
	FieldType string
	Active    bool
	Params    *string
}

type LifecycleResult struct {
	Identifier      string
	Name            string
	FromVersion     *string
	Version         string
	Messages        []string
	RestartRequired bool
	Changed         bool
}

// ModulesArgs matches modules(installed: Boolean).
type ModulesArgs struct {
	Installed *bool
}

func (r *RootResolver) Modules(ctx context.Context, args ModulesArgs) ([]*Module, error) {
	var (
		recs []entity.ModuleRecord
		err  error
	)
	if args.Installed != nil {
		recs, err = r.svc.Repo.Filter(map[string]interface{}{"installed": *args.Installed})
	} else {
		recs, err = r.svc.Repo.FindAll()
	}
	if err != nil {
		return nil, err
	}
	enabled := r.enabled()
	out := make([]*Module, 0, len(recs))
	for i := range recs {
		m, err := r.toModule(&recs[i], enabled)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ModuleArgs matches module(identifier: String!).
type ModuleArgs struct {
	Identifier string
}

func (r *RootResolver) Module(ctx context.Context, args ModuleArgs) (*Module, error) {
	rec, err := r.svc.Repo.FindByIdentifier(args.Identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.toModule(rec, r.enabled())
}

// ExtensionArgs for _extension(name, args).
type ExtensionArgs struct {
	Name string
	Args *string
}

func (r *RootResolver) Extension(ctx context.Context, args ExtensionArgs) (*string, error) {
	var m map[string]interface{}
	if args.Args != nil && *args.Args != "" {
		if err := json.Unmarshal([]byte(*args.Args), &m); err != nil {
			return nil, errors.Wrap(err, "args must be a JSON object")
		}
	}
	if m == nil {
		m = make(map[string]interface{})
	}
	out, err := registry.Resolve(ctx, args.Name, m)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// DiscoveryResult lists the identifiers seen by discovery and the ones it
// newly registered.
type DiscoveryResult struct {
	Observed []string
	Created  []string
}

func (r *RootResolver) DiscoverModules(ctx context.Context) (*DiscoveryResult, error) {
	observed, created, err := r.svc.Discovery.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if observed == nil {
		observed = []string{}
	}
	if created == nil {
		created = []string{}
	}
	return &DiscoveryResult{Observed: observed, Created: created}, nil
}

type IdentifierArgs struct {
	Identifier string
}

func (r *RootResolver) InstallModule(ctx context.Context, args IdentifierArgs) (*LifecycleResult, error) {
	return toResult(r.svc.Lifecycle.Install(ctx, args.Identifier))
}

func (r *RootResolver) UpgradeModule(ctx context.Context, args IdentifierArgs) (*LifecycleResult, error) {
	return toResult(r.svc.Lifecycle.Upgrade(ctx, args.Identifier))
}

type UninstallArgs struct {
	Identifier string
	Force      *bool
}

func (r *RootResolver) UninstallModule(ctx context.Context, args UninstallArgs) (*LifecycleResult, error) {
	force := args.Force != nil && *args.Force
	return toResult(r.svc.Lifecycle.Uninstall(ctx, args.Identifier, force))
}

func (r *RootResolver) enabled() map[string]bool {
	set := map[string]bool{}
	ids, err := r.svc.List.List()
	if err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (r *RootResolver) toModule(rec *entity.ModuleRecord, enabled map[string]bool) (*Module, error) {
	m := &Module{
		ID:         gql.ID(rec.Identifier),
		Identifier: rec.Identifier,
		Name:       rec.Name,
		Version:    rec.Version,
		Installed:  rec.Installed,
		Active:     rec.Active,
		Enabled:    enabled[rec.Identifier],
		UpdateDate: rec.UpdateDate.Format(time.RFC3339),
		Fields:     []*ModuleField{},
	}
	if rec.InstallDate != nil {
		s := rec.InstallDate.Format(time.RFC3339)
		m.InstallDate = &s
	}
	fields, err := r.svc.Repo.Fields(rec.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		mf := &ModuleField{
			ModelName: f.ModelName,
			FieldName: f.FieldName,
			FieldType: f.FieldType,
			Active:    f.IsActive == nil || *f.IsActive,
		}
		if len(f.FieldParams) > 0 {
			if b, err := json.Marshal(f.FieldParams); err == nil {
				s := string(b)
				mf.Params = &s
			}
		}
		m.Fields = append(m.Fields, mf)
	}
	return m, nil
}

func toResult(res *moduleService.Result, err error) (*LifecycleResult, error) {
	if err != nil {
		return nil, err
	}
	out := &LifecycleResult{
		Identifier:      res.Identifier,
		Name:            res.Name,
		Version:         res.Version,
		Messages:        res.Messages,
		RestartRequired: res.RestartRequired,
		Changed:         res.Changed,
	}
	if out.Messages == nil {
		out.Messages = []string{}
	}
	if res.FromVersion != "" {
		v := res.FromVersion
		out.FromVersion = &v
	}
	return out, nil
}

// NewSchema parses the schema and returns a graphql-go Schema.
func NewSchema(svc *moduleService.Service) (*gql.Schema, error) {
	return gql.ParseSchema(graphql.Schema(), NewRootResolver(svc), gql.UseFieldResolvers())
}

// Handler returns an http.Handler for GraphQL (relay format).
func Handler(schema *gql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}
