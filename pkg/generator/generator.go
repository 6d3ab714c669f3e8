// Package generator regenerates a model-config.json and per-model definition
// and logic files from the schema of a data source.
//
// A Generator loads the model configuration once, when it is built. Each
// Autoupdate or Automigrate call mutates that configuration in memory and
// writes it back, together with one <Model>.json and <Model>.js file per
// discovered model, into the first directory listed in _meta.sources.
//
// A pass that fails leaves the Generator as it was before the call, so it
// can be retried. Files already written by a pass that failed while saving
// stay on disk. Generators are not safe for concurrent use.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/TechXTT/dbfirst/pkg/discovery"
	"github.com/TechXTT/dbfirst/pkg/internal/workqueue"
)

// BaseModel is the base every generated model definition extends.
const BaseModel = "PersistedModel"

// DataSource is the discovery API a Generator reads schemas from.
type DataSource interface {
	// Name is the default data source name bound in model-config.json.
	Name() string
	// Owner is the schema owner passed to discovery, typically the database.
	Owner() string
	DiscoverModelDefinitions(ctx context.Context, opts discovery.ModelListOptions) ([]discovery.ModelSummary, error)
	DiscoverSchemas(ctx context.Context, modelName string, opts discovery.SchemaOptions) (map[string]*discovery.ModelDefinition, error)
}

// Config configures a Generator.
type Config struct {
	DataSource DataSource
	// DataSourceName defaults to DataSource.Name().
	DataSourceName string
	// BaseModelConfigPath is an optional model-config.json whose top-level
	// keys are added to the output when missing from it.
	BaseModelConfigPath string
	// ModelConfigPath is the model-config.json to load and rewrite.
	ModelConfigPath string
	// Public defaults to FixedVisibility(false).
	Public VisibilityPolicy
	// LogicStub defaults to EmptyLogicStub.
	LogicStub LogicStubGenerator
	ModelMeta map[string]ModelMeta
	// Associations also discovers models referenced by foreign keys.
	Associations bool
	// Strict aborts a pass on the first model whose schema cannot be
	// discovered. By default such models are logged, reported and skipped.
	Strict bool
	Logger *slog.Logger
}

// ModelError records a model whose schema discovery failed.
type ModelError struct {
	Model string
	Err   error
}

func (e ModelError) Error() string { return e.Model + ": " + e.Err.Error() }

func (e ModelError) Unwrap() error { return e.Err }

// Report summarizes one Autoupdate or Automigrate pass.
type Report struct {
	// Deleted lists models removed before discovery (Automigrate only).
	Deleted []string
	// Configured lists models bound in model-config.json by this pass.
	Configured []string
	// Skipped lists models left out because of ModelMeta.Skip.
	Skipped []string
	// Defined lists models whose definition and logic files were written.
	Defined []string
	// BaseKeys lists keys copied from the base model config.
	BaseKeys []string
	// Failed lists models whose schema discovery failed.
	Failed []ModelError
}

// Generator discovers models from a data source and writes them to disk.
type Generator struct {
	dataSource     DataSource
	dataSourceName string
	baseConfigPath string
	configPath     string
	public         VisibilityPolicy
	logicStub      LogicStubGenerator
	modelMeta      map[string]ModelMeta
	associations   bool
	strict         bool
	logger         *slog.Logger

	config      ModelConfig
	definitions map[string]*discovery.ModelDefinition
	sources     []string
}

// New validates cfg and loads the model configuration it points to.
func New(cfg Config) (*Generator, error) {
	if cfg.DataSource == nil {
		return nil, ErrMissingDataSource
	}
	name := cfg.DataSourceName
	if name == "" {
		name = cfg.DataSource.Name()
	}
	if name == "" {
		return nil, fmt.Errorf("%w: data source name is required", ErrMissingDataSource)
	}
	if cfg.ModelConfigPath == "" {
		return nil, fmt.Errorf("%w: path is required", ErrModelConfig)
	}

	g := &Generator{
		dataSource:     cfg.DataSource,
		dataSourceName: name,
		baseConfigPath: cfg.BaseModelConfigPath,
		configPath:     cfg.ModelConfigPath,
		public:         cfg.Public,
		logicStub:      cfg.LogicStub,
		modelMeta:      cfg.ModelMeta,
		associations:   cfg.Associations,
		strict:         cfg.Strict,
		logger:         cfg.Logger,
		definitions:    map[string]*discovery.ModelDefinition{},
	}
	if g.public == nil {
		g.public = FixedVisibility(false)
	}
	if g.logicStub == nil {
		g.logicStub = EmptyLogicStub
	}
	if g.modelMeta == nil {
		g.modelMeta = map[string]ModelMeta{}
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}

	config, sources, err := loadModelConfig(cfg.ModelConfigPath)
	if err != nil {
		return nil, err
	}
	g.config = config
	g.sources = sources
	return g, nil
}

// DataSourceName returns the name models are bound to.
func (g *Generator) DataSourceName() string { return g.dataSourceName }

// Sources returns the resolved model directories, in lookup order.
func (g *Generator) Sources() []string {
	return append([]string(nil), g.sources...)
}

// Automigrate removes every model bound to the data source, including its
// definition and logic files, then runs a full discovery pass. Nothing is
// removed from disk unless the pass completes.
func (g *Generator) Automigrate(ctx context.Context, includeViews bool) (*Report, error) {
	p := g.newPass("automigrate")
	p.deleteModels()
	return p.report, p.run(ctx, includeViews)
}

// Autoupdate runs a discovery pass without removing anything first. Models
// that disappeared from the data source keep their entries and files.
func (g *Generator) Autoupdate(ctx context.Context, includeViews bool) (*Report, error) {
	p := g.newPass("autoupdate")
	return p.report, p.run(ctx, includeViews)
}

// pass holds the state of a single Automigrate or Autoupdate call. It works
// on copies of the generator's configuration and definitions, which replace
// the originals only once everything has been written.
type pass struct {
	*Generator
	log    *slog.Logger
	report *Report

	cfg  ModelConfig
	defs map[string]*discovery.ModelDefinition
	// stale lists definition and logic files of deleted models, removed
	// after the configuration has been written.
	stale []string
}

func (g *Generator) newPass(op string) *pass {
	p := &pass{
		Generator: g,
		log: g.logger.With(
			slog.String("op", op),
			slog.String("run", uuid.NewString()),
			slog.String("data_source", g.dataSourceName)),
		report: &Report{},
		cfg:    make(ModelConfig, len(g.config)),
		defs:   make(map[string]*discovery.ModelDefinition, len(g.definitions)),
	}
	for k, v := range g.config {
		p.cfg[k] = v
	}
	for k, v := range g.definitions {
		p.defs[k] = v
	}
	return p
}

func (p *pass) run(ctx context.Context, includeViews bool) error {
	if err := p.createModels(ctx, includeViews); err != nil {
		return err
	}
	if err := p.saveModels(); err != nil {
		return err
	}
	p.config = p.cfg
	p.definitions = p.defs
	return nil
}

func (p *pass) deleteModels() {
	names := make([]string, 0, len(p.cfg))
	for name := range p.cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if p.cfg.dataSourceOf(name) != p.dataSourceName {
			continue
		}
		delete(p.cfg, name)
		delete(p.defs, name)

		if dir, ok := findModelDir(p.sources, name); ok {
			p.stale = append(p.stale,
				filepath.Join(dir, name+".json"),
				filepath.Join(dir, name+".js"))
		}
		p.report.Deleted = append(p.report.Deleted, name)
		p.log.Debug("deleted model", slog.String("model", name))
	}
}

func (p *pass) createModels(ctx context.Context, includeViews bool) error {
	owner := p.dataSource.Owner()
	models, err := p.dataSource.DiscoverModelDefinitions(ctx, discovery.ModelListOptions{
		Owner: owner,
		Views: includeViews,
	})
	if err != nil {
		return fmt.Errorf("discover model definitions: %w", err)
	}
	p.log.Info("discovered models", slog.Int("count", len(models)), slog.Bool("views", includeViews))

	// One discovery call at a time: schema queries are not assumed safe to
	// overlap on the same connection.
	q := workqueue.New(1)
	for _, m := range models {
		opts := discovery.SchemaOptions{
			Owner:        owner,
			Schema:       m.Owner,
			Relations:    true,
			Associations: p.associations,
		}
		q.Push(func(ctx context.Context) error {
			return p.discoverSchemas(ctx, m.Name, opts)
		}, func(err error) error {
			if err == nil {
				return nil
			}
			p.report.Failed = append(p.report.Failed, ModelError{Model: m.Name, Err: err})
			if p.strict {
				return fmt.Errorf("discover schema of %s: %w", m.Name, err)
			}
			p.log.Warn("schema discovery failed, model skipped",
				slog.String("model", m.Name), slog.Any("error", err))
			return nil
		})
	}
	return q.Run(ctx)
}

func (p *pass) discoverSchemas(ctx context.Context, name string, opts discovery.SchemaOptions) error {
	schemas, err := p.dataSource.DiscoverSchemas(ctx, name, opts)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(schemas))
	for key := range schemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		def := schemas[key]
		if def == nil || def.Name == "" {
			p.log.Debug("empty schema ignored", slog.String("model", name), slog.String("key", key))
			continue
		}
		meta := p.modelMeta[def.Name]
		if meta.Skip {
			p.report.Skipped = append(p.report.Skipped, def.Name)
			continue
		}
		entry := modelEntry{DataSource: p.dataSourceName, Public: p.public.IsPublic(def.Name)}
		if err := p.cfg.set(def.Name, entry); err != nil {
			return err
		}
		p.report.Configured = append(p.report.Configured, def.Name)
		if !meta.SkipCustom {
			def.Base = BaseModel
			p.defs[def.Name] = def
		}
	}
	return nil
}

func (p *pass) saveModels() error {
	if len(p.defs) > 0 && len(p.sources) == 0 {
		return ErrNoSources
	}

	added, err := mergeBase(p.cfg, p.baseConfigPath)
	if err != nil {
		return err
	}
	sort.Strings(added)
	p.report.BaseKeys = added

	if err := saveJSON(p.configPath, p.cfg); err != nil {
		return err
	}
	for _, file := range p.stale {
		if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", file, err)
		}
	}

	names := make([]string, 0, len(p.defs))
	for name := range p.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}

	dir := p.sources[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	for _, name := range names {
		if err := saveJSON(filepath.Join(dir, name+".json"), p.defs[name]); err != nil {
			return err
		}
		js := filepath.Join(dir, name+".js")
		src, err := p.logicStub.Generate(name, js)
		if err != nil {
			return fmt.Errorf("generate logic for %s: %w", name, err)
		}
		if err := os.WriteFile(js, []byte(src), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", js, err)
		}
		p.report.Defined = append(p.report.Defined, name)
	}
	p.log.Info("saved models",
		slog.String("config", p.configPath),
		slog.Int("definitions", len(names)),
		slog.Int("failed", len(p.report.Failed)))
	return nil
}
