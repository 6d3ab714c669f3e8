package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"

	"github.com/TechXTT/dbfirst/pkg/config"
	"github.com/TechXTT/dbfirst/pkg/discovery"
	"github.com/TechXTT/dbfirst/pkg/generator"
	"github.com/TechXTT/dbfirst/pkg/runtime"
)

// openSource connects to the configured database and wraps it for discovery.
// The caller closes the returned DB.
func openSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*discovery.Source, *sql.DB, error) {
	connector, err := runtime.ConnectorFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := runtime.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	src, err := discovery.NewSource(db, discovery.Settings{
		Name:      cfg.DataSource,
		Connector: connector,
		Database:  ownerFor(cfg),
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return src, db, nil
}

// ownerFor returns the configured database, falling back to the one named in
// a MySQL DSN.
func ownerFor(cfg *config.Config) string {
	if cfg.Database != "" || cfg.Driver != runtime.DriverMySQL {
		return cfg.Database
	}
	parsed, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return ""
	}
	return parsed.DBName
}

func newGenerator(cfg *config.Config, src generator.DataSource, logger *slog.Logger) (*generator.Generator, error) {
	meta, err := cfg.Meta()
	if err != nil {
		return nil, err
	}
	public, err := cfg.Visibility()
	if err != nil {
		return nil, err
	}
	stub, err := cfg.LogicStub()
	if err != nil {
		return nil, err
	}
	return generator.New(generator.Config{
		DataSource:          src,
		DataSourceName:      cfg.DataSource,
		BaseModelConfigPath: cfg.BaseModelConfig,
		ModelConfigPath:     cfg.ModelConfig,
		Public:              public,
		LogicStub:           stub,
		ModelMeta:           meta,
		Associations:        cfg.Associations,
		Strict:              cfg.Strict,
		Logger:              logger,
	})
}
