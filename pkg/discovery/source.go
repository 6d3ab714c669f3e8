// Package discovery reads table and view metadata from a live database and
// turns it into model definitions.
package discovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TechXTT/dbfirst/pkg/internal/typeconv"
)

// Connector names, also used as the key of connector-specific blocks in
// model definitions.
const (
	ConnectorPostgres = "postgresql"
	ConnectorMySQL    = "mysql"
	ConnectorSQLite   = "sqlite3"
)

var (
	// ErrUnknownConnector is returned for a connector without a dialect.
	ErrUnknownConnector = errors.New("unknown connector")

	// ErrTableNotFound is returned when a table has no visible columns.
	ErrTableNotFound = errors.New("table not found")
)

// Settings describe the data source a Source discovers from.
type Settings struct {
	// Name is the data source name written into model-config.json.
	Name string
	// Connector selects the SQL dialect.
	Connector string
	// Database is the default discovery owner.
	Database string
}

type column struct {
	Owner     string
	Name      string
	DataType  string
	Length    sql.NullInt64
	Precision sql.NullInt64
	Scale     sql.NullInt64
	Nullable  bool
}

type foreignKey struct {
	Column    string
	RefOwner  string
	RefTable  string
	RefColumn string
}

// dialect runs the catalog queries of one database. owner is the
// database-level scope and schema the namespace holding the table; either
// may be empty to mean the connection's default.
type dialect interface {
	listModels(ctx context.Context, db *sql.DB, owner string) ([]ModelSummary, error)
	columns(ctx context.Context, db *sql.DB, owner, schema, table string) ([]column, error)
	primaryKeys(ctx context.Context, db *sql.DB, owner, schema, table string) ([]string, error)
	foreignKeys(ctx context.Context, db *sql.DB, owner, schema, table string) ([]foreignKey, error)
}

// Source discovers models through database/sql.
type Source struct {
	db       *sql.DB
	settings Settings
	dialect  dialect
	logger   *slog.Logger
}

// NewSource returns a Source for db. If logger is nil, a discard logger is used.
func NewSource(db *sql.DB, settings Settings, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var d dialect
	switch settings.Connector {
	case ConnectorPostgres:
		d = postgresDialect{}
	case ConnectorMySQL:
		d = mysqlDialect{}
	case ConnectorSQLite:
		d = sqliteDialect{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnector, settings.Connector)
	}
	return &Source{db: db, settings: settings, dialect: d, logger: logger}, nil
}

// Name returns the data source name.
func (s *Source) Name() string { return s.settings.Name }

// Owner returns the configured database, used as the default discovery owner.
func (s *Source) Owner() string { return s.settings.Database }

// Connector returns the connector name.
func (s *Source) Connector() string { return s.settings.Connector }

// DiscoverModelDefinitions lists the tables of the owner, and its views when
// opts.Views is set.
func (s *Source) DiscoverModelDefinitions(ctx context.Context, opts ModelListOptions) ([]ModelSummary, error) {
	all, err := s.dialect.listModels(ctx, s.db, opts.Owner)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	models := make([]ModelSummary, 0, len(all))
	for _, m := range all {
		if m.Type == "view" && !opts.Views {
			continue
		}
		models = append(models, m)
	}
	s.logger.Debug("listed models", slog.String("owner", opts.Owner), slog.Int("count", len(models)))
	return models, nil
}

// DiscoverSchemas returns the definition of table keyed "<schema>.<table>".
// opts.Schema selects the schema holding the table, as reported by
// DiscoverModelDefinitions. With opts.Associations the tables it references
// are included as well.
func (s *Source) DiscoverSchemas(ctx context.Context, table string, opts SchemaOptions) (map[string]*ModelDefinition, error) {
	out := map[string]*ModelDefinition{}
	visited := map[string]bool{}
	if err := s.discover(ctx, opts.Owner, opts.Schema, table, opts, out, visited); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Source) discover(ctx context.Context, owner, schema, table string, opts SchemaOptions, out map[string]*ModelDefinition, visited map[string]bool) error {
	if visited[schema+"."+table] {
		return nil
	}
	visited[schema+"."+table] = true

	cols, err := s.dialect.columns(ctx, s.db, owner, schema, table)
	if err != nil {
		return fmt.Errorf("introspect table %s: %w", table, err)
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, qualify(schema, table))
	}
	key := cols[0].Owner + "." + table
	if key != schema+"."+table && visited[key] {
		return nil
	}
	visited[key] = true

	pks, err := s.dialect.primaryKeys(ctx, s.db, owner, schema, table)
	if err != nil {
		return fmt.Errorf("primary keys of %s: %w", table, err)
	}

	var fks []foreignKey
	if opts.Relations || opts.Associations {
		fks, err = s.dialect.foreignKeys(ctx, s.db, owner, schema, table)
		if err != nil {
			return fmt.Errorf("foreign keys of %s: %w", table, err)
		}
	}

	def := s.buildDefinition(table, cols, pks)
	if opts.Relations && len(fks) > 0 {
		targets := map[string]int{}
		for _, fk := range fks {
			targets[fk.RefOwner+"."+fk.RefTable]++
		}
		def.Relations = map[string]*Relation{}
		for _, fk := range fks {
			shared := targets[fk.RefOwner+"."+fk.RefTable] > 1
			name := uniqueName(relationName(fk.Column, fk.RefTable, shared), def.Relations)
			def.Relations[name] = &Relation{
				Model:      ModelName(fk.RefTable),
				Type:       "belongsTo",
				ForeignKey: PropertyName(fk.Column),
			}
		}
	}
	out[key] = def
	s.logger.Debug("discovered schema",
		slog.String("schema", cols[0].Owner),
		slog.String("table", table),
		slog.Int("columns", len(cols)),
		slog.Int("foreign_keys", len(fks)))

	if opts.Associations {
		for _, fk := range fks {
			if err := s.discover(ctx, owner, fk.RefOwner, fk.RefTable, opts, out, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

func qualify(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

func (s *Source) buildDefinition(table string, cols []column, pks []string) *ModelDefinition {
	pkIndex := make(map[string]int, len(pks))
	for i, pk := range pks {
		pkIndex[pk] = i + 1
	}

	props := make(map[string]*Property, len(cols))
	for _, c := range cols {
		nullable := "NO"
		if c.Nullable {
			nullable = "YES"
		}
		p := &Property{
			Type:      typeconv.ModelType(c.DataType),
			Required:  !c.Nullable,
			Length:    nullInt(c.Length),
			Precision: nullInt(c.Precision),
			Scale:     nullInt(c.Scale),
			ID:        pkIndex[c.Name],
			Connector: s.settings.Connector,
			Column: ColumnMapping{
				ColumnName:    c.Name,
				DataType:      strings.ToLower(c.DataType),
				DataLength:    nullInt(c.Length),
				DataPrecision: nullInt(c.Precision),
				DataScale:     nullInt(c.Scale),
				Nullable:      nullable,
			},
		}
		props[PropertyName(c.Name)] = p
	}

	return &ModelDefinition{
		Name: ModelName(table),
		Options: map[string]any{
			"idInjection": false,
			s.settings.Connector: map[string]string{
				"schema": cols[0].Owner,
				"table":  table,
			},
		},
		Properties: props,
	}
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// queryColumns runs an information_schema column query whose result set is
// (table_schema, column_name, data_type, character_maximum_length,
// numeric_precision, numeric_scale, is_nullable).
func queryColumns(ctx context.Context, db *sql.DB, query string, args ...any) ([]column, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []column
	for rows.Next() {
		var c column
		var nullable string
		if err := rows.Scan(&c.Owner, &c.Name, &c.DataType, &c.Length, &c.Precision, &c.Scale, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Nullable = strings.EqualFold(nullable, "YES")
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func queryForeignKeys(ctx context.Context, db *sql.DB, query string, args ...any) ([]foreignKey, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.Column, &fk.RefOwner, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		out = append(out, fk)
	}
	return out, rows.Err()
}

// queryTables runs a query returning (owner, name, table_type) rows.
func queryTables(ctx context.Context, db *sql.DB, query string, args ...any) ([]ModelSummary, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ModelSummary
	for rows.Next() {
		var m ModelSummary
		var tableType string
		if err := rows.Scan(&m.Owner, &m.Name, &tableType); err != nil {
			return nil, err
		}
		m.Type = "table"
		if strings.Contains(strings.ToUpper(tableType), "VIEW") {
			m.Type = "view"
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
