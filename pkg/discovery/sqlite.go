package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/TechXTT/dbfirst/pkg/internal/typeconv"
)

// SQLite has a single schema per connection, so owner and schema are
// ignored and every model is reported under "main".
type sqliteDialect struct{}

const sqliteOwner = "main"

const sqliteListModels = `SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
ORDER BY name`

var sqliteTypeArgs = regexp.MustCompile(`\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) listModels(ctx context.Context, db *sql.DB, _ string) ([]ModelSummary, error) {
	rows, err := db.QueryContext(ctx, sqliteListModels)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ModelSummary
	for rows.Next() {
		m := ModelSummary{Owner: sqliteOwner}
		if err := rows.Scan(&m.Name, &m.Type); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type sqliteColumn struct {
	column
	pk int
}

func (sqliteDialect) tableInfo(ctx context.Context, db *sql.DB, table string) ([]sqliteColumn, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []sqliteColumn
	for rows.Next() {
		var (
			cid     int
			c       sqliteColumn
			notNull int
			dflt    any
		)
		if err := rows.Scan(&cid, &c.Name, &c.DataType, &notNull, &dflt, &c.pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Owner = sqliteOwner
		c.Nullable = notNull == 0
		applySQLiteTypeArgs(&c.column)
		out = append(out, c)
	}
	return out, rows.Err()
}

// applySQLiteTypeArgs splits "VARCHAR(20)" or "DECIMAL(10,2)" into the bare
// type and its length or precision/scale.
func applySQLiteTypeArgs(c *column) {
	m := sqliteTypeArgs.FindStringSubmatchIndex(c.DataType)
	if m == nil {
		return
	}
	first, _ := strconv.ParseInt(c.DataType[m[2]:m[3]], 10, 64)
	var second int64
	hasSecond := m[4] >= 0
	if hasSecond {
		second, _ = strconv.ParseInt(c.DataType[m[4]:m[5]], 10, 64)
	}
	base := strings.TrimSpace(c.DataType[:m[0]] + c.DataType[m[1]:])

	switch typeconv.ModelType(base) {
	case "Number":
		c.Precision = sql.NullInt64{Int64: first, Valid: true}
		if hasSecond {
			c.Scale = sql.NullInt64{Int64: second, Valid: true}
		}
	default:
		c.Length = sql.NullInt64{Int64: first, Valid: true}
	}
	c.DataType = base
}

func (d sqliteDialect) columns(ctx context.Context, db *sql.DB, _, _, table string) ([]column, error) {
	info, err := d.tableInfo(ctx, db, table)
	if err != nil {
		return nil, err
	}
	cols := make([]column, 0, len(info))
	for _, c := range info {
		cols = append(cols, c.column)
	}
	return cols, nil
}

func (d sqliteDialect) primaryKeys(ctx context.Context, db *sql.DB, _, _, table string) ([]string, error) {
	info, err := d.tableInfo(ctx, db, table)
	if err != nil {
		return nil, err
	}
	var pks []sqliteColumn
	for _, c := range info {
		if c.pk > 0 {
			pks = append(pks, c)
		}
	}
	sort.Slice(pks, func(i, j int) bool { return pks[i].pk < pks[j].pk })
	names := make([]string, len(pks))
	for i, c := range pks {
		names[i] = c.Name
	}
	return names, nil
}

func (sqliteDialect) foreignKeys(ctx context.Context, db *sql.DB, _, _, table string) ([]foreignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []foreignKey
	for rows.Next() {
		var (
			id, seq                   int
			fk                        foreignKey
			to                        sql.NullString
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&id, &seq, &fk.RefTable, &fk.Column, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk.RefOwner = sqliteOwner
		fk.RefColumn = to.String
		out = append(out, fk)
	}
	return out, rows.Err()
}
