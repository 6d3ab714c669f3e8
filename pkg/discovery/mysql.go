package discovery

import (
	"context"
	"database/sql"
)

// MySQL treats the owner as the schema; an empty owner means DATABASE().
// A table's own schema, when known, takes precedence over the owner.
type mysqlDialect struct{}

func mysqlSchema(owner, schema string) string {
	if schema != "" {
		return schema
	}
	return owner
}

const mysqlListModels = `SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
ORDER BY table_name`

const mysqlColumns = `SELECT table_schema, column_name, data_type, character_maximum_length,
       numeric_precision, numeric_scale, is_nullable
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
  AND table_name = ?
ORDER BY ordinal_position`

const mysqlPrimaryKeys = `SELECT column_name
FROM information_schema.key_column_usage
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
  AND table_name = ?
  AND constraint_name = 'PRIMARY'
ORDER BY ordinal_position`

const mysqlForeignKeys = `SELECT column_name, referenced_table_schema, referenced_table_name, referenced_column_name
FROM information_schema.key_column_usage
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE())
  AND table_name = ?
  AND referenced_table_name IS NOT NULL
ORDER BY ordinal_position`

func (mysqlDialect) listModels(ctx context.Context, db *sql.DB, owner string) ([]ModelSummary, error) {
	return queryTables(ctx, db, mysqlListModels, owner)
}

func (mysqlDialect) columns(ctx context.Context, db *sql.DB, owner, schema, table string) ([]column, error) {
	return queryColumns(ctx, db, mysqlColumns, mysqlSchema(owner, schema), table)
}

func (mysqlDialect) primaryKeys(ctx context.Context, db *sql.DB, owner, schema, table string) ([]string, error) {
	return queryStrings(ctx, db, mysqlPrimaryKeys, mysqlSchema(owner, schema), table)
}

func (mysqlDialect) foreignKeys(ctx context.Context, db *sql.DB, owner, schema, table string) ([]foreignKey, error) {
	return queryForeignKeys(ctx, db, mysqlForeignKeys, mysqlSchema(owner, schema), table)
}
