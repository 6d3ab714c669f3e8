package discovery

import (
	"context"
	"database/sql"
)

// PostgreSQL treats the owner as the database (table_catalog) and the schema
// as the namespace; empty values mean current_database() and
// current_schema(). System schemas are never listed.
type postgresDialect struct{}

const postgresListModels = `SELECT table_schema, table_name, table_type
FROM information_schema.tables
WHERE table_catalog = COALESCE(NULLIF($1, ''), current_database())
  AND table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name`

const postgresColumns = `SELECT table_schema, column_name, data_type, character_maximum_length,
       numeric_precision, numeric_scale, is_nullable
FROM information_schema.columns
WHERE table_catalog = COALESCE(NULLIF($1, ''), current_database())
  AND table_schema = COALESCE(NULLIF($2, ''), current_schema())
  AND table_name = $3
ORDER BY ordinal_position`

const postgresPrimaryKeys = `SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema
 AND kcu.constraint_name = tc.constraint_name
WHERE tc.constraint_type = 'PRIMARY KEY'
  AND tc.table_catalog = COALESCE(NULLIF($1, ''), current_database())
  AND tc.table_schema = COALESCE(NULLIF($2, ''), current_schema())
  AND tc.table_name = $3
ORDER BY kcu.ordinal_position`

// Referenced columns are matched to referencing columns by position, so
// composite keys pair up and the target may live in another schema.
const postgresForeignKeys = `SELECT kcu.column_name, ref.table_schema, ref.table_name, ref.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema
 AND kcu.constraint_name = tc.constraint_name
JOIN information_schema.referential_constraints rc
  ON rc.constraint_schema = tc.constraint_schema
 AND rc.constraint_name = tc.constraint_name
JOIN information_schema.key_column_usage ref
  ON ref.constraint_schema = rc.unique_constraint_schema
 AND ref.constraint_name = rc.unique_constraint_name
 AND ref.ordinal_position = kcu.position_in_unique_constraint
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_catalog = COALESCE(NULLIF($1, ''), current_database())
  AND tc.table_schema = COALESCE(NULLIF($2, ''), current_schema())
  AND tc.table_name = $3
ORDER BY tc.constraint_name, kcu.ordinal_position`

func (postgresDialect) listModels(ctx context.Context, db *sql.DB, owner string) ([]ModelSummary, error) {
	return queryTables(ctx, db, postgresListModels, owner)
}

func (postgresDialect) columns(ctx context.Context, db *sql.DB, owner, schema, table string) ([]column, error) {
	return queryColumns(ctx, db, postgresColumns, owner, schema, table)
}

func (postgresDialect) primaryKeys(ctx context.Context, db *sql.DB, owner, schema, table string) ([]string, error) {
	return queryStrings(ctx, db, postgresPrimaryKeys, owner, schema, table)
}

func (postgresDialect) foreignKeys(ctx context.Context, db *sql.DB, owner, schema, table string) ([]foreignKey, error) {
	return queryForeignKeys(ctx, db, postgresForeignKeys, owner, schema, table)
}
