package typeconv

import "strings"

// CanonicalType normalizes vendor SQL types so the different dialects map
// through a single table. Length and precision suffixes are stripped.
func CanonicalType(typ string) string {
	t := strings.ToUpper(strings.TrimSpace(typ))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSuffix(t, " UNSIGNED")
	switch t {
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "SMALLINT", "BIGINT",
		"TINYINT", "MEDIUMINT", "SERIAL", "BIGSERIAL", "SMALLSERIAL":
		return "INTEGER"
	case "BOOL", "BOOLEAN", "BIT":
		return "BOOLEAN"
	case "TEXT", "VARCHAR", "CHARACTER VARYING", "CHAR", "CHARACTER", "BPCHAR",
		"NVARCHAR", "NCHAR", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "CLOB", "CITEXT", "ENUM", "SET":
		return "TEXT"
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION",
		"NUMERIC", "DECIMAL", "MONEY":
		return "REAL"
	case "TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE", "TIMESTAMP WITHOUT TIME ZONE",
		"DATETIME", "DATE", "TIME", "TIMETZ", "TIME WITH TIME ZONE", "TIME WITHOUT TIME ZONE", "YEAR":
		return "TIMESTAMP"
	case "BYTEA", "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY":
		return "BLOB"
	case "JSON", "JSONB":
		return "JSON"
	case "POINT":
		return "POINT"
	case "UUID":
		return "UUID"
	default:
		return t
	}
}

// ModelType maps a SQL column type to the property type used in model
// definitions. Unknown types fall back to String.
func ModelType(sqlType string) string {
	switch CanonicalType(sqlType) {
	case "INTEGER", "REAL":
		return "Number"
	case "BOOLEAN":
		return "Boolean"
	case "TIMESTAMP":
		return "Date"
	case "BLOB":
		return "Buffer"
	case "JSON":
		return "Object"
	case "POINT":
		return "GeoPoint"
	default:
		return "String"
	}
}
