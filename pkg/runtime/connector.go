package runtime

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/TechXTT/dbfirst/pkg/discovery"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
)

// ConnectorFor maps a driver name to the discovery connector it speaks.
func ConnectorFor(driver string) (string, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return discovery.ConnectorPostgres, nil
	case DriverMySQL:
		return discovery.ConnectorMySQL, nil
	case DriverSQLite:
		return discovery.ConnectorSQLite, nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// Connect opens a database connection using the given driver and DSN.
func Connect(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DSN is empty")
	}
	if _, err := ConnectorFor(driver); err != nil {
		return nil, err
	}
	if driver == DriverPostgres || driver == DriverPgx {
		dsn = withSSLModeDisabled(dsn)
	}
	return sql.Open(driver, dsn)
}

// withSSLModeDisabled disables SSL on postgres:// URLs that do not choose a mode.
func withSSLModeDisabled(dsn string) string {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn
	}
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "sslmode=disable"
}
