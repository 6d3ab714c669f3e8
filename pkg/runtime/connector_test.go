package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/dbfirst/pkg/discovery"
)

func TestConnectorFor(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{driver: "postgres", want: discovery.ConnectorPostgres},
		{driver: "pgx", want: discovery.ConnectorPostgres},
		{driver: "mysql", want: discovery.ConnectorMySQL},
		{driver: "sqlite3", want: discovery.ConnectorSQLite},
		{driver: "oracle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := ConnectorFor(tt.driver)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithSSLModeDisabled(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost/db":                 "postgres://u:p@localhost/db?sslmode=disable",
		"postgres://u:p@localhost/db?timeout=5":       "postgres://u:p@localhost/db?timeout=5&sslmode=disable",
		"postgres://u:p@localhost/db?sslmode=require": "postgres://u:p@localhost/db?sslmode=require",
		"host=localhost dbname=db":                    "host=localhost dbname=db",
	}
	for in, want := range tests {
		assert.Equal(t, want, withSSLModeDisabled(in), in)
	}
}

func TestConnect(t *testing.T) {
	_, err := Connect(DriverSQLite, "")
	require.EqualError(t, err, "DSN is empty")

	_, err = Connect("oracle", "whatever")
	require.Error(t, err)

	db, err := Connect(DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.PingContext(context.Background()))
}
