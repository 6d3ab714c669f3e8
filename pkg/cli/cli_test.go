package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/dbfirst/pkg/config"
	"github.com/TechXTT/dbfirst/pkg/runtime"
)

// project creates a SQLite database and a LoopBack layout in a temp dir and
// makes it the working directory.
func project(t *testing.T) (dir, dbPath string) {
	t.Helper()
	dir = t.TempDir()
	t.Chdir(dir)

	dbPath = filepath.Join(dir, "shop.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
CREATE TABLE customer (id INTEGER PRIMARY KEY, full_name TEXT NOT NULL);
CREATE TABLE purchase_order (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customer(id)
);
CREATE TABLE audit_log (id INTEGER PRIMARY KEY, message TEXT);
`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "server"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "server", "model-config.json"),
		[]byte(`{"_meta":{"sources":["./models"]}}`), 0o644))
	return dir, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAutomigrateCommand(t *testing.T) {
	dir, dbPath := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFile), []byte(`
driver: sqlite3
data_source: local
public_models: [Customer]
model_meta:
  AuditLog:
    skipCustom: true
`), 0o644))

	out, err := execute(t, "automigrate", "--dsn", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote    Customer\n")
	assert.Contains(t, out, "wrote    PurchaseOrder\n")
	assert.Contains(t, out, "bound    AuditLog\n")
	assert.Contains(t, out, "automigrate: 2 written, 0 deleted, 0 failed\n")

	data, err := os.ReadFile(filepath.Join(dir, "server", "model-config.json"))
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, map[string]any{"dataSource": "local", "public": true}, cfg["Customer"])
	assert.Equal(t, map[string]any{"dataSource": "local", "public": false}, cfg["PurchaseOrder"])
	assert.Equal(t, map[string]any{"dataSource": "local", "public": false}, cfg["AuditLog"])

	assert.FileExists(t, filepath.Join(dir, "server", "models", "PurchaseOrder.js"))
	assert.NoFileExists(t, filepath.Join(dir, "server", "models", "AuditLog.json"))

	out, err = execute(t, "automigrate", "--dsn", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted  AuditLog\n")
	assert.Contains(t, out, "automigrate: 2 written, 3 deleted, 0 failed\n")
}

func TestAutoupdateCommand(t *testing.T) {
	dir, dbPath := project(t)

	out, err := execute(t, "autoupdate", "--driver", runtime.DriverSQLite, "--dsn", dbPath, "--public")
	require.NoError(t, err)
	assert.Contains(t, out, "autoupdate: 3 written, 0 deleted, 0 failed\n")

	data, err := os.ReadFile(filepath.Join(dir, "server", "model-config.json"))
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, map[string]any{"dataSource": config.DefaultDataSource, "public": true}, cfg["AuditLog"])
}

func TestAutoupdateCommand_InvalidConfig(t *testing.T) {
	project(t)

	_, err := execute(t, "autoupdate", "--driver", runtime.DriverSQLite)
	require.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "autoupdate", "--driver", "oracle", "--dsn", "x")
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestDiscoverCommand(t *testing.T) {
	_, dbPath := project(t)

	out, err := execute(t, "discover", "--driver", runtime.DriverSQLite, "--dsn", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "purchase_order")
	assert.Contains(t, out, "PurchaseOrder")

	out, err = execute(t, "discover", "--driver", runtime.DriverSQLite, "--dsn", dbPath, "--associations", "purchase_order")
	require.NoError(t, err)
	var schemas map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schemas))
	assert.Contains(t, schemas, "main.purchase_order")
	assert.Contains(t, schemas, "main.customer")
	assert.Equal(t, "PurchaseOrder", schemas["main.purchase_order"]["name"])

	out, err = execute(t, "discover", "--driver", runtime.DriverSQLite, "--dsn", dbPath, "main.customer")
	require.NoError(t, err)
	schemas = nil
	require.NoError(t, json.Unmarshal([]byte(out), &schemas))
	assert.Equal(t, []string{"main.customer"}, slices.Collect(maps.Keys(schemas)))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestOwnerFor(t *testing.T) {
	assert.Equal(t, "shop", ownerFor(&config.Config{Driver: runtime.DriverMySQL, DSN: "user:pw@tcp(localhost:3306)/shop"}))
	assert.Equal(t, "other", ownerFor(&config.Config{Driver: runtime.DriverMySQL, DSN: "user:pw@tcp(localhost:3306)/shop", Database: "other"}))
	assert.Empty(t, ownerFor(&config.Config{Driver: runtime.DriverPostgres, DSN: "postgres://localhost/shop"}))
}
