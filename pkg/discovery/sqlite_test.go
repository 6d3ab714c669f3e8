package discovery

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteFixture = `
CREATE TABLE customer (
	id INTEGER PRIMARY KEY,
	full_name VARCHAR(80) NOT NULL,
	balance DECIMAL(10,2)
);
CREATE TABLE purchase_order (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER NOT NULL REFERENCES customer(id),
	placed_at DATETIME
);
CREATE VIEW big_spender AS SELECT id, full_name FROM customer WHERE balance > 1000;
`

func newSQLiteSource(t *testing.T) *Source {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(sqliteFixture)
	require.NoError(t, err)

	src, err := NewSource(db, Settings{Name: "local", Connector: ConnectorSQLite}, nil)
	require.NoError(t, err)
	return src
}

func TestSQLite_DiscoverModelDefinitions(t *testing.T) {
	src := newSQLiteSource(t)
	ctx := context.Background()

	tables, err := src.DiscoverModelDefinitions(ctx, ModelListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []ModelSummary{
		{Type: "table", Name: "customer", Owner: "main"},
		{Type: "table", Name: "purchase_order", Owner: "main"},
	}, tables)

	all, err := src.DiscoverModelDefinitions(ctx, ModelListOptions{Views: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ModelSummary{Type: "view", Name: "big_spender", Owner: "main"}, all[0])
}

func TestSQLite_DiscoverSchemas_Associations(t *testing.T) {
	src := newSQLiteSource(t)

	got, err := src.DiscoverSchemas(context.Background(), "purchase_order",
		SchemaOptions{Relations: true, Associations: true})
	require.NoError(t, err)
	require.Len(t, got, 2)

	order := got["main.purchase_order"]
	require.NotNil(t, order)
	assert.Equal(t, "PurchaseOrder", order.Name)
	assert.Equal(t, 1, order.Properties["id"].ID)
	assert.True(t, order.Properties["customerId"].Required)
	assert.Equal(t, "Date", order.Properties["placedAt"].Type)
	assert.Equal(t, map[string]*Relation{
		"customer": {Model: "Customer", Type: "belongsTo", ForeignKey: "customerId"},
	}, order.Relations)

	customer := got["main.customer"]
	require.NotNil(t, customer)
	assert.Equal(t, "Customer", customer.Name)
	assert.Equal(t, int64p(80), customer.Properties["fullName"].Length)
	assert.Equal(t, "varchar", customer.Properties["fullName"].Column.DataType)
	assert.Equal(t, int64p(10), customer.Properties["balance"].Precision)
	assert.Equal(t, int64p(2), customer.Properties["balance"].Scale)
	assert.False(t, customer.Properties["balance"].Required)
}

func TestSQLite_DiscoverSchemas_Missing(t *testing.T) {
	src := newSQLiteSource(t)
	_, err := src.DiscoverSchemas(context.Background(), "nope", SchemaOptions{})
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestSQLite_DiscoverSchemas_TwoKeysToSameTable(t *testing.T) {
	src := newSQLiteSource(t)
	_, err := src.db.Exec(`
CREATE TABLE users (id INTEGER PRIMARY KEY);
CREATE TABLE doc (
	id INTEGER PRIMARY KEY,
	created_by INTEGER REFERENCES users(id),
	updated_by INTEGER REFERENCES users(id),
	customer_id INTEGER REFERENCES customer(id)
);`)
	require.NoError(t, err)

	got, err := src.DiscoverSchemas(context.Background(), "doc", SchemaOptions{Relations: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]*Relation{
		"createdByRel": {Model: "Users", Type: "belongsTo", ForeignKey: "createdBy"},
		"updatedByRel": {Model: "Users", Type: "belongsTo", ForeignKey: "updatedBy"},
		"customer":     {Model: "Customer", Type: "belongsTo", ForeignKey: "customerId"},
	}, got["main.doc"].Relations)
}
