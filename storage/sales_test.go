package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestSales(t *testing.T) *SalesDB {
	t.Helper()
	db, err := OpenSalesDB(filepath.Join(t.TempDir(), "sales.db"), 42, seedTime)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSalesDBSeeded(t *testing.T) {
	db := openTestSales(t)
	ctx := context.Background()

	res, err := db.Query(ctx, "SELECT COUNT(*) AS n FROM customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, res.Columns)
	assert.Equal(t, [][]any{{int64(10)}}, res.Rows)

	res, err = db.Query(ctx, "SELECT COUNT(*) FROM products")
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Rows[0][0])

	res, err = db.Query(ctx, "SELECT COUNT(*) FROM orders")
	require.NoError(t, err)
	n := res.Rows[0][0].(int64)
	// 26 weeks with two to five orders each
	assert.GreaterOrEqual(t, n, int64(52))
	assert.LessOrEqual(t, n, int64(130))

	res, err = db.Query(ctx, `
		SELECT COUNT(*) FROM orders o
		WHERE ABS(o.amount_sum - (SELECT SUM(subsum) FROM order_items i WHERE i.order_id = o.id)) > 0.05`)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Rows[0][0], "order totals match their items")
}

func TestSalesDBSeedIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a := openTestSales(t)
	b := openTestSales(t)

	q := "SELECT id, customer_id, status, amount_sum FROM orders ORDER BY id"
	ra, err := a.Query(ctx, q)
	require.NoError(t, err)
	rb, err := b.Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ra.Rows, rb.Rows)
}

func TestSalesDBReopenDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sales.db")

	db, err := OpenSalesDB(path, 1, seedTime)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSalesDB(path, 2, seedTime)
	require.NoError(t, err)
	defer db.Close()

	res, err := db.Query(ctx, "SELECT COUNT(*) FROM customers")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Rows[0][0])
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		query string
		want  error
	}{
		{"SELECT * FROM customers", nil},
		{"  select created_at from products", nil},
		{"SELECT name FROM customers WHERE name LIKE '%update%'", ErrNotSelect},
		{"DELETE FROM customers", ErrNotSelect},
		{"UPDATE products SET price = 0", ErrNotSelect},
		{"SELECT 1; DROP TABLE customers", ErrDDL},
		{"SELECT 1; CREATE TABLE x(id)", ErrDDL},
		{"WITH x AS (SELECT 1) SELECT * FROM x", ErrNotSelect},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateQuery(tt.query), tt.query)
	}
}

func TestQueryErrors(t *testing.T) {
	db := openTestSales(t)
	ctx := context.Background()

	_, err := db.Query(ctx, "DROP TABLE customers")
	assert.ErrorIs(t, err, ErrNotSelect)

	_, err = db.Query(ctx, "SELECT name FROM customers WHERE nope = 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQL Error:")
}

func TestQueryChecksSchema(t *testing.T) {
	db := openTestSales(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown table", "SELECT * FROM invoices", "Table 'invoices' doesn't exist in schema. Available tables: customers, order_items, orders, products"},
		{"unknown joined table", "SELECT c.name FROM customers c JOIN invoices i ON i.customer_id = c.id", "Table 'invoices' doesn't exist"},
		{"unknown column", "SELECT nope FROM customers", "Column 'nope' missing in queried tables. Available columns: id, name, email"},
		{"unknown qualified column", "SELECT c.revenue AS r FROM customers c", "Column 'revenue' missing"},
		{"no from clause", "SELECT 1", "Couldn't parse FROM clause in query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Query(ctx, tt.query)
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, schemaErr.Message, tt.want)
		})
	}
}

func TestQueryAcceptsKnownNames(t *testing.T) {
	db := openTestSales(t)
	ctx := context.Background()

	for _, q := range []string{
		"SELECT c.*, o.id FROM customers c, orders o WHERE o.customer_id = c.id LIMIT 1",
		"SELECT DISTINCT country FROM customers",
		"SELECT name customer_name, created_at FROM customers",
		"SELECT p.category, SUM(oi.subsum) AS total FROM order_items oi JOIN products p ON p.id = oi.product_id GROUP BY p.category",
		"SELECT name, (SELECT COUNT(*) FROM orders WHERE customer_id = customers.id) AS n FROM customers",
		`SELECT "name" FROM customers WHERE city = 'New York'`,
	} {
		_, err := db.Query(ctx, q)
		assert.NoError(t, err, q)
	}
}

func TestSample(t *testing.T) {
	db := openTestSales(t)
	ctx := context.Background()

	res, err := db.Sample(ctx, "products", 3)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, []string{"id", "name", "category", "price", "stock_quantity", "created_at"}, res.Columns)
	assert.Equal(t, "Laptop Pro 15\"", res.Rows[0][1])
	assert.Equal(t, 1299.99, res.Rows[0][3])

	res, err = db.Sample(ctx, "customers", 0)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 5)

	_, err = db.Sample(ctx, "sqlite_master", 5)
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestSchema(t *testing.T) {
	schema, err := openTestSales(t).Schema(context.Background())
	require.NoError(t, err)
	assert.Contains(t, schema, "Table: order_items")
	assert.Contains(t, schema, "  - id: INTEGER (PRIMARY KEY)")
	assert.Contains(t, schema, "  - name: TEXT NOT NULL")
}
