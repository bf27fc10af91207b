package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SampleTables are the tables that may be sampled by name.
var SampleTables = []string{"customers", "products", "orders", "order_items"}

var (
	ErrNotSelect    = errors.New("Only SELECT queries are allowed.")
	ErrDDL          = errors.New("DDL statements (DROP, ALTER, CREATE, TRUNCATE) aren't allowed.")
	ErrUnknownTable = fmt.Errorf("Table must be one of %v", SampleTables)
)

// QueryResult is a tabular query outcome. Cells hold int64, float64,
// string or nil.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// SalesDB is the read-only sample database the assistant answers from.
type SalesDB struct {
	db     *sql.DB
	schema tableSchema
}

// OpenSalesDB opens the database at dbPath and seeds it if it is empty.
// Seeding is deterministic for a given seed and now.
func OpenSalesDB(dbPath string, seed uint64, now time.Time) (*SalesDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SalesDB{db: db}
	if err := s.initialize(seed, now); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if s.schema, err = s.loadSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return s, nil
}

func (s *SalesDB) initialize(seed uint64, now time.Time) error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		city TEXT,
		country TEXT,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		price REAL NOT NULL,
		stock_quantity INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		order_date TEXT NOT NULL,
		status TEXT NOT NULL,
		amount_sum REAL NOT NULL
	);
	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES orders(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		subsum REAL NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.seed(seed, now)
}

type seedCustomer struct {
	name, email, phone, city, country string
}

type seedProduct struct {
	name, category string
	price          float64
	stock          int
}

var seedCustomers = []seedCustomer{
	{"Acme Corporation", "contact@acme.com", "+1-555-0101", "New York", "USA"},
	{"Global Tech Solutions", "info@globaltech.com", "+1-555-0102", "San Francisco", "USA"},
	{"European Imports Ltd", "sales@euroimports.com", "+44-20-5550103", "London", "UK"},
	{"Asia Pacific Trading", "orders@aptrading.com", "+65-5550104", "Singapore", "Singapore"},
	{"Midwest Manufacturing", "purchasing@midwest.com", "+1-555-0105", "Chicago", "USA"},
	{"Coastal Distributors", "info@coastal.com", "+1-555-0106", "Miami", "USA"},
	{"Northern Enterprises", "contact@northern.com", "+1-555-0107", "Toronto", "Canada"},
	{"Southern Supplies Co", "sales@southern.com", "+1-555-0108", "Atlanta", "USA"},
	{"Pacific Rim Industries", "orders@pacificrim.com", "+61-2-5550109", "Sydney", "Australia"},
	{"Alpine Trading GmbH", "info@alpine.de", "+49-89-5550110", "Munich", "Germany"},
}

var seedProducts = []seedProduct{
	{`Laptop Pro 15"`, "Electronics", 1299.99, 45},
	{"Wireless Mouse", "Electronics", 29.99, 200},
	{"USB-C Hub", "Electronics", 49.99, 150},
	{"Office Chair Deluxe", "Furniture", 399.99, 30},
	{"Standing Desk", "Furniture", 599.99, 25},
	{`Monitor 27" 4K`, "Electronics", 449.99, 60},
	{"Keyboard Mechanical", "Electronics", 129.99, 100},
	{"Desk Lamp LED", "Furniture", 79.99, 80},
	{"Webcam HD", "Electronics", 89.99, 120},
	{"Headphones Noise-Canceling", "Electronics", 249.99, 75},
	{`Tablet 10"`, "Electronics", 499.99, 50},
	{"Printer All-in-One", "Electronics", 299.99, 40},
	{"Paper A4 (500 sheets)", "Office Supplies", 8.99, 500},
	{"Pen Set (12 pack)", "Office Supplies", 12.99, 300},
	{"Bundle", "Office Supplies", 19.99, 250},
}

var orderStatuses = []string{"completed", "completed", "completed", "completed", "processing", "shipped"}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *SalesDB) seed(seed uint64, now time.Time) error {
	rng := rand.New(rand.NewPCG(seed, seed))
	base := now.AddDate(0, 0, -365)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, c := range seedCustomers {
		created := base.AddDate(0, 0, i*30)
		if _, err := tx.Exec(
			`INSERT INTO customers (name, email, phone, city, country, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.name, c.email, c.phone, c.city, c.country, created.Format(TimestampLayout),
		); err != nil {
			return fmt.Errorf("failed to seed customers: %w", err)
		}
	}

	for i, p := range seedProducts {
		created := base.AddDate(0, 0, i*5)
		if _, err := tx.Exec(
			`INSERT INTO products (name, category, price, stock_quantity, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.name, p.category, p.price, p.stock, created.Format(TimestampLayout),
		); err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
	}

	orderID := int64(1)
	for daysAgo := 180; daysAgo > 0; daysAgo -= 7 {
		for range 2 + rng.IntN(4) {
			customerID := 1 + rng.IntN(len(seedCustomers))
			orderDate := now.AddDate(0, 0, -(daysAgo + rng.IntN(7)))
			status := orderStatuses[rng.IntN(len(orderStatuses))]

			picks := rng.Perm(len(seedProducts))[:1+rng.IntN(5)]
			type item struct {
				productID, quantity int
				unitPrice, subsum   float64
			}
			items := make([]item, 0, len(picks))
			total := 0.0
			for _, p := range picks {
				quantity := 1 + rng.IntN(10)
				price := seedProducts[p].price
				subsum := price * float64(quantity)
				total += subsum
				items = append(items, item{p + 1, quantity, price, round2(subsum)})
			}

			if _, err := tx.Exec(
				`INSERT INTO orders (id, customer_id, order_date, status, amount_sum) VALUES (?, ?, ?, ?, ?)`,
				orderID, customerID, orderDate.Format(TimestampLayout), status, round2(total),
			); err != nil {
				return fmt.Errorf("failed to seed orders: %w", err)
			}
			for _, it := range items {
				if _, err := tx.Exec(
					`INSERT INTO order_items (order_id, product_id, quantity, unit_price, subsum) VALUES (?, ?, ?, ?, ?)`,
					orderID, it.productID, it.quantity, it.unitPrice, it.subsum,
				); err != nil {
					return fmt.Errorf("failed to seed order items: %w", err)
				}
			}
			orderID++
		}
	}

	return tx.Commit()
}

// ValidateQuery accepts only read-only SELECT statements.
func ValidateQuery(query string) error {
	upper := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(upper, "SELECT") {
		return ErrNotSelect
	}
	for _, keyword := range strings.FieldsFunc(upper, func(r rune) bool {
		return !(r == '_' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		switch keyword {
		case "DROP", "ALTER", "CREATE", "TRUNCATE":
			return ErrDDL
		case "INSERT", "UPDATE", "DELETE", "REPLACE", "ATTACH", "PRAGMA":
			return ErrNotSelect
		}
	}
	return nil
}

// Query runs a SELECT statement after checking it is read-only and only
// names tables and columns that exist.
func (s *SalesDB) Query(ctx context.Context, query string) (*QueryResult, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}
	if err := s.schema.checkSchema(query); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SQL Error: %w", err)
	}
	return scanResult(rows)
}

// Sample returns the first limit rows of one of SampleTables.
func (s *SalesDB) Sample(ctx context.Context, table string, limit int) (*QueryResult, error) {
	if !slices.Contains(SampleTables, table) {
		return nil, ErrUnknownTable
	}
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT ?", table), limit)
	if err != nil {
		return nil, fmt.Errorf("SQL Error: %w", err)
	}
	return scanResult(rows)
}

// Schema describes every sample table and its columns.
func (s *SalesDB) Schema(ctx context.Context) (string, error) {
	var b strings.Builder
	b.WriteString("Database Schema:\n")
	for _, table := range SampleTables {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\nTable: %s\nColumns:\n", table)
		for rows.Next() {
			var (
				cid       int
				name      string
				colType   string
				notNull   int
				dfltValue sql.NullString
				pk        int
			)
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
				rows.Close()
				return "", err
			}
			fmt.Fprintf(&b, "  - %s: %s", name, colType)
			if pk != 0 {
				b.WriteString(" (PRIMARY KEY)")
			}
			if notNull != 0 {
				b.WriteString(" NOT NULL")
			}
			b.WriteString("\n")
		}
		if err := rows.Close(); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func scanResult(rows *sql.Rows) (*QueryResult, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &QueryResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("SQL Error: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SQL Error: %w", err)
	}
	return result, nil
}

func (s *SalesDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
