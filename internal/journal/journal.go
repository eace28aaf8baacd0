// Package journal persists order submissions and their outcomes in a
// local SQLite database so past runs can be inspected later.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS orders (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_order_id TEXT,
    order_id INTEGER NOT NULL DEFAULT 0,
    symbol TEXT NOT NULL,
    side TEXT NOT NULL,
    type TEXT NOT NULL,
    quantity TEXT NOT NULL,
    price TEXT,
    status TEXT,
    executed_qty TEXT,
    avg_price TEXT,
    failure_kind TEXT,
    failure_message TEXT,
    attempts INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
`

// Entry is one journalled submission. Decimal values are stored as the
// strings the venue reported so no precision is lost.
type Entry struct {
	ClientOrderID  string
	OrderID        int64
	Symbol         string
	Side           string
	Type           string
	Quantity       string
	Price          string
	Status         string
	ExecutedQty    string
	AvgPrice       string
	FailureKind    string
	FailureMessage string
	Attempts       int
	CreatedAt      time.Time
}

// Succeeded reports whether the entry recorded an accepted order.
func (e Entry) Succeeded() bool {
	return e.FailureKind == ""
}

// Journal wraps the SQLite handle used to record submissions.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path and
// applies the schema.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path is empty")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite prefers a single writer.
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database. Safe on a nil journal.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record inserts one entry. A zero CreatedAt is stamped with the
// current UTC time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO orders (client_order_id, order_id, symbol, side, type, quantity,
		                    price, status, executed_qty, avg_price, failure_kind,
		                    failure_message, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ClientOrderID, e.OrderID, e.Symbol, e.Side, e.Type, e.Quantity,
		e.Price, e.Status, e.ExecutedQty, e.AvgPrice, e.FailureKind,
		e.FailureMessage, e.Attempts, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT client_order_id, order_id, symbol, side, type, quantity,
		       COALESCE(price, ''), COALESCE(status, ''), COALESCE(executed_qty, ''),
		       COALESCE(avg_price, ''), COALESCE(failure_kind, ''),
		       COALESCE(failure_message, ''), attempts, created_at
		FROM orders
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ClientOrderID, &e.OrderID, &e.Symbol, &e.Side, &e.Type,
			&e.Quantity, &e.Price, &e.Status, &e.ExecutedQty, &e.AvgPrice,
			&e.FailureKind, &e.FailureMessage, &e.Attempts, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
