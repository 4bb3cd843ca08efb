package sqlsource

import (
	"context"
	"fmt"

	"github.com/nicobailon/remotegrid/internal/remote"
)

const schema = `
CREATE TABLE IF NOT EXISTS customers (
	ID INTEGER PRIMARY KEY,
	NAME TEXT NOT NULL DEFAULT '',
	CITY TEXT
);
CREATE TABLE IF NOT EXISTS orders (
	ID INTEGER PRIMARY KEY,
	PRODUCT TEXT,
	QUANTITY INTEGER,
	ORDERED DATE,
	STATUS TEXT,
	PAID BOOLEAN NOT NULL DEFAULT 0,
	CUSTOMER_ID INTEGER REFERENCES customers(ID),
	PHOTO BLOB
);`

// Seed creates the demo tables and fills them when they are empty.
func Seed(ctx context.Context, s *Source, orders, customers int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	var n int
	if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM customers"); err != nil {
		return err
	}
	if n > 0 {
		return tx.Commit()
	}

	for _, r := range remote.DemoCustomerRecords(customers) {
		if _, err := tx.NamedExecContext(ctx,
			"INSERT INTO customers (ID, NAME, CITY) VALUES (:ID, :NAME, :CITY)", r.Values); err != nil {
			return fmt.Errorf("seeding customers: %w", err)
		}
	}
	for _, r := range remote.DemoOrderRecords(orders, customers) {
		paid := 0
		if r.Get("PAID") == "Y" {
			paid = 1
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO orders (ID, PRODUCT, QUANTITY, ORDERED, STATUS, PAID, CUSTOMER_ID) VALUES (?, ?, ?, ?, ?, ?, ?)",
			r.Get("ID"), r.Get("PRODUCT"), r.Get("QUANTITY"), r.Get("ORDERED"), r.Get("STATUS"), paid, r.Get("CUSTOMER_ID"))
		if err != nil {
			return fmt.Errorf("seeding orders: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.mu.Lock()
	clear(s.meta)
	s.mu.Unlock()
	return nil
}
