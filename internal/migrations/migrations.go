package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS staff (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            full_name TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL,
            password_hash TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS clients (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            search_key TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS products (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE,
            description TEXT NOT NULL DEFAULT '',
            search_key TEXT NOT NULL DEFAULT '',
            unit_price TEXT NOT NULL DEFAULT '0',
            purchase_price TEXT NOT NULL DEFAULT '0',
            sale_price TEXT NOT NULL DEFAULT '0',
            reorder_threshold INTEGER NOT NULL DEFAULT 0
        );`,
	`CREATE TABLE IF NOT EXISTS lots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            product_id INTEGER NOT NULL,
            lot_number TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            expiration_date TEXT NOT NULL,
            received_on TEXT,
            FOREIGN KEY(product_id) REFERENCES products(id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_lots_product_expiration ON lots(product_id, expiration_date);`,
	`CREATE TABLE IF NOT EXISTS sales (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL UNIQUE,
            staff_id INTEGER NOT NULL,
            client_id INTEGER,
            total TEXT NOT NULL,
            tendered TEXT NOT NULL,
            change_due TEXT NOT NULL,
            created_at TEXT NOT NULL,
            FOREIGN KEY(staff_id) REFERENCES staff(id),
            FOREIGN KEY(client_id) REFERENCES clients(id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_sales_client ON sales(client_id);`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            sale_id INTEGER NOT NULL,
            position INTEGER NOT NULL,
            product_id INTEGER NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            unit_price TEXT NOT NULL,
            line_total TEXT NOT NULL,
            FOREIGN KEY(sale_id) REFERENCES sales(id),
            FOREIGN KEY(product_id) REFERENCES products(id)
        );`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS staff (
            id BIGSERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            full_name TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL,
            password_hash TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS clients (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            search_key TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS products (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            description TEXT NOT NULL DEFAULT '',
            search_key TEXT NOT NULL DEFAULT '',
            unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            purchase_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            sale_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            reorder_threshold BIGINT NOT NULL DEFAULT 0
        );`,
	`CREATE TABLE IF NOT EXISTS lots (
            id BIGSERIAL PRIMARY KEY,
            product_id BIGINT NOT NULL REFERENCES products(id),
            lot_number TEXT NOT NULL,
            quantity BIGINT NOT NULL CHECK (quantity >= 0),
            expiration_date DATE NOT NULL,
            received_on DATE
        );`,
	`CREATE INDEX IF NOT EXISTS idx_lots_product_expiration ON lots(product_id, expiration_date);`,
	`CREATE TABLE IF NOT EXISTS sales (
            id BIGSERIAL PRIMARY KEY,
            reference TEXT NOT NULL UNIQUE,
            staff_id BIGINT NOT NULL REFERENCES staff(id),
            client_id BIGINT REFERENCES clients(id),
            total NUMERIC(12,2) NOT NULL,
            tendered NUMERIC(12,2) NOT NULL,
            change_due NUMERIC(12,2) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_sales_client ON sales(client_id);`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id BIGSERIAL PRIMARY KEY,
            sale_id BIGINT NOT NULL REFERENCES sales(id),
            position INTEGER NOT NULL,
            product_id BIGINT NOT NULL REFERENCES products(id),
            quantity BIGINT NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(12,2) NOT NULL,
            line_total NUMERIC(12,2) NOT NULL
        );`,
}

// Run creates the schema for the connected driver. Statements are idempotent.
func Run(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "pgx" {
		schema = postgresSchema
	}
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
