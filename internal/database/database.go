package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"pharmapos/m/internal/config"
)

// Connect opens the configured database: modernc sqlite ("sqlite") or
// PostgreSQL through pgx ("pgx").
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection keeps transactions from
		// failing with SQLITE_BUSY and keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}
