package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pharmapos/m/domain"
)

// Store persists products, lots, sales, clients and staff. A Store obtained
// from InTx runs every statement on that transaction.
type Store struct {
	db       *sqlx.DB
	ext      sqlx.ExtContext
	postgres bool
}

// New wraps an open database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, ext: db, postgres: db.DriverName() == "pgx"}
}

// InTx runs fn inside a transaction and commits when fn returns nil. Nested
// calls reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistence("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{ext: tx, postgres: s.postgres}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit transaction", err)
	}
	return nil
}

func (s *Store) rebind(query string) string {
	if s.postgres {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

// forUpdate locks selected rows until the transaction ends where the database
// supports it; sqlite already serialises writers.
func (s *Store) forUpdate() string {
	if s.postgres {
		return " FOR UPDATE"
	}
	return ""
}

func (s *Store) get(ctx context.Context, op string, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, s.ext, dest, s.rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return persistence(op, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, op string, dest any, query string, args ...any) error {
	if err := sqlx.SelectContext(ctx, s.ext, dest, s.rebind(query), args...); err != nil {
		return persistence(op, err)
	}
	return nil
}

// exec runs a statement and reports ErrNotFound when it touched no row.
func (s *Store) exec(ctx context.Context, op string, query string, args ...any) error {
	res, err := s.ext.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return persistence(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistence(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, op string, query string, args ...any) (int64, error) {
	var id int64
	if err := s.ext.QueryRowxContext(ctx, s.rebind(query), args...).Scan(&id); err != nil {
		return 0, persistence(op, err)
	}
	return id, nil
}

// persistence wraps a driver error. Constraint violations surface as
// ErrConflict so callers can tell them from outages.
func persistence(op string, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func isConstraintViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23503"
	}
	return false
}

const stampLayout = "2006-01-02T15:04:05.000000Z"

// stamp stores instants as fixed-width UTC text so that sqlite compares them
// in time order; postgres TIMESTAMPTZ columns accept the same text.
type stamp time.Time

func (t stamp) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(stampLayout), nil
}

func (t *stamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = stamp(v)
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *stamp) parse(s string) error {
	parsed, err := time.Parse(stampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*t = stamp(parsed)
	return nil
}
