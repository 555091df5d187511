// Package storetest opens migrated in-memory databases for tests.
package storetest

import (
	"context"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/store"
)

// Open returns a fresh in-memory sqlite database with the schema applied.
// Each test gets its own database named after the test.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(context.Background(), db))
	return db
}

// New returns a Store over a fresh database.
func New(t *testing.T) *store.Store {
	t.Helper()
	return store.New(Open(t))
}

// Product inserts a product with the given sale price and threshold.
func Product(t *testing.T, s *store.Store, name string, salePrice string, threshold int64) domain.Product {
	t.Helper()
	p := domain.Product{
		Name:             name,
		SalePrice:        decimal.RequireFromString(salePrice),
		ReorderThreshold: threshold,
	}
	require.NoError(t, s.InsertProduct(context.Background(), &p))
	return p
}

// Lot inserts a lot for the product.
func Lot(t *testing.T, s *store.Store, productID int64, number string, qty int64, expires domain.Date) domain.Lot {
	t.Helper()
	l := domain.Lot{ProductID: productID, LotNumber: number, Quantity: qty, ExpirationDate: expires}
	require.NoError(t, s.InsertLot(context.Background(), &l))
	return l
}

// Staff inserts a pharmacist account with a placeholder hash.
func Staff(t *testing.T, s *store.Store, username string) domain.Staff {
	t.Helper()
	st := domain.Staff{Username: username, FullName: username, Role: domain.RolePharmacist, PasswordHash: "x"}
	require.NoError(t, s.InsertStaff(context.Background(), &st))
	return st
}
