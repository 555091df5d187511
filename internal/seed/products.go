// Package seed imports an initial product catalog from CSV.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/store"
)

// columns the catalog file must provide, in any order.
var required = []string{"name", "sale_price"}

// Result counts what an import did.
type Result struct {
	Inserted int
	Skipped  int
	Invalid  int
}

// LoadProductsFile imports the CSV at path. Products whose name already exists
// are left untouched.
func LoadProductsFile(ctx context.Context, st *store.Store, path string, log *zap.Logger) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open product catalog: %w", err)
	}
	defer file.Close()
	return LoadProducts(ctx, st, file, log)
}

// LoadProducts reads a header row followed by one product per row. Columns:
// name, description, unit_price, purchase_price, sale_price, reorder_threshold.
// Rows that fail validation are logged and counted, not fatal.
func LoadProducts(ctx context.Context, st *store.Store, r io.Reader, log *zap.Logger) (Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read product header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return Result{}, fmt.Errorf("product catalog is missing column %q", col)
		}
	}

	var res Result
	today := domain.DateOf(time.Now())
	err = st.InTx(ctx, func(tx *store.Store) error {
		line := 1
		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				log.Warn("unreadable product row", zap.Int("line", line), zap.Error(err))
				res.Invalid++
				continue
			}

			p, err := parseProduct(index, record)
			if err == nil {
				err = p.Validate()
			}
			if err != nil {
				log.Warn("invalid product row", zap.Int("line", line), zap.Error(err))
				res.Invalid++
				continue
			}

			_, err = tx.ProductByName(ctx, p.Name, today)
			switch {
			case err == nil:
				res.Skipped++
				continue
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			if err := tx.InsertProduct(ctx, &p); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			res.Inserted++
		}
	})
	if err != nil {
		return Result{}, err
	}
	log.Info("seeded product catalog",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("invalid", res.Invalid))
	return res, nil
}

func parseProduct(index map[string]int, record []string) (domain.Product, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	money := func(name string) (decimal.Decimal, error) {
		raw := field(name)
		if raw == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, domain.Invalid(name, "is not a number")
		}
		return d, nil
	}

	p := domain.Product{Name: field("name"), Description: field("description")}
	var err error
	if p.UnitPrice, err = money("unit_price"); err != nil {
		return p, err
	}
	if p.PurchasePrice, err = money("purchase_price"); err != nil {
		return p, err
	}
	if p.SalePrice, err = money("sale_price"); err != nil {
		return p, err
	}
	if raw := field("reorder_threshold"); raw != "" {
		if p.ReorderThreshold, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return p, domain.Invalid("reorder_threshold", "is not an integer")
		}
	}
	return p, nil
}
