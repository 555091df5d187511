package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. Stock and BelowThreshold are derived from the
// product's non-expired lots when the product is read.
type Product struct {
	ID               int64           `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	Description      string          `db:"description" json:"description"`
	UnitPrice        decimal.Decimal `db:"unit_price" json:"unit_price"`
	PurchasePrice    decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	SalePrice        decimal.Decimal `db:"sale_price" json:"sale_price"`
	ReorderThreshold int64           `db:"reorder_threshold" json:"reorder_threshold"`
	Stock            int64           `db:"stock" json:"stock"`
	BelowThreshold   bool            `db:"-" json:"below_threshold"`
}

// Validate checks the fields a product must carry before it is stored.
func (p Product) Validate() error {
	switch {
	case p.Name == "":
		return Invalid("name", "is required")
	case p.ReorderThreshold < 0:
		return Invalid("reorder_threshold", "must not be negative")
	}
	for _, price := range []struct {
		field string
		value decimal.Decimal
	}{
		{"unit_price", p.UnitPrice},
		{"purchase_price", p.PurchasePrice},
		{"sale_price", p.SalePrice},
	} {
		if err := ValidPrice(price.field, price.value); err != nil {
			return err
		}
	}
	return nil
}

// MoneyPlaces is the number of decimal places stored for every amount.
const MoneyPlaces = 2

// ValidPrice rejects negative amounts and amounts finer than a cent.
func ValidPrice(field string, d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return Invalid(field, "must not be negative")
	case !d.Equal(d.Round(MoneyPlaces)):
		return Invalid(field, "must have at most 2 decimal places")
	}
	return nil
}
