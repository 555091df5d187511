package sales

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// LineTotal is quantity times unitPrice rounded to the cent, the precision
// every amount is stored with.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Round(domain.MoneyPlaces)
}

// Settle sums the line totals and computes the change owed. Change never goes
// below zero, so an underpayment is recorded with zero change.
func Settle(items []domain.SaleItem, tendered decimal.Decimal) (total, change decimal.Decimal) {
	total = decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	total = total.Round(domain.MoneyPlaces)
	change = decimal.Max(decimal.Zero, tendered.Sub(total)).Round(domain.MoneyPlaces)
	return total, change
}

// Demand sums requested quantities per product. Quantities must already be
// positive. A sum that would overflow int64 is reported against the line
// that pushed it over.
func Demand(lines []Line) (map[int64]int64, error) {
	out := make(map[int64]int64, len(lines))
	for i, l := range lines {
		sum := out[l.ProductID]
		if l.Quantity > math.MaxInt64-sum {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].quantity", i), "total for the product is too large")
		}
		out[l.ProductID] = sum + l.Quantity
	}
	return out, nil
}

// DayBounds returns the first and last instant of day in loc.
func DayBounds(day domain.Date, loc *time.Location) (time.Time, time.Time) {
	t := day.Time()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Microsecond)
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func fieldError(field string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Invalid(field, "does not exist")
	}
	return err
}
