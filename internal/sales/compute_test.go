package sales

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/m/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSettle(t *testing.T) {
	items := []domain.SaleItem{
		{Quantity: 3, UnitPrice: dec("10.00"), LineTotal: LineTotal(3, dec("10.00"))},
		{Quantity: 1, UnitPrice: dec("5.00"), LineTotal: LineTotal(1, dec("5.00"))},
	}

	tests := []struct {
		tendered string
		change   string
	}{
		{"40.00", "5.00"},
		{"35.00", "0"},
		{"30.00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.tendered, func(t *testing.T) {
			total, change := Settle(items, dec(tt.tendered))
			assert.True(t, dec("35.00").Equal(total), "total %s", total)
			assert.True(t, dec(tt.change).Equal(change), "change %s", change)
		})
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		quantity int64
		price    string
		want     string
	}{
		{3, "0.33", "0.99"},
		{3, "0.125", "0.38"},
		{7, "1.99", "13.93"},
		{1, "0.005", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got := LineTotal(tt.quantity, dec(tt.price))
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.True(t, got.Equal(got.Round(domain.MoneyPlaces)))
		})
	}
}

func TestDemand(t *testing.T) {
	t.Run("sums per product", func(t *testing.T) {
		got, err := Demand([]Line{{ProductID: 2, Quantity: 1}, {ProductID: 1, Quantity: 4}, {ProductID: 2, Quantity: 5}})
		require.NoError(t, err)
		assert.Equal(t, map[int64]int64{1: 4, 2: 6}, got)
	})

	t.Run("largest total that fits", func(t *testing.T) {
		got, err := Demand([]Line{{ProductID: 1, Quantity: math.MaxInt64 - 1}, {ProductID: 1, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), got[1])
	})

	t.Run("overflowing total is invalid", func(t *testing.T) {
		_, err := Demand([]Line{
			{ProductID: 1, Quantity: 1 << 62},
			{ProductID: 2, Quantity: 1 << 62},
			{ProductID: 1, Quantity: 1 << 62},
		})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "items[2].quantity", verr.Field)
	})
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	start, end := DayBounds(domain.NewDate(2026, time.June, 1), loc)
	assert.Equal(t, time.Date(2026, time.May, 31, 21, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2026, time.June, 1, 20, 59, 59, 999999000, time.UTC), end.UTC())
}
