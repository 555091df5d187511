package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/dashboard"
	"pharmapos/m/internal/ledger"
	"pharmapos/m/internal/sales"
	"pharmapos/m/internal/store/storetest"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.July, 14, 16, 45, 0, 0, time.UTC)
	today := domain.DateOf(now)
	clk := clock.NewFixed(now)
	s := storetest.New(t)
	rec := sales.New(s, ledger.New(s, clk, zap.NewNop()), clk, zap.NewNop())

	staff := storetest.Staff(t, s, "ana")
	syrup := storetest.Product(t, s, "Syrup", "4.50", 2)
	tabs := storetest.Product(t, s, "Tablets", "1.25", 0)
	storetest.Lot(t, s, syrup.ID, "S1", 3, today.AddDays(10))
	storetest.Lot(t, s, syrup.ID, "S0", 8, today.AddDays(-2))
	storetest.Lot(t, s, tabs.ID, "T1", 100, today.AddDays(40))
	storetest.Lot(t, s, tabs.ID, "T2", 100, today)

	_, err := rec.RecordSale(ctx, sales.Request{
		Items:    []sales.Line{{ProductID: syrup.ID, Quantity: 2}, {ProductID: tabs.ID, Quantity: 4}},
		Tendered: decimal.NewFromInt(20),
		StaffID:  staff.ID,
	})
	require.NoError(t, err)

	d := dashboard.New(s, rec, clk, 30)
	sum, err := d.Today(ctx)
	require.NoError(t, err)
	assert.True(t, sum.Day.Equal(today))
	assert.Equal(t, int64(1), sum.SalesCount)
	assert.True(t, decimal.RequireFromString("14.00").Equal(sum.Revenue))
	assert.Equal(t, 1, sum.LowStock)
	assert.Equal(t, int64(1), sum.ExpiredLots)
	assert.Equal(t, int64(1), sum.ExpiringLots)
	assert.Equal(t, 30, sum.ExpiryWindow)

	yesterday, err := d.Summary(ctx, today.AddDays(-1))
	require.NoError(t, err)
	assert.Zero(t, yesterday.SalesCount)
	assert.True(t, yesterday.Revenue.IsZero())
}
