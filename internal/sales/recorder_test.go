package sales_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/ledger"
	"pharmapos/m/internal/sales"
	"pharmapos/m/internal/store"
	"pharmapos/m/internal/store/storetest"
)

var now = time.Date(2026, time.April, 20, 11, 0, 0, 0, time.UTC)

type fixture struct {
	rec    *sales.Recorder
	ledger *ledger.Ledger
	store  *store.Store
	clock  *clock.Fixed
	staff  domain.Staff
	a, b   domain.Product
}

func setup(t *testing.T) fixture {
	t.Helper()
	s := storetest.New(t)
	clk := clock.NewFixed(now)
	l := ledger.New(s, clk, zap.NewNop())
	f := fixture{
		rec:    sales.New(s, l, clk, zap.NewNop()),
		ledger: l,
		store:  s,
		clock:  clk,
		staff:  storetest.Staff(t, s, "pharma"),
		a:      storetest.Product(t, s, "Product A", "12.00", 0),
		b:      storetest.Product(t, s, "Product B", "5.00", 0),
	}
	today := domain.DateOf(now)
	storetest.Lot(t, s, f.a.ID, "A-late", 10, today.AddDays(60))
	storetest.Lot(t, s, f.a.ID, "A-early", 2, today.AddDays(5))
	storetest.Lot(t, s, f.b.ID, "B-1", 1, today.AddDays(30))
	return f
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f fixture) available(t *testing.T, productID int64) int64 {
	t.Helper()
	n, err := f.ledger.TotalAvailable(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func TestRecordSale(t *testing.T) {
	ctx := context.Background()

	t.Run("totals, change and depletion", func(t *testing.T) {
		f := setup(t)
		sale, err := f.rec.RecordSale(ctx, sales.Request{
			Items: []sales.Line{
				{ProductID: f.a.ID, Quantity: 3, UnitPrice: price("10.00")},
				{ProductID: f.b.ID, Quantity: 1, UnitPrice: price("5.00")},
			},
			Tendered: decimal.RequireFromString("40.00"),
			StaffID:  f.staff.ID,
		})
		require.NoError(t, err)
		assert.NotZero(t, sale.ID)
		assert.NotEmpty(t, sale.Reference)
		assert.True(t, decimal.RequireFromString("35.00").Equal(sale.Total))
		assert.True(t, decimal.RequireFromString("5.00").Equal(sale.Change))
		assert.Equal(t, now, sale.CreatedAt)
		require.Len(t, sale.Items, 2)
		assert.Equal(t, 1, sale.Items[0].Position)
		assert.True(t, decimal.RequireFromString("30.00").Equal(sale.Items[0].LineTotal))

		assert.Equal(t, int64(9), f.available(t, f.a.ID))
		assert.Zero(t, f.available(t, f.b.ID))

		lots, err := f.ledger.LotsForProduct(ctx, f.a.ID)
		require.NoError(t, err)
		require.Len(t, lots, 2)
		assert.Equal(t, "A-early", lots[0].LotNumber)
		assert.Zero(t, lots[0].Quantity)
		assert.Equal(t, int64(9), lots[1].Quantity)

		stored, err := f.rec.SaleByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, sale.Reference, stored.Reference)
		assert.Len(t, stored.Items, 2)
	})

	t.Run("underpayment clamps change to zero", func(t *testing.T) {
		f := setup(t)
		sale, err := f.rec.RecordSale(ctx, sales.Request{
			Items: []sales.Line{
				{ProductID: f.a.ID, Quantity: 3, UnitPrice: price("10.00")},
				{ProductID: f.b.ID, Quantity: 1, UnitPrice: price("5.00")},
			},
			Tendered: decimal.RequireFromString("30.00"),
			StaffID:  f.staff.ID,
		})
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("35.00").Equal(sale.Total))
		assert.True(t, sale.Change.IsZero())
	})

	t.Run("omitted price uses the catalog price", func(t *testing.T) {
		f := setup(t)
		sale, err := f.rec.RecordSale(ctx, sales.Request{
			Items:    []sales.Line{{ProductID: f.a.ID, Quantity: 2}},
			Tendered: decimal.RequireFromString("24.00"),
			StaffID:  f.staff.ID,
		})
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("24.00").Equal(sale.Total))
	})

	t.Run("repeated product lines deplete the summed quantity", func(t *testing.T) {
		f := setup(t)
		_, err := f.rec.RecordSale(ctx, sales.Request{
			Items: []sales.Line{
				{ProductID: f.a.ID, Quantity: 2},
				{ProductID: f.a.ID, Quantity: 5},
			},
			StaffID: f.staff.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), f.available(t, f.a.ID))
	})

	t.Run("returned sale matches the stored sale", func(t *testing.T) {
		f := setup(t)
		sale, err := f.rec.RecordSale(ctx, sales.Request{
			Items: []sales.Line{
				{ProductID: f.a.ID, Quantity: 3, UnitPrice: price("0.33")},
				{ProductID: f.a.ID, Quantity: 7, UnitPrice: price("1.99")},
			},
			Tendered: decimal.RequireFromString("20"),
			StaffID:  f.staff.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "14.92", sale.Total.StringFixed(2))
		assert.Equal(t, "5.08", sale.Change.StringFixed(2))

		stored, err := f.rec.SaleByID(ctx, sale.ID)
		require.NoError(t, err)
		assertSameSale(t, sale, stored)
	})

	t.Run("empty sale persists nothing", func(t *testing.T) {
		f := setup(t)
		_, err := f.rec.RecordSale(ctx, sales.Request{StaffID: f.staff.ID})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "items", verr.Field)

		all, err := f.rec.SalesInRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("shortfall rolls the whole sale back", func(t *testing.T) {
		f := setup(t)
		_, err := f.rec.RecordSale(ctx, sales.Request{
			Items: []sales.Line{
				{ProductID: f.a.ID, Quantity: 4},
				{ProductID: f.b.ID, Quantity: 3},
			},
			StaffID: f.staff.ID,
		})
		var short *domain.InsufficientStockError
		require.ErrorAs(t, err, &short)
		require.Len(t, short.Shortfalls, 1)
		assert.Equal(t, domain.Shortfall{ProductID: f.b.ID, Requested: 3, Available: 1, Missing: 2}, short.Shortfalls[0])

		assert.Equal(t, int64(12), f.available(t, f.a.ID))
		assert.Equal(t, int64(1), f.available(t, f.b.ID))
		all, err := f.rec.SalesInRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	invalid := []struct {
		name  string
		req   func(f fixture) sales.Request
		field string
	}{
		{"zero quantity", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID}}, StaffID: f.staff.ID}
		}, "items[0].quantity"},
		{"negative price", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1, UnitPrice: price("-1")}}, StaffID: f.staff.ID}
		}, "items[0].unit_price"},
		{"unit price below a cent", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 3, UnitPrice: price("0.125")}}, StaffID: f.staff.ID}
		}, "items[0].unit_price"},
		{"tendered below a cent", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1}}, Tendered: decimal.RequireFromString("12.001"), StaffID: f.staff.ID}
		}, "tendered"},
		{"overflowing product total", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{
				{ProductID: f.a.ID, Quantity: 1 << 62},
				{ProductID: f.a.ID, Quantity: 1 << 62},
			}, StaffID: f.staff.ID}
		}, "items[1].quantity"},
		{"negative tendered", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1}}, Tendered: decimal.NewFromInt(-1), StaffID: f.staff.ID}
		}, "tendered"},
		{"missing staff", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1}}}
		}, "staff_id"},
		{"unknown staff", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1}}, StaffID: 999}
		}, "staff_id"},
		{"unknown client", func(f fixture) sales.Request {
			client := int64(404)
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1}}, StaffID: f.staff.ID, ClientID: &client}
		}, "client_id"},
		{"unknown product", func(f fixture) sales.Request {
			return sales.Request{Items: []sales.Line{{ProductID: f.a.ID, Quantity: 1}, {ProductID: 999, Quantity: 1}}, StaffID: f.staff.ID}
		}, "items[1].product_id"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			_, err := f.rec.RecordSale(ctx, tt.req(f))
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, int64(12), f.available(t, f.a.ID))
		})
	}
}

func assertSameSale(t *testing.T, want, got domain.Sale) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Reference, got.Reference)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.Total.Equal(got.Total), "total %s, stored %s", want.Total, got.Total)
	assert.True(t, want.Tendered.Equal(got.Tendered), "tendered %s, stored %s", want.Tendered, got.Tendered)
	assert.True(t, want.Change.Equal(got.Change), "change %s, stored %s", want.Change, got.Change)
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		assert.Equal(t, want.Items[i].Quantity, got.Items[i].Quantity)
		assert.True(t, want.Items[i].UnitPrice.Equal(got.Items[i].UnitPrice))
		assert.True(t, want.Items[i].LineTotal.Equal(got.Items[i].LineTotal),
			"line %d total %s, stored %s", i+1, want.Items[i].LineTotal, got.Items[i].LineTotal)
	}
}

func TestRecordSale_LastUnitRace(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.rec.RecordSale(ctx, sales.Request{
				Items:    []sales.Line{{ProductID: f.b.ID, Quantity: 1}},
				Tendered: decimal.RequireFromString("5.00"),
				StaffID:  f.staff.ID,
			})
		}()
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var short *domain.InsufficientStockError
		require.ErrorAs(t, err, &short)
		require.Len(t, short.Shortfalls, 1)
		assert.Equal(t, domain.Shortfall{ProductID: f.b.ID, Requested: 1, Available: 0, Missing: 1}, short.Shortfalls[0])
	}
	assert.Equal(t, 1, succeeded)

	assert.Zero(t, f.available(t, f.b.ID))
	all, err := f.rec.SalesInRange(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaleQueries(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	client := domain.Client{Name: "Maria", CreatedAt: now}
	require.NoError(t, f.store.InsertClient(ctx, &client))

	sell := func(clientID *int64) domain.Sale {
		sale, err := f.rec.RecordSale(ctx, sales.Request{
			Items:    []sales.Line{{ProductID: f.a.ID, Quantity: 1}},
			Tendered: decimal.RequireFromString("20.00"),
			StaffID:  f.staff.ID,
			ClientID: clientID,
		})
		require.NoError(t, err)
		return sale
	}

	first := sell(&client.ID)
	f.clock.Advance(2 * time.Hour)
	second := sell(nil)
	f.clock.Advance(24 * time.Hour)
	third := sell(&client.ID)

	inRange, err := f.rec.SalesInRange(ctx, first.CreatedAt, second.CreatedAt)
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, second.ID, inRange[0].ID)
	assert.Equal(t, first.ID, inRange[1].ID)

	_, err = f.rec.SalesInRange(ctx, now, now.Add(-time.Second))
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	forClient, err := f.rec.SalesForClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, forClient, 2)
	assert.Equal(t, third.ID, forClient[0].ID)

	none, err := f.rec.SalesForClient(ctx, client.ID+100)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.rec.SaleByID(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	totals, err := f.rec.DailyTotals(ctx, domain.DateOf(now))
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.Count)
	assert.True(t, decimal.RequireFromString("24.00").Equal(totals.Revenue))
}
