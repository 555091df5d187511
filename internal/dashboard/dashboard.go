// Package dashboard summarises a day of pharmacy activity.
package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/sales"
	"pharmapos/m/internal/store"
)

type Summary struct {
	Day          domain.Date     `json:"day"`
	SalesCount   int64           `json:"sales_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	LowStock     int             `json:"low_stock_products"`
	ExpiredLots  int64           `json:"expired_lots"`
	ExpiringLots int64           `json:"expiring_lots"`
	ExpiryWindow int             `json:"expiry_window_days"`
}

type Dashboard struct {
	store      *store.Store
	sales      *sales.Recorder
	clock      clock.Clock
	expiryDays int
}

func New(st *store.Store, rec *sales.Recorder, clk clock.Clock, expiryDays int) *Dashboard {
	return &Dashboard{store: st, sales: rec, clock: clk, expiryDays: expiryDays}
}

// Today summarises the current day.
func (d *Dashboard) Today(ctx context.Context) (Summary, error) {
	return d.Summary(ctx, d.clock.Today())
}

// Summary reports sales for day and the stock situation as of day.
func (d *Dashboard) Summary(ctx context.Context, day domain.Date) (Summary, error) {
	s := Summary{Day: day, ExpiryWindow: d.expiryDays}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		totals, err := d.sales.DailyTotals(ctx, day)
		s.SalesCount, s.Revenue = totals.Count, totals.Revenue
		return err
	})
	g.Go(func() error {
		low, err := d.store.LowStockProducts(ctx, day)
		s.LowStock = len(low)
		return err
	})
	g.Go(func() error {
		n, err := d.store.CountLotsExpiredBefore(ctx, day)
		s.ExpiredLots = n
		return err
	})
	g.Go(func() error {
		if d.expiryDays == 0 {
			return nil
		}
		n, err := d.store.CountLotsExpiringBetween(ctx, day.AddDays(1), day.AddDays(d.expiryDays))
		s.ExpiringLots = n
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return s, nil
}
