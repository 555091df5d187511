// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pharmapos/m/domain"
)

// LotSource answers the expiry questions the watch asks.
type LotSource interface {
	ExpiredLots(ctx context.Context) ([]domain.Lot, error)
	ExpiringWithin(ctx context.Context, days int) ([]domain.Lot, error)
}

// Report is the result of one expiry scan.
type Report struct {
	Expired  []domain.Lot
	Expiring []domain.Lot
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ExpiryWatch periodically logs lots that expired or will expire soon.
type ExpiryWatch struct {
	lots    LotSource
	days    int
	timeout time.Duration
	log     *zap.Logger
	sched   *cron.Cron
}

func NewExpiryWatch(lots LotSource, days int, loc *time.Location, log *zap.Logger) *ExpiryWatch {
	if loc == nil {
		loc = time.Local
	}
	return &ExpiryWatch{
		lots:    lots,
		days:    days,
		timeout: time.Minute,
		log:     log.Named("expiry"),
		sched:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
	}
}

// Start schedules the scan and starts the scheduler.
func (w *ExpiryWatch) Start(schedule string) error {
	if _, err := w.sched.AddFunc(schedule, w.tick); err != nil {
		return fmt.Errorf("schedule expiry watch %q: %w", schedule, err)
	}
	w.sched.Start()
	w.log.Info("expiry watch scheduled", zap.String("schedule", schedule), zap.Int("window_days", w.days))
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish or ctx to end.
func (w *ExpiryWatch) Stop(ctx context.Context) {
	select {
	case <-w.sched.Stop().Done():
	case <-ctx.Done():
	}
}

func (w *ExpiryWatch) tick() {
	defer func() {
		if err := recover(); err != nil {
			w.log.Error("expiry watch panicked", zap.Any("panic", err))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.Run(ctx); err != nil {
		w.log.Error("expiry scan failed", zap.Error(err))
	}
}

// Run performs one scan and logs what it found.
func (w *ExpiryWatch) Run(ctx context.Context) (Report, error) {
	expired, err := w.lots.ExpiredLots(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("expired lots: %w", err)
	}
	expiring, err := w.lots.ExpiringWithin(ctx, w.days)
	if err != nil {
		return Report{}, fmt.Errorf("expiring lots: %w", err)
	}

	for _, l := range expired {
		if l.Quantity > 0 {
			w.log.Warn("expired lot still holds stock",
				zap.Int64("lot_id", l.ID),
				zap.Int64("product_id", l.ProductID),
				zap.String("lot_number", l.LotNumber),
				zap.Int64("quantity", l.Quantity),
				zap.Stringer("expired_on", l.ExpirationDate))
		}
	}
	w.log.Info("expiry scan",
		zap.Int("expired", len(expired)),
		zap.Int("expiring", len(expiring)),
		zap.Int("window_days", w.days))
	return Report{Expired: expired, Expiring: expiring}, nil
}
