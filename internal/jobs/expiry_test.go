package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pharmapos/m/domain"
)

type fakeLots struct {
	expired, expiring []domain.Lot
	days              int
	err               error
}

func (f *fakeLots) ExpiredLots(context.Context) ([]domain.Lot, error) { return f.expired, f.err }

func (f *fakeLots) ExpiringWithin(_ context.Context, days int) ([]domain.Lot, error) {
	f.days = days
	return f.expiring, nil
}

func TestRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	day := domain.NewDate(2026, time.January, 1)
	lots := &fakeLots{
		expired: []domain.Lot{
			{ID: 1, ProductID: 3, LotNumber: "OLD", Quantity: 4, ExpirationDate: day},
			{ID: 2, ProductID: 3, LotNumber: "EMPTY", Quantity: 0, ExpirationDate: day},
		},
		expiring: []domain.Lot{{ID: 5, ProductID: 4, LotNumber: "SOON", Quantity: 1}},
	}
	w := NewExpiryWatch(lots, 14, time.UTC, zap.New(core))

	report, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Expired, 2)
	assert.Len(t, report.Expiring, 1)
	assert.Equal(t, 14, lots.days)

	warnings := logs.FilterMessage("expired lot still holds stock").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "OLD", warnings[0].ContextMap()["lot_number"])

	summary := logs.FilterMessage("expiry scan").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].ContextMap()["expired"])
}

func TestRun_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	w := NewExpiryWatch(&fakeLots{err: boom}, 7, nil, zap.NewNop())
	_, err := w.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	w := NewExpiryWatch(&fakeLots{}, 7, time.UTC, zap.NewNop())
	assert.Error(t, w.Start("every tuesday"))

	require.NoError(t, w.Start("@hourly"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)
}
