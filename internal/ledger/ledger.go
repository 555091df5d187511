package ledger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/store"
)

// Ledger tracks quantity-bearing lots per product and applies depletions
// earliest-expiring first.
type Ledger struct {
	store *store.Store
	clock clock.Clock
	log   *zap.Logger
	locks *productLocks
}

func New(st *store.Store, clk clock.Clock, log *zap.Logger) *Ledger {
	return &Ledger{store: st, clock: clk, log: log.Named("ledger"), locks: newProductLocks()}
}

// AddLot records a stock receipt for an existing product.
func (l *Ledger) AddLot(ctx context.Context, productID int64, lotNumber string, quantity int64, expires domain.Date) (domain.Lot, error) {
	lot := domain.Lot{
		ProductID:      productID,
		LotNumber:      strings.TrimSpace(lotNumber),
		Quantity:       quantity,
		ExpirationDate: expires,
		ReceivedOn:     l.clock.Today(),
	}
	if err := lot.Validate(); err != nil {
		return domain.Lot{}, err
	}
	if _, err := l.store.ProductByID(ctx, productID, lot.ReceivedOn); err != nil {
		return domain.Lot{}, fmt.Errorf("product %d: %w", productID, err)
	}
	if err := l.store.InsertLot(ctx, &lot); err != nil {
		return domain.Lot{}, err
	}
	l.log.Info("lot received",
		zap.Int64("product_id", productID),
		zap.String("lot_number", lot.LotNumber),
		zap.Int64("quantity", quantity),
		zap.Stringer("expires", lot.ExpirationDate))
	return lot, nil
}

// UpdateLot corrects a lot's number, quantity or expiration date. The lot
// stays attached to its product.
func (l *Ledger) UpdateLot(ctx context.Context, lot domain.Lot) (domain.Lot, error) {
	lot.LotNumber = strings.TrimSpace(lot.LotNumber)
	current, err := l.store.LotByID(ctx, lot.ID)
	if err != nil {
		return domain.Lot{}, err
	}
	lot.ProductID = current.ProductID
	lot.ReceivedOn = current.ReceivedOn
	if err := lot.Validate(); err != nil {
		return domain.Lot{}, err
	}

	unlock := l.locks.lock(lot.ProductID)
	defer unlock()
	if err := l.store.UpdateLot(ctx, lot); err != nil {
		return domain.Lot{}, err
	}
	l.log.Info("lot corrected",
		zap.Int64("lot_id", lot.ID),
		zap.Int64("old_quantity", current.Quantity),
		zap.Int64("new_quantity", lot.Quantity))
	return lot, nil
}

func (l *Ledger) LotByID(ctx context.Context, id int64) (domain.Lot, error) {
	return l.store.LotByID(ctx, id)
}

// LotsForProduct returns every lot of the product, expired and empty ones
// included, in depletion order.
func (l *Ledger) LotsForProduct(ctx context.Context, productID int64) ([]domain.Lot, error) {
	return l.store.LotsForProduct(ctx, productID)
}

// TotalAvailable sums the quantities of the product's lots that have not
// expired as of today. It is 0 when the product has no lots.
func (l *Ledger) TotalAvailable(ctx context.Context, productID int64) (int64, error) {
	return l.store.SumAvailable(ctx, productID, l.clock.Today())
}

func (l *Ledger) HasAvailable(ctx context.Context, productID int64) (bool, error) {
	total, err := l.TotalAvailable(ctx, productID)
	return total > 0, err
}

// Deplete removes quantity units of the product, earliest-expiring lots
// first, in its own transaction. Depletion is best effort: when stock runs
// out the covered part stays applied and the rest is reported as Shortfall.
func (l *Ledger) Deplete(ctx context.Context, productID, quantity int64) (Depletion, error) {
	if quantity <= 0 {
		return Depletion{}, domain.Invalid("quantity", "must be positive")
	}

	unlock := l.Lock(productID)
	defer unlock()

	var d Depletion
	err := l.store.InTx(ctx, func(tx *store.Store) error {
		if _, err := tx.ProductByID(ctx, productID, l.clock.Today()); err != nil {
			return fmt.Errorf("product %d: %w", productID, err)
		}
		var err error
		d, err = l.DepleteTx(ctx, tx, productID, quantity)
		return err
	})
	if err != nil {
		return Depletion{}, err
	}
	if !d.Complete() {
		l.log.Warn("depletion short",
			zap.Int64("product_id", productID),
			zap.Int64("requested", d.Requested),
			zap.Int64("shortfall", d.Shortfall))
	}
	return d, nil
}

// Lock serialises depletion of the given products until the returned func
// is called. Acquire it before opening the transaction passed to DepleteTx.
func (l *Ledger) Lock(productIDs ...int64) func() {
	return l.locks.lock(productIDs...)
}

// DepleteTx applies Plan to the product's available lots on tx. The caller
// must hold the product's Lock and decides what to do with a shortfall.
func (l *Ledger) DepleteTx(ctx context.Context, tx *store.Store, productID, quantity int64) (Depletion, error) {
	today := l.clock.Today()
	lots, err := tx.AvailableLots(ctx, productID, today)
	if err != nil {
		return Depletion{}, err
	}
	d := Plan(lots, quantity, today)
	d.ProductID = productID
	for _, a := range d.Allocations {
		if err := tx.SetLotQuantity(ctx, a.LotID, a.Remaining); err != nil {
			return Depletion{}, err
		}
	}
	return d, nil
}

// ExpiredLots returns lots whose expiration date is strictly before today.
func (l *Ledger) ExpiredLots(ctx context.Context) ([]domain.Lot, error) {
	return l.store.LotsExpiredBefore(ctx, l.clock.Today())
}

// ExpiringWithin returns lots expiring after today and no later than
// today+days. A lot expiring today is not included.
func (l *Ledger) ExpiringWithin(ctx context.Context, days int) ([]domain.Lot, error) {
	if days < 0 {
		return nil, domain.Invalid("days", "must not be negative")
	}
	today := l.clock.Today()
	if days == 0 {
		return []domain.Lot{}, nil
	}
	return l.store.LotsExpiringBetween(ctx, today.AddDays(1), today.AddDays(days))
}

// ExpiringBetween returns lots expiring within [today+startDays, today+endDays].
func (l *Ledger) ExpiringBetween(ctx context.Context, startDays, endDays int) ([]domain.Lot, error) {
	if startDays > endDays {
		return nil, domain.Invalid("window", "start must not be after end")
	}
	today := l.clock.Today()
	return l.store.LotsExpiringBetween(ctx, today.AddDays(startDays), today.AddDays(endDays))
}
