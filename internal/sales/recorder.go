// Package sales records point-of-sale transactions and the stock they consume.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/ledger"
	"pharmapos/m/internal/store"
)

// Line is one requested product/quantity entry. A nil UnitPrice charges the
// product's current sale price.
type Line struct {
	ProductID int64
	Quantity  int64
	UnitPrice *decimal.Decimal
}

type Request struct {
	Items    []Line
	Tendered decimal.Decimal
	StaffID  int64
	ClientID *int64
}

type Recorder struct {
	store  *store.Store
	ledger *ledger.Ledger
	clock  clock.Clock
	log    *zap.Logger
}

func New(st *store.Store, l *ledger.Ledger, clk clock.Clock, log *zap.Logger) *Recorder {
	return &Recorder{store: st, ledger: l, clock: clk, log: log.Named("sales")}
}

// RecordSale stores the sale and depletes the stock it sells in one
// transaction. If any product cannot be fully covered nothing is stored and
// an *domain.InsufficientStockError lists every short product.
func (r *Recorder) RecordSale(ctx context.Context, req Request) (domain.Sale, error) {
	if err := validate(req); err != nil {
		return domain.Sale{}, err
	}
	demand, err := Demand(req.Items)
	if err != nil {
		return domain.Sale{}, err
	}
	products := sortedKeys(demand)

	unlock := r.ledger.Lock(products...)
	defer unlock()

	sale := domain.Sale{
		Reference: uuid.NewString(),
		StaffID:   req.StaffID,
		ClientID:  req.ClientID,
		Tendered:  req.Tendered,
		CreatedAt: r.clock.Now().UTC(),
	}
	err = r.store.InTx(ctx, func(tx *store.Store) error {
		if err := r.checkParties(ctx, tx, req); err != nil {
			return err
		}
		items, err := r.priceLines(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		sale.Items = items
		sale.Total, sale.Change = Settle(items, req.Tendered)
		if err := tx.InsertSale(ctx, &sale); err != nil {
			return err
		}

		var short []domain.Shortfall
		for _, id := range products {
			d, err := r.ledger.DepleteTx(ctx, tx, id, demand[id])
			if err != nil {
				return err
			}
			if !d.Complete() {
				short = append(short, domain.Shortfall{
					ProductID: id,
					Requested: d.Requested,
					Available: d.Depleted,
					Missing:   d.Shortfall,
				})
			}
		}
		if len(short) > 0 {
			return &domain.InsufficientStockError{Shortfalls: short}
		}
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}

	r.log.Info("sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.String("reference", sale.Reference),
		zap.Int64("staff_id", sale.StaffID),
		zap.Int("lines", len(sale.Items)),
		zap.Stringer("total", sale.Total))
	return sale, nil
}

func validate(req Request) error {
	if len(req.Items) == 0 {
		return domain.Invalid("items", "a sale needs at least one line")
	}
	if req.StaffID <= 0 {
		return domain.Invalid("staff_id", "is required")
	}
	if err := domain.ValidPrice("tendered", req.Tendered); err != nil {
		return err
	}
	for i, line := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case line.ProductID <= 0:
			return domain.Invalid(field+".product_id", "is required")
		case line.Quantity <= 0:
			return domain.Invalid(field+".quantity", "must be positive")
		}
		if line.UnitPrice != nil {
			if err := domain.ValidPrice(field+".unit_price", *line.UnitPrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkParties turns unknown staff or client references into validation
// errors before anything is written.
func (r *Recorder) checkParties(ctx context.Context, tx *store.Store, req Request) error {
	if _, err := tx.StaffByID(ctx, req.StaffID); err != nil {
		return fieldError("staff_id", err)
	}
	if req.ClientID != nil {
		if _, err := tx.ClientByID(ctx, *req.ClientID); err != nil {
			return fieldError("client_id", err)
		}
	}
	return nil
}

func (r *Recorder) priceLines(ctx context.Context, tx *store.Store, lines []Line) ([]domain.SaleItem, error) {
	today := r.clock.Today()
	items := make([]domain.SaleItem, 0, len(lines))
	for i, line := range lines {
		product, err := tx.ProductByID(ctx, line.ProductID, today)
		if err != nil {
			return nil, fieldError(fmt.Sprintf("items[%d].product_id", i), err)
		}
		price := product.SalePrice
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}
		items = append(items, domain.SaleItem{
			Position:  i + 1,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: LineTotal(line.Quantity, price),
		})
	}
	return items, nil
}

func (r *Recorder) SaleByID(ctx context.Context, id int64) (domain.Sale, error) {
	return r.store.SaleByID(ctx, id)
}

// SalesInRange returns sales made between start and end inclusive, newest first.
func (r *Recorder) SalesInRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	if end.Before(start) {
		return nil, domain.Invalid("range", "end is before start")
	}
	return r.store.SalesBetween(ctx, start.UTC(), end.UTC())
}

func (r *Recorder) SalesForClient(ctx context.Context, clientID int64) ([]domain.Sale, error) {
	return r.store.SalesForClient(ctx, clientID)
}

// Totals is the sales activity of one calendar day.
type Totals struct {
	Day     domain.Date     `json:"day"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DailyTotals counts the sales made on day in the clock's location.
func (r *Recorder) DailyTotals(ctx context.Context, day domain.Date) (Totals, error) {
	start, end := DayBounds(day, r.clock.Now().Location())
	count, revenue, err := r.store.SaleTotalsBetween(ctx, start.UTC(), end.UTC())
	if err != nil {
		return Totals{}, err
	}
	return Totals{Day: day, Count: count, Revenue: revenue}, nil
}
