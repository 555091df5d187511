package ledger

import (
	"slices"

	"pharmapos/m/domain"
)

// Allocation is the quantity taken from one lot by a depletion.
type Allocation struct {
	LotID     int64  `json:"lot_id"`
	LotNumber string `json:"lot_number"`
	Quantity  int64  `json:"quantity"`
	Remaining int64  `json:"remaining"`
}

// Depletion is the outcome of removing stock for one product. Shortfall is the
// part of Requested that non-expired stock could not cover.
type Depletion struct {
	ProductID   int64        `json:"product_id"`
	Requested   int64        `json:"requested"`
	Depleted    int64        `json:"depleted"`
	Shortfall   int64        `json:"shortfall"`
	Allocations []Allocation `json:"allocations"`
}

// Complete reports whether the whole request was covered.
func (d Depletion) Complete() bool { return d.Shortfall == 0 }

// Order sorts lots in depletion order: earliest expiration first, ties broken
// by ascending lot id.
func Order(lots []domain.Lot) {
	slices.SortStableFunc(lots, func(a, b domain.Lot) int {
		switch {
		case a.ExpirationDate.Before(b.ExpirationDate):
			return -1
		case a.ExpirationDate.After(b.ExpirationDate):
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// Plan decides how quantity is taken from lots without touching storage.
// Lots that expired before today or are empty are skipped; the rest are
// consumed in Order until quantity is met or stock runs out.
func Plan(lots []domain.Lot, quantity int64, today domain.Date) Depletion {
	usable := make([]domain.Lot, 0, len(lots))
	for _, l := range lots {
		if l.Quantity > 0 && !l.Expired(today) {
			usable = append(usable, l)
		}
	}
	Order(usable)

	d := Depletion{Requested: quantity, Allocations: []Allocation{}}
	remaining := quantity
	for _, l := range usable {
		if remaining == 0 {
			break
		}
		take := min(l.Quantity, remaining)
		remaining -= take
		d.Depleted += take
		d.Allocations = append(d.Allocations, Allocation{
			LotID:     l.ID,
			LotNumber: l.LotNumber,
			Quantity:  take,
			Remaining: l.Quantity - take,
		})
	}
	d.Shortfall = remaining
	return d
}
