package domain

// Lot is a batch of one product received together.
type Lot struct {
	ID             int64  `db:"id" json:"id"`
	ProductID      int64  `db:"product_id" json:"product_id"`
	LotNumber      string `db:"lot_number" json:"lot_number"`
	Quantity       int64  `db:"quantity" json:"quantity"`
	ExpirationDate Date   `db:"expiration_date" json:"expiration_date"`
	ReceivedOn     Date   `db:"received_on" json:"received_on"`
}

// Validate enforces the lot invariants: a lot number, a non-negative quantity
// and an expiration date.
func (l Lot) Validate() error {
	switch {
	case l.ProductID <= 0:
		return Invalid("product_id", "is required")
	case l.LotNumber == "":
		return Invalid("lot_number", "is required")
	case l.Quantity < 0:
		return Invalid("quantity", "must not be negative")
	case l.ExpirationDate.IsZero():
		return Invalid("expiration_date", "is required")
	}
	return nil
}

// Expired reports whether the lot expired strictly before today.
func (l Lot) Expired(today Date) bool {
	return l.ExpirationDate.Before(today)
}

// Exhausted reports whether nothing is left in the lot.
func (l Lot) Exhausted() bool { return l.Quantity == 0 }
