package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sale struct {
	ID        int64           `db:"id" json:"id"`
	Reference string          `db:"reference" json:"reference"`
	StaffID   int64           `db:"staff_id" json:"staff_id"`
	ClientID  *int64          `db:"client_id" json:"client_id,omitempty"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Tendered  decimal.Decimal `db:"tendered" json:"tendered"`
	Change    decimal.Decimal `db:"change_due" json:"change"`
	CreatedAt time.Time       `db:"-" json:"created_at"`
	Items     []SaleItem      `db:"-" json:"items"`
}

type SaleItem struct {
	ID        int64           `db:"id" json:"id"`
	SaleID    int64           `db:"sale_id" json:"sale_id"`
	Position  int             `db:"position" json:"position"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	LineTotal decimal.Decimal `db:"line_total" json:"line_total"`
}
