package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

const saleColumns = `SELECT id, reference, staff_id, client_id, total, tendered, change_due, created_at FROM sales`

type saleRow struct {
	domain.Sale
	CreatedAt stamp `db:"created_at"`
}

func (r saleRow) toSale() domain.Sale {
	sale := r.Sale
	sale.CreatedAt = time.Time(r.CreatedAt)
	sale.Items = []domain.SaleItem{}
	return sale
}

// InsertSale stores the sale header and its line items, filling in the
// generated ids.
func (s *Store) InsertSale(ctx context.Context, sale *domain.Sale) error {
	id, err := s.insert(ctx, "insert sale",
		`INSERT INTO sales (reference, staff_id, client_id, total, tendered, change_due, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		sale.Reference, sale.StaffID, sale.ClientID, sale.Total, sale.Tendered, sale.Change, stamp(sale.CreatedAt))
	if err != nil {
		return err
	}
	sale.ID = id

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = id
		itemID, err := s.insert(ctx, "insert sale item",
			`INSERT INTO sale_items (sale_id, position, product_id, quantity, unit_price, line_total)
             VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			id, item.Position, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return err
		}
		item.ID = itemID
	}
	return nil
}

func (s *Store) SaleByID(ctx context.Context, id int64) (domain.Sale, error) {
	var row saleRow
	if err := s.get(ctx, "get sale", &row, saleColumns+` WHERE id = ?`, id); err != nil {
		return domain.Sale{}, err
	}
	sales, err := s.withItems(ctx, []saleRow{row})
	if err != nil {
		return domain.Sale{}, err
	}
	return sales[0], nil
}

// SalesBetween returns sales with start <= created_at <= end, newest first.
func (s *Store) SalesBetween(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	var rows []saleRow
	err := s.list(ctx, "list sales in range", &rows,
		saleColumns+` WHERE created_at >= ? AND created_at <= ? ORDER BY created_at DESC, id DESC`,
		stamp(start), stamp(end))
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, rows)
}

func (s *Store) SalesForClient(ctx context.Context, clientID int64) ([]domain.Sale, error) {
	var rows []saleRow
	err := s.list(ctx, "list client sales", &rows,
		saleColumns+` WHERE client_id = ? ORDER BY created_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, rows)
}

// SaleTotalsBetween returns the number of sales and their summed totals.
func (s *Store) SaleTotalsBetween(ctx context.Context, start, end time.Time) (int64, decimal.Decimal, error) {
	var totals []decimal.Decimal
	err := s.list(ctx, "sum sales in range", &totals,
		`SELECT total FROM sales WHERE created_at >= ? AND created_at <= ?`, stamp(start), stamp(end))
	if err != nil {
		return 0, decimal.Zero, err
	}
	revenue := decimal.Zero
	for _, t := range totals {
		revenue = revenue.Add(t)
	}
	return int64(len(totals)), revenue, nil
}

func (s *Store) withItems(ctx context.Context, rows []saleRow) ([]domain.Sale, error) {
	sales := make([]domain.Sale, len(rows))
	if len(rows) == 0 {
		return sales, nil
	}
	index := make(map[int64]int, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		sales[i] = row.toSale()
		index[row.ID] = i
		ids[i] = row.ID
	}

	query, args, err := sqlx.In(`SELECT id, sale_id, position, product_id, quantity, unit_price, line_total
                FROM sale_items WHERE sale_id IN (?) ORDER BY sale_id, position`, ids)
	if err != nil {
		return nil, persistence("prepare sale items query", err)
	}
	var items []domain.SaleItem
	if err := s.list(ctx, "load sale items", &items, query, args...); err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.SaleID]
		sales[i].Items = append(sales[i].Items, item)
	}
	return sales, nil
}
