package store

import (
	"context"

	"pharmapos/m/domain"
)

const lotColumns = `SELECT id, product_id, lot_number, quantity, expiration_date, received_on FROM lots`

func (s *Store) InsertLot(ctx context.Context, l *domain.Lot) error {
	id, err := s.insert(ctx, "insert lot",
		`INSERT INTO lots (product_id, lot_number, quantity, expiration_date, received_on) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		l.ProductID, l.LotNumber, l.Quantity, l.ExpirationDate, l.ReceivedOn)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

// UpdateLot replaces a lot's number, quantity and expiration date.
func (s *Store) UpdateLot(ctx context.Context, l domain.Lot) error {
	return s.exec(ctx, "update lot",
		`UPDATE lots SET lot_number = ?, quantity = ?, expiration_date = ? WHERE id = ?`,
		l.LotNumber, l.Quantity, l.ExpirationDate, l.ID)
}

func (s *Store) SetLotQuantity(ctx context.Context, id, quantity int64) error {
	return s.exec(ctx, "set lot quantity", `UPDATE lots SET quantity = ? WHERE id = ?`, quantity, id)
}

func (s *Store) LotByID(ctx context.Context, id int64) (domain.Lot, error) {
	var l domain.Lot
	if err := s.get(ctx, "get lot", &l, lotColumns+` WHERE id = ?`, id); err != nil {
		return domain.Lot{}, err
	}
	return l, nil
}

func (s *Store) LotsForProduct(ctx context.Context, productID int64) ([]domain.Lot, error) {
	lots := []domain.Lot{}
	err := s.list(ctx, "list product lots", &lots,
		lotColumns+` WHERE product_id = ? ORDER BY expiration_date, id`, productID)
	return lots, err
}

// AvailableLots returns the product's lots that still hold stock and have not
// expired as of today. Inside a transaction the rows stay locked on postgres.
func (s *Store) AvailableLots(ctx context.Context, productID int64, today domain.Date) ([]domain.Lot, error) {
	lots := []domain.Lot{}
	err := s.list(ctx, "list available lots", &lots,
		lotColumns+` WHERE product_id = ? AND quantity > 0 AND expiration_date >= ? ORDER BY expiration_date, id`+s.forUpdate(),
		productID, today)
	return lots, err
}

// SumAvailable totals the quantity of the product's lots not expired as of today.
func (s *Store) SumAvailable(ctx context.Context, productID int64, today domain.Date) (int64, error) {
	var total int64
	err := s.get(ctx, "sum available stock", &total,
		`SELECT COALESCE(SUM(quantity), 0) FROM lots WHERE product_id = ? AND expiration_date >= ?`, productID, today)
	return total, err
}

// LotsExpiredBefore returns lots whose expiration date is strictly before day.
func (s *Store) LotsExpiredBefore(ctx context.Context, day domain.Date) ([]domain.Lot, error) {
	lots := []domain.Lot{}
	err := s.list(ctx, "list expired lots", &lots,
		lotColumns+` WHERE expiration_date < ? ORDER BY expiration_date, id`, day)
	return lots, err
}

// LotsExpiringBetween returns lots with from <= expiration date <= to.
func (s *Store) LotsExpiringBetween(ctx context.Context, from, to domain.Date) ([]domain.Lot, error) {
	lots := []domain.Lot{}
	err := s.list(ctx, "list expiring lots", &lots,
		lotColumns+` WHERE expiration_date >= ? AND expiration_date <= ? ORDER BY expiration_date, id`, from, to)
	return lots, err
}

func (s *Store) CountLotsExpiredBefore(ctx context.Context, day domain.Date) (int64, error) {
	var n int64
	err := s.get(ctx, "count expired lots", &n, `SELECT COUNT(*) FROM lots WHERE expiration_date < ?`, day)
	return n, err
}

func (s *Store) CountLotsExpiringBetween(ctx context.Context, from, to domain.Date) (int64, error) {
	var n int64
	err := s.get(ctx, "count expiring lots", &n,
		`SELECT COUNT(*) FROM lots WHERE expiration_date >= ? AND expiration_date <= ?`, from, to)
	return n, err
}
