package store

import (
	"context"
	"time"

	"pharmapos/m/domain"
)

const clientColumns = `SELECT id, name, phone, email, created_at FROM clients`

type clientRow struct {
	domain.Client
	CreatedAt stamp `db:"created_at"`
}

func (r clientRow) toClient() domain.Client {
	c := r.Client
	c.CreatedAt = time.Time(r.CreatedAt)
	return c
}

func (s *Store) InsertClient(ctx context.Context, c *domain.Client) error {
	id, err := s.insert(ctx, "insert client",
		`INSERT INTO clients (name, phone, email, search_key, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		c.Name, c.Phone, c.Email, searchKey(c.Name, c.Phone), stamp(c.CreatedAt))
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) UpdateClient(ctx context.Context, c domain.Client) error {
	return s.exec(ctx, "update client",
		`UPDATE clients SET name = ?, phone = ?, email = ?, search_key = ? WHERE id = ?`,
		c.Name, c.Phone, c.Email, searchKey(c.Name, c.Phone), c.ID)
}

func (s *Store) ClientByID(ctx context.Context, id int64) (domain.Client, error) {
	var row clientRow
	if err := s.get(ctx, "get client", &row, clientColumns+` WHERE id = ?`, id); err != nil {
		return domain.Client{}, err
	}
	return row.toClient(), nil
}

// SearchClients matches keyword as a case-insensitive substring of the name
// or phone number.
func (s *Store) SearchClients(ctx context.Context, keyword string) ([]domain.Client, error) {
	var rows []clientRow
	err := s.list(ctx, "search clients", &rows,
		clientColumns+` WHERE search_key LIKE ? ESCAPE '\' ORDER BY name, id`, likePattern(keyword))
	if err != nil {
		return nil, err
	}
	clients := make([]domain.Client, len(rows))
	for i, row := range rows {
		clients[i] = row.toClient()
	}
	return clients, nil
}
