// Package clients keeps the pharmacy's customer records that sales can be
// attributed to.
package clients

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/store"
)

type Directory struct {
	store *store.Store
	clock clock.Clock
	log   *zap.Logger
}

func New(st *store.Store, clk clock.Clock, log *zap.Logger) *Directory {
	return &Directory{store: st, clock: clk, log: log.Named("clients")}
}

func (d *Directory) Add(ctx context.Context, c domain.Client) (domain.Client, error) {
	c = normalize(c)
	if c.Name == "" {
		return domain.Client{}, domain.Invalid("name", "is required")
	}
	c.CreatedAt = d.clock.Now().UTC()
	if err := d.store.InsertClient(ctx, &c); err != nil {
		return domain.Client{}, fmt.Errorf("add client: %w", err)
	}
	d.log.Info("client added", zap.Int64("client_id", c.ID))
	return c, nil
}

func (d *Directory) Update(ctx context.Context, c domain.Client) (domain.Client, error) {
	c = normalize(c)
	if c.Name == "" {
		return domain.Client{}, domain.Invalid("name", "is required")
	}
	if err := d.store.UpdateClient(ctx, c); err != nil {
		return domain.Client{}, fmt.Errorf("update client %d: %w", c.ID, err)
	}
	return d.store.ClientByID(ctx, c.ID)
}

func (d *Directory) ByID(ctx context.Context, id int64) (domain.Client, error) {
	return d.store.ClientByID(ctx, id)
}

// Search matches keyword against client names and phone numbers.
func (d *Directory) Search(ctx context.Context, keyword string) ([]domain.Client, error) {
	return d.store.SearchClients(ctx, strings.TrimSpace(keyword))
}

func normalize(c domain.Client) domain.Client {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}
