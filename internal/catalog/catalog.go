// Package catalog owns product identity, pricing and reorder thresholds.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/clock"
	"pharmapos/m/internal/store"
)

type Catalog struct {
	store *store.Store
	clock clock.Clock
	log   *zap.Logger
}

func New(st *store.Store, clk clock.Clock, log *zap.Logger) *Catalog {
	return &Catalog{store: st, clock: clk, log: log.Named("catalog")}
}

// Add stores a new product and returns it with its generated id.
func (c *Catalog) Add(ctx context.Context, p domain.Product) (domain.Product, error) {
	p = normalize(p)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := c.store.InsertProduct(ctx, &p); err != nil {
		return domain.Product{}, fmt.Errorf("add product %q: %w", p.Name, err)
	}
	c.log.Info("product added", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return c.store.ProductByID(ctx, p.ID, c.clock.Today())
}

func (c *Catalog) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	p = normalize(p)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := c.store.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return c.store.ProductByID(ctx, p.ID, c.clock.Today())
}

// Remove deletes a product and its lots. Products that appear on a sale are
// kept so sale history stays intact.
func (c *Catalog) Remove(ctx context.Context, id int64) error {
	err := c.store.InTx(ctx, func(tx *store.Store) error {
		sold, err := tx.ProductSold(ctx, id)
		if err != nil {
			return err
		}
		if sold {
			return fmt.Errorf("product %d is referenced by sales: %w", id, domain.ErrConflict)
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	c.log.Info("product removed", zap.Int64("product_id", id))
	return nil
}

func (c *Catalog) ByID(ctx context.Context, id int64) (domain.Product, error) {
	return c.store.ProductByID(ctx, id, c.clock.Today())
}

// ByName looks a product up by its exact name.
func (c *Catalog) ByName(ctx context.Context, name string) (domain.Product, error) {
	return c.store.ProductByName(ctx, strings.TrimSpace(name), c.clock.Today())
}

// Search matches keyword against name and description. A blank keyword
// lists everything.
func (c *Catalog) Search(ctx context.Context, keyword string) ([]domain.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return c.List(ctx)
	}
	return c.store.SearchProducts(ctx, keyword, c.clock.Today())
}

func (c *Catalog) List(ctx context.Context) ([]domain.Product, error) {
	return c.store.ListProducts(ctx, c.clock.Today())
}

// LowStock returns products at or below their reorder threshold.
func (c *Catalog) LowStock(ctx context.Context) ([]domain.Product, error) {
	return c.store.LowStockProducts(ctx, c.clock.Today())
}

func normalize(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	return p
}
