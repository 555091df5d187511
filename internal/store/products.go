package store

import (
	"context"
	"strings"

	"pharmapos/m/domain"
)

// productColumns derives stock from lots that have not expired as of the
// first query argument.
const productColumns = `SELECT p.id, p.name, p.description, p.unit_price, p.purchase_price, p.sale_price, p.reorder_threshold,
        COALESCE((SELECT SUM(l.quantity) FROM lots l WHERE l.product_id = p.id AND l.expiration_date >= ?), 0) AS stock
        FROM products p`

func (s *Store) InsertProduct(ctx context.Context, p *domain.Product) error {
	id, err := s.insert(ctx, "insert product",
		`INSERT INTO products (name, description, search_key, unit_price, purchase_price, sale_price, reorder_threshold)
         VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.Name, p.Description, searchKey(p.Name, p.Description), p.UnitPrice, p.PurchasePrice, p.SalePrice, p.ReorderThreshold)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) error {
	return s.exec(ctx, "update product",
		`UPDATE products SET name = ?, description = ?, search_key = ?, unit_price = ?, purchase_price = ?, sale_price = ?,
         reorder_threshold = ? WHERE id = ?`,
		p.Name, p.Description, searchKey(p.Name, p.Description), p.UnitPrice, p.PurchasePrice, p.SalePrice, p.ReorderThreshold, p.ID)
}

// DeleteProduct removes a product together with its lots.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.ext.ExecContext(ctx, s.rebind(`DELETE FROM lots WHERE product_id = ?`), id); err != nil {
		return persistence("delete product lots", err)
	}
	return s.exec(ctx, "delete product", `DELETE FROM products WHERE id = ?`, id)
}

// ProductSold reports whether any sale line references the product.
func (s *Store) ProductSold(ctx context.Context, id int64) (bool, error) {
	var n int64
	if err := s.get(ctx, "count product sales", &n, `SELECT COUNT(*) FROM sale_items WHERE product_id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ProductByID(ctx context.Context, id int64, today domain.Date) (domain.Product, error) {
	var p domain.Product
	if err := s.get(ctx, "get product", &p, productColumns+` WHERE p.id = ?`, today, id); err != nil {
		return domain.Product{}, err
	}
	return derive(p), nil
}

func (s *Store) ProductByName(ctx context.Context, name string, today domain.Date) (domain.Product, error) {
	var p domain.Product
	if err := s.get(ctx, "get product by name", &p, productColumns+` WHERE p.name = ?`, today, name); err != nil {
		return domain.Product{}, err
	}
	return derive(p), nil
}

// SearchProducts matches keyword as a case-insensitive substring of the name
// or description.
func (s *Store) SearchProducts(ctx context.Context, keyword string, today domain.Date) ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.list(ctx, "search products", &products,
		productColumns+` WHERE p.search_key LIKE ? ESCAPE '\' ORDER BY p.name, p.id`,
		today, likePattern(keyword))
	if err != nil {
		return nil, err
	}
	return deriveAll(products), nil
}

func (s *Store) ListProducts(ctx context.Context, today domain.Date) ([]domain.Product, error) {
	products := []domain.Product{}
	if err := s.list(ctx, "list products", &products, productColumns+` ORDER BY p.name, p.id`, today); err != nil {
		return nil, err
	}
	return deriveAll(products), nil
}

// LowStockProducts returns products whose non-expired stock is at or below
// their reorder threshold.
func (s *Store) LowStockProducts(ctx context.Context, today domain.Date) ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.list(ctx, "list low stock products", &products,
		`SELECT * FROM (`+productColumns+`) AS ps WHERE ps.stock <= ps.reorder_threshold ORDER BY ps.name, ps.id`, today)
	if err != nil {
		return nil, err
	}
	return deriveAll(products), nil
}

func derive(p domain.Product) domain.Product {
	p.BelowThreshold = p.Stock <= p.ReorderThreshold
	return p
}

func deriveAll(products []domain.Product) []domain.Product {
	for i := range products {
		products[i] = derive(products[i])
	}
	return products
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// searchKey is the Go-folded text a row is searched by. sqlite's LOWER only
// folds ASCII. Fields are joined by a newline, which keywords never contain.
func searchKey(fields ...string) string {
	folded := make([]string, len(fields))
	for i, f := range fields {
		folded[i] = strings.ToLower(f)
	}
	return strings.Join(folded, "\n")
}

func likePattern(keyword string) string {
	keyword = strings.ReplaceAll(strings.ToLower(keyword), "\n", " ")
	return "%" + escapeLike(keyword) + "%"
}
