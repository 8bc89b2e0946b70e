package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

var (
	_ repository.CatalogRepository = (*CatalogRepo)(nil)
	_ repository.CatalogWriter     = (*CatalogRepo)(nil)
)

const productColumns = `id, name, price, category_id`

// CatalogRepo implementación de los puertos de catálogo sobre PostgreSQL (usable con pool o tx).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// ListCategories devuelve las categorías ordenadas por ID.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()
	out := []entity.Category{}
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr("scan category", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list categories", err)
	}
	return out, nil
}

// ListProducts devuelve todos los productos o los de una categoría por nombre.
func (r *CatalogRepo) ListProducts(ctx context.Context, categoryName string) ([]entity.Product, error) {
	if categoryName == "" {
		return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	}
	var categoryID int64
	err := r.q.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, categoryName).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get category", err)
	}
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY id`, categoryID)
}

// GetProduct obtiene un producto por ID.
func (r *CatalogRepo) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get product", err)
	}
	return &p, nil
}

// GetProducts resuelve varios IDs en una sola consulta.
func (r *CatalogRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]entity.Product, error) {
	out := make(map[int64]entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// ProductsByName resuelve nombres exactos en una sola consulta.
func (r *CatalogRepo) ProductsByName(ctx context.Context, names []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product, len(names))
	if len(names) == 0 {
		return out, nil
	}
	list, err := r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.Name] = p
	}
	return out, nil
}

// UpsertCategory inserta o actualiza una categoría por ID.
func (r *CatalogRepo) UpsertCategory(ctx context.Context, c entity.Category) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO categories (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.ID, c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return storageErr("upsert category", err)
	}
	return nil
}

// UpsertProduct inserta o actualiza un producto por ID.
func (r *CatalogRepo) UpsertProduct(ctx context.Context, p entity.Product) error {
	if p.Price.IsNegative() {
		return domain.ErrInvalidInput
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, name, price, category_id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, category_id = EXCLUDED.category_id`,
		p.ID, p.Name, p.Price, p.CategoryID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return storageErr("upsert product", err)
	}
	return nil
}

func (r *CatalogRepo) queryProducts(ctx context.Context, query string, args ...any) ([]entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	defer rows.Close()
	out := []entity.Product{}
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID); err != nil {
			return nil, storageErr("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list products", err)
	}
	return out, nil
}
