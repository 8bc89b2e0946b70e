package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

const productColumns = `p.id, p.name, p.price, p.category_id`

// ListCategories devuelve las categorías ordenadas por ID.
func (s *Store) ListCategories(ctx context.Context) ([]entity.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
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

// ListProducts devuelve los productos (todos o de una categoría por nombre) ordenados por ID.
func (s *Store) ListProducts(ctx context.Context, categoryName string) ([]entity.Product, error) {
	if categoryName == "" {
		return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products p ORDER BY p.id`)
	}

	var categoryID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, categoryName).Scan(&categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get category", err)
	}
	return s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.category_id = ? ORDER BY p.id`, categoryID)
}

// GetProduct obtiene un producto por ID.
func (s *Store) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	var p entity.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("get product", err)
	}
	return &p, nil
}

// GetProducts resuelve varios IDs en una sola consulta.
func (s *Store) GetProducts(ctx context.Context, ids []int64) (map[int64]entity.Product, error) {
	out := make(map[int64]entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	list, err := s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// ProductsByName resuelve nombres exactos en una sola consulta.
func (s *Store) ProductsByName(ctx context.Context, names []string) (map[string]entity.Product, error) {
	out := make(map[string]entity.Product, len(names))
	if len(names) == 0 {
		return out, nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	list, err := s.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.name IN (`+placeholders(len(names))+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.Name] = p
	}
	return out, nil
}

// UpsertCategory inserta o actualiza una categoría por ID.
func (s *Store) UpsertCategory(ctx context.Context, c entity.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`, c.ID, c.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return storageErr("upsert category", err)
	}
	return nil
}

// UpsertProduct inserta o actualiza un producto por ID.
func (s *Store) UpsertProduct(ctx context.Context, p entity.Product) error {
	if p.Price.IsNegative() {
		return domain.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, category_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, price = excluded.price, category_id = excluded.category_id`,
		p.ID, p.Name, p.Price.String(), p.CategoryID)
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

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]entity.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
