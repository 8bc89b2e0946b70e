package repository

import (
	"context"

	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// CatalogRepository define el puerto de lectura del catálogo (categorías y productos).
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]entity.Category, error)
	// ListProducts filtra por nombre de categoría; "" devuelve todos.
	// Un filtro que no corresponde a ninguna categoría devuelve domain.ErrNotFound.
	ListProducts(ctx context.Context, categoryName string) ([]entity.Product, error)
	// GetProduct devuelve domain.ErrNotFound si el producto no existe.
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	// GetProducts resuelve varios IDs en una sola consulta; los ausentes no aparecen en el mapa.
	GetProducts(ctx context.Context, ids []int64) (map[int64]entity.Product, error)
	// ProductsByName resuelve nombres en una sola consulta; los ausentes no aparecen en el mapa.
	ProductsByName(ctx context.Context, names []string) (map[string]entity.Product, error)
}

// CatalogWriter carga de datos de referencia (seeder). Las operaciones son idempotentes.
type CatalogWriter interface {
	UpsertCategory(ctx context.Context, category entity.Category) error
	UpsertProduct(ctx context.Context, product entity.Product) error
}
