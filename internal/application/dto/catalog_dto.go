package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// ProductResponse salida de un producto del menú.
type ProductResponse struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	CategoryID int64           `json:"category_id"`
}

// CategoriesFromEntities convierte entidades a DTO.
func CategoriesFromEntities(in []entity.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(in))
	for _, c := range in {
		out = append(out, CategoryResponse{CategoryID: c.ID, Name: c.Name})
	}
	return out
}

// ProductsFromEntities convierte entidades a DTO.
func ProductsFromEntities(in []entity.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(in))
	for _, p := range in {
		out = append(out, ProductResponse{ProductID: p.ID, Name: p.Name, Price: p.Price, CategoryID: p.CategoryID})
	}
	return out
}
