package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Voldziu/ToCoZwykle/internal/application/dto"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

// CatalogHandler lectura del menú.
type CatalogHandler struct {
	catalog repository.CatalogRepository
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(catalog repository.CatalogRepository) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Categories godoc
// @Summary      Listar categorías
// @Tags         catalog
// @Produce      json
// @Success      200  {array}   dto.CategoryResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /categories [get]
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	list, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, domain.Storage("list categories", err))
	}
	return c.JSON(dto.CategoriesFromEntities(list))
}

// Products godoc
// @Summary      Listar productos, opcionalmente de una categoría
// @Tags         catalog
// @Produce      json
// @Param        category  query  string  false  "Nombre de la categoría"
// @Success      200  {array}   dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /products [get]
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	list, err := h.catalog.ListProducts(c.UserContext(), c.Query("category"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return badRequest(c, "INVALID_FILTER", "categoría desconocida")
		}
		return writeError(c, domain.Storage("list products", err))
	}
	return c.JSON(dto.ProductsFromEntities(list))
}
