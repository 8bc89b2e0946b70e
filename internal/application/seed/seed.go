// Package seed carga el catálogo de demostración, las tarjetas conocidas y una set de ejemplo.
// Todas las escrituras son upserts: ejecutar Apply varias veces deja el mismo estado.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

// DemoCard tarjeta que trae una set precargada.
const DemoCard = "1112223334"

// DemoSet nombre de la set precargada de DemoCard.
const DemoSet = "Set 1"

// Categories categorías del menú con ID fijo.
var Categories = []entity.Category{
	{ID: 1, Name: "Burgers"},
	{ID: 2, Name: "Sides"},
	{ID: 3, Name: "Beverages"},
	{ID: 4, Name: "Wraps"},
	{ID: 5, Name: "Salads"},
	{ID: 6, Name: "Desserts"},
}

var productNames = map[int64][]string{
	1: {"Classic Burger", "Cheeseburger", "Double Burger", "Chicken Burger", "Veggie Burger"},
	2: {"Fries", "Onion Rings", "Mozzarella Sticks", "Chicken Nuggets", "Sweet Potato Fries"},
	3: {"Cola", "Sprite", "Fanta", "Iced Tea", "Water"},
	4: {"Chicken Wrap", "Veggie Wrap", "Beef Wrap", "Spicy Wrap", "Breakfast Wrap"},
	5: {"Caesar Salad", "Greek Salad", "Garden Salad", "Chicken Salad", "Tuna Salad"},
	6: {"Chocolate Cake", "Ice Cream", "Brownie", "Cheesecake", "Pudding"},
}

// Cards tarjetas de demostración.
var Cards = []string{
	"167405560536",
	"9876543210",
	"1122334455",
	"9988776655",
	"1231231231",
	"9879879879",
	"5556667778",
	"4443332221",
	DemoCard,
	"7778889990",
}

// Products devuelve los productos de demostración: ID = categoría*100 + posición (101..605).
func Products() []entity.Product {
	out := make([]entity.Product, 0, 30)
	for _, c := range Categories {
		for i, name := range productNames[c.ID] {
			id := c.ID*100 + int64(i) + 1
			out = append(out, entity.Product{ID: id, Name: name, Price: Price(id), CategoryID: c.ID})
		}
	}
	return out
}

// Price precio determinista en el rango [4.99, 19.98].
func Price(productID int64) decimal.Decimal {
	cents := (productID * 37) % 1500
	return decimal.New(499, -2).Add(decimal.New(cents, -2))
}

// Seeder escribe los datos de demostración a través de los puertos de repositorio.
type Seeder struct {
	catalog repository.CatalogWriter
	cards   repository.CardRepository
	sets    repository.SetRepository
}

// NewSeeder construye el seeder.
func NewSeeder(catalog repository.CatalogWriter, cards repository.CardRepository, sets repository.SetRepository) *Seeder {
	return &Seeder{catalog: catalog, cards: cards, sets: sets}
}

// Result resumen de lo escrito.
type Result struct {
	Categories int
	Products   int
	NewCards   int
}

// Apply carga categorías, productos, tarjetas y la set de ejemplo.
func (s *Seeder) Apply(ctx context.Context) (Result, error) {
	var res Result
	for _, c := range Categories {
		if err := s.catalog.UpsertCategory(ctx, c); err != nil {
			return res, fmt.Errorf("seed categoría %q: %w", c.Name, err)
		}
		res.Categories++
	}
	for _, p := range Products() {
		if err := s.catalog.UpsertProduct(ctx, p); err != nil {
			return res, fmt.Errorf("seed producto %d: %w", p.ID, err)
		}
		res.Products++
	}
	for _, id := range Cards {
		created, err := s.cards.EnsureCard(ctx, id)
		if err != nil {
			return res, fmt.Errorf("seed tarjeta %s: %w", id, err)
		}
		if created {
			res.NewCards++
		}
	}

	// Set 1 = Cola×2 + Fries×1
	items := []entity.SetItem{{ProductID: 301, Quantity: 2}, {ProductID: 201, Quantity: 1}}
	err := s.sets.CreateSet(ctx, DemoCard, DemoSet, items)
	if errors.Is(err, domain.ErrConflict) {
		err = s.sets.OverwriteSet(ctx, DemoCard, DemoSet, DemoSet, items)
	}
	if err != nil {
		return res, fmt.Errorf("seed set de ejemplo: %w", err)
	}
	return res, nil
}
