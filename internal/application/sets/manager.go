// Package sets gestiona las colecciones con nombre de (producto, cantidad) asociadas a una tarjeta.
package sets

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/cart"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

// MaxNameLength longitud máxima (en runas) del nombre de una set.
const MaxNameLength = 64

// LineView línea de una set tal como se expone hacia fuera.
type LineView struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Manager casos de uso sobre sets. Cada llamada al repositorio va acotada por timeout.
type Manager struct {
	sets    repository.SetRepository
	catalog repository.CatalogRepository
	cards   repository.CardRepository
	timeout time.Duration
}

// NewManager construye el gestor. timeout <= 0 deja las llamadas sin límite propio.
func NewManager(sets repository.SetRepository, catalog repository.CatalogRepository, cards repository.CardRepository, timeout time.Duration) *Manager {
	return &Manager{sets: sets, catalog: catalog, cards: cards, timeout: timeout}
}

// NormalizeName recorta espacios y normaliza a NFC. Vacío o más de MaxNameLength runas es inválido.
func NormalizeName(name string) (string, error) {
	n := norm.NFC.String(strings.TrimSpace(name))
	if n == "" || utf8.RuneCountInString(n) > MaxNameLength {
		return "", domain.ErrInvalidInput
	}
	return n, nil
}

// List devuelve nombre de set -> líneas. Mapa vacío si la tarjeta no tiene ninguna.
func (m *Manager) List(ctx context.Context, cardID string) (map[string][]LineView, error) {
	if cardID == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()

	list, err := m.sets.GetSets(ctx, cardID)
	if err != nil {
		return nil, domain.Storage("get sets", err)
	}
	out := make(map[string][]LineView, len(list))
	for _, s := range list {
		lines := make([]LineView, 0, len(s.Lines))
		for _, l := range s.Lines {
			lines = append(lines, LineView{
				ProductID: l.Product.ID,
				Name:      l.Product.Name,
				Price:     l.Product.Price,
				Quantity:  l.Quantity,
			})
		}
		out[s.Name] = lines
	}
	return out, nil
}

// SaveAsNew crea una set nueva. ErrConflict si el nombre ya existe para la tarjeta.
func (m *Manager) SaveAsNew(ctx context.Context, cardID, name string, items []entity.SetItem) error {
	name, err := NormalizeName(name)
	if err != nil || cardID == "" {
		return domain.ErrInvalidInput
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()

	items, err = m.validateItems(ctx, items)
	if err != nil {
		return err
	}
	return domain.Storage("create set", m.sets.CreateSet(ctx, cardID, name, items))
}

// Overwrite reemplaza el contenido de una set existente y opcionalmente la renombra.
func (m *Manager) Overwrite(ctx context.Context, cardID, oldName, newName string, items []entity.SetItem) error {
	oldName, err := NormalizeName(oldName)
	if err != nil || cardID == "" {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(newName) == "" {
		newName = oldName
	}
	newName, err = NormalizeName(newName)
	if err != nil {
		return err
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()

	items, err = m.validateItems(ctx, items)
	if err != nil {
		return err
	}
	return domain.Storage("overwrite set", m.sets.OverwriteSet(ctx, cardID, oldName, newName, items))
}

// Rename cambia el nombre de una set.
func (m *Manager) Rename(ctx context.Context, cardID, oldName, newName string) error {
	oldName, err := NormalizeName(oldName)
	if err != nil || cardID == "" {
		return domain.ErrInvalidInput
	}
	newName, err = NormalizeName(newName)
	if err != nil {
		return err
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()
	return domain.Storage("rename set", m.sets.RenameSet(ctx, cardID, oldName, newName))
}

// Delete borra una set. Un segundo borrado devuelve ErrNotFound.
func (m *Manager) Delete(ctx context.Context, cardID, name string) error {
	name, err := NormalizeName(name)
	if err != nil || cardID == "" {
		return domain.ErrInvalidInput
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()
	return domain.Storage("delete set", m.sets.DeleteSet(ctx, cardID, name))
}

// LoadIntoCart proyecta una set a líneas de carrito con los precios actuales del catálogo.
// No modifica nada: la fusión la hace quien tiene el carrito.
func (m *Manager) LoadIntoCart(ctx context.Context, cardID, name string) ([]cart.Item, error) {
	name, err := NormalizeName(name)
	if err != nil || cardID == "" {
		return nil, domain.ErrInvalidInput
	}
	ctx, cancel := m.bound(ctx)
	defer cancel()

	list, err := m.sets.GetSets(ctx, cardID)
	if err != nil {
		return nil, domain.Storage("get sets", err)
	}
	for _, s := range list {
		if s.Name != name {
			continue
		}
		items := make([]cart.Item, 0, len(s.Lines))
		for _, l := range s.Lines {
			items = append(items, cart.Item{Product: l.Product, Quantity: l.Quantity})
		}
		return items, nil
	}
	return nil, domain.ErrNotFound
}

// ItemsFromNames resuelve nombre de producto -> cantidad en líneas por ID, ordenadas por nombre.
// ErrUnknownProduct si algún nombre no está en el catálogo.
func (m *Manager) ItemsFromNames(ctx context.Context, quantities map[string]int) ([]entity.SetItem, error) {
	if len(quantities) == 0 {
		return nil, domain.ErrInvalidInput
	}
	names := make([]string, 0, len(quantities))
	for n, q := range quantities {
		if q <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		names = append(names, n)
	}
	sort.Strings(names)

	ctx, cancel := m.bound(ctx)
	defer cancel()

	products, err := m.catalog.ProductsByName(ctx, names)
	if err != nil {
		return nil, domain.Storage("products by name", err)
	}
	items := make([]entity.SetItem, 0, len(names))
	for _, n := range names {
		p, ok := products[n]
		if !ok {
			return nil, domain.ErrUnknownProduct
		}
		items = append(items, entity.SetItem{ProductID: p.ID, Quantity: quantities[n]})
	}
	return items, nil
}

// Register registra la tarjeta y fusiona sus sets: crea las nuevas y sobrescribe las existentes.
// Todo se valida antes de escribir y la escritura es una única transacción: o entran todas o ninguna.
func (m *Manager) Register(ctx context.Context, cardID string, sets map[string]map[string]int) error {
	if strings.TrimSpace(cardID) == "" {
		return domain.ErrInvalidInput
	}

	plan := make([]entity.SetDraft, 0, len(sets))
	for raw, quantities := range sets {
		name, err := NormalizeName(raw)
		if err != nil {
			return err
		}
		items, err := m.ItemsFromNames(ctx, quantities)
		if err != nil {
			return err
		}
		plan = append(plan, entity.SetDraft{Name: name, Items: items})
	}
	sort.Slice(plan, func(i, j int) bool { return plan[i].Name < plan[j].Name })

	ctx, cancel := m.bound(ctx)
	defer cancel()

	if len(plan) == 0 {
		if _, err := m.cards.EnsureCard(ctx, cardID); err != nil {
			return domain.Storage("ensure card", err)
		}
		return nil
	}
	if err := m.sets.ReplaceSets(ctx, cardID, plan); err != nil {
		return domain.Storage("register sets", err)
	}
	return nil
}

// validateItems exige al menos una línea, cantidades positivas y productos existentes.
// Las líneas repetidas del mismo producto se suman conservando la primera posición.
func (m *Manager) validateItems(ctx context.Context, items []entity.SetItem) ([]entity.SetItem, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	merged := make([]entity.SetItem, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if i, ok := index[it.ProductID]; ok {
			if merged[i].Quantity > math.MaxInt-it.Quantity {
				return nil, domain.ErrInvalidQuantity
			}
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}

	ids := make([]int64, 0, len(merged))
	for _, it := range merged {
		ids = append(ids, it.ProductID)
	}
	found, err := m.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, domain.Storage("get products", err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, domain.ErrUnknownProduct
		}
	}
	return merged, nil
}

func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}
