// Package cart implementa el carrito de la sesión como valor inmutable: cada operación
// devuelve un carrito nuevo y deja intacto el original. No persiste nada.
//
// Las líneas se identifican por ID de producto. Repetir Add suma cantidades y conserva el
// precio unitario visto la primera vez, de modo que un cambio de precio a mitad de sesión
// no altera un carrito abierto.
package cart

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// Line línea del carrito con el precio unitario capturado al añadir.
type Line struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal cantidad × precio unitario.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item entrada para fusionar varias líneas de golpe (p. ej. al aplicar una set).
type Item struct {
	Product  entity.Product
	Quantity int
}

// Cart carrito de la sesión. El valor cero es un carrito vacío.
type Cart struct {
	lines []Line
}

// Empty devuelve un carrito vacío.
func Empty() Cart { return Cart{} }

// Add añade quantity unidades del producto.
func (c Cart) Add(p entity.Product, quantity int) (Cart, error) {
	if quantity <= 0 {
		return c, domain.ErrInvalidQuantity
	}
	if p.Price.IsNegative() {
		return c, domain.ErrInvalidInput
	}
	lines := make([]Line, len(c.lines), len(c.lines)+1)
	copy(lines, c.lines)
	for i := range lines {
		if lines[i].ProductID == p.ID {
			if lines[i].Quantity > math.MaxInt-quantity {
				return c, domain.ErrInvalidQuantity
			}
			lines[i].Quantity += quantity
			return Cart{lines: lines}, nil
		}
	}
	lines = append(lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  quantity,
		UnitPrice: p.Price,
	})
	return Cart{lines: lines}, nil
}

// AddItems fusiona todas las líneas o ninguna: si alguna es inválida devuelve el carrito original.
func (c Cart) AddItems(items []Item) (Cart, error) {
	next := c
	for _, it := range items {
		var err error
		next, err = next.Add(it.Product, it.Quantity)
		if err != nil {
			return c, err
		}
	}
	return next, nil
}

// Remove quita la línea del producto. ok es false si no estaba.
func (c Cart) Remove(productID int64) (next Cart, ok bool) {
	for i, l := range c.lines {
		if l.ProductID != productID {
			continue
		}
		lines := make([]Line, 0, len(c.lines)-1)
		lines = append(lines, c.lines[:i]...)
		lines = append(lines, c.lines[i+1:]...)
		return Cart{lines: lines}, true
	}
	return c, false
}

// Lines devuelve una copia de las líneas en orden de inserción.
func (c Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len número de líneas distintas.
func (c Cart) Len() int { return len(c.lines) }

// IsEmpty indica si no hay líneas.
func (c Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Quantity cantidad acumulada de un producto (0 si no está).
func (c Cart) Quantity(productID int64) int {
	for _, l := range c.lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// Total suma exacta de cantidad × precio unitario.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// SetItems proyecta el carrito a líneas de set (producto + cantidad).
func (c Cart) SetItems() []entity.SetItem {
	out := make([]entity.SetItem, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, entity.SetItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}
