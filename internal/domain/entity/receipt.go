package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt resultado de cerrar un pedido: copia congelada del carrito en el momento del checkout.
type Receipt struct {
	ID        string
	CardID    string
	Lines     []ReceiptLine
	Total     decimal.Decimal
	CreatedAt time.Time
}

// ReceiptLine línea del ticket con el precio unitario capturado al añadir al carrito.
type ReceiptLine struct {
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
