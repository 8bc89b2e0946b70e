package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Voldziu/ToCoZwykle/internal/application/session"
	"github.com/Voldziu/ToCoZwykle/internal/domain/cart"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// ScanRequest identificación manual de una tarjeta desde la interfaz.
type ScanRequest struct {
	RFID string `json:"rfid"`
}

// AddItemRequest añadir producto al carrito de la sesión.
type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// SaveSetRequest guardar el carrito actual como set nueva.
type SaveSetRequest struct {
	SetName string `json:"set_name"`
}

// SetNameRequest nuevo nombre (renombrar o sobrescribir desde el carrito).
type SetNameRequest struct {
	SetNameNew string `json:"set_name_new"`
}

// CartLineResponse línea del carrito o del ticket.
type CartLineResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SessionResponse estado observable de la sesión.
type SessionResponse struct {
	State string             `json:"state"`
	RFID  string             `json:"rfid,omitempty"`
	Lines []CartLineResponse `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// SessionFromSnapshot convierte la instantánea del controlador.
func SessionFromSnapshot(s session.Snapshot) SessionResponse {
	return SessionResponse{
		State: string(s.State),
		RFID:  s.CardID,
		Lines: cartLines(s.Lines),
		Total: s.Total,
	}
}

func cartLines(in []cart.Line) []CartLineResponse {
	out := make([]CartLineResponse, 0, len(in))
	for _, l := range in {
		out = append(out, CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal(),
		})
	}
	return out
}

// ReceiptResponse ticket devuelto por el checkout.
type ReceiptResponse struct {
	ReceiptID string             `json:"receipt_id"`
	RFID      string             `json:"rfid"`
	Lines     []CartLineResponse `json:"lines"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

// ReceiptFromEntity convierte el ticket.
func ReceiptFromEntity(r *entity.Receipt) ReceiptResponse {
	lines := make([]CartLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return ReceiptResponse{ReceiptID: r.ID, RFID: r.CardID, Lines: lines, Total: r.Total, CreatedAt: r.CreatedAt}
}

// NoticeResponse aviso para la interfaz.
type NoticeResponse struct {
	Seq     uint64    `json:"seq"`
	Level   string    `json:"level"`
	Kind    string    `json:"kind"`
	RFID    string    `json:"rfid,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// NoticesFromSession convierte los avisos del controlador.
func NoticesFromSession(in []session.Notice) []NoticeResponse {
	out := make([]NoticeResponse, 0, len(in))
	for _, n := range in {
		out = append(out, NoticeResponse{Seq: n.Seq, Level: n.Level, Kind: n.Kind, RFID: n.CardID, Message: n.Message, At: n.At})
	}
	return out
}
