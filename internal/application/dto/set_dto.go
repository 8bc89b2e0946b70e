package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
)

// RegisterRequest alta de tarjeta con sus sets: {"rfid": "...", "sets": {"Set 1": {"Cola": 2}}}.
type RegisterRequest struct {
	RFID string                    `json:"rfid"`
	Sets map[string]map[string]int `json:"sets"`
}

// SetLineResponse línea de una set.
type SetLineResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// SetsResponse nombre de set -> líneas.
type SetsResponse map[string][]SetLineResponse

// SetsFromViews convierte la vista del gestor de sets a DTO.
func SetsFromViews(in map[string][]sets.LineView) SetsResponse {
	out := make(SetsResponse, len(in))
	for name, lines := range in {
		ls := make([]SetLineResponse, 0, len(lines))
		for _, l := range lines {
			ls = append(ls, SetLineResponse{ProductID: l.ProductID, Name: l.Name, Price: l.Price, Quantity: l.Quantity})
		}
		out[name] = ls
	}
	return out
}

// DeleteSetRequest borrado de una set.
type DeleteSetRequest struct {
	SetName string `json:"set_name"`
	RFID    string `json:"rfid"`
}

// RenameSetRequest renombrado de una set.
type RenameSetRequest struct {
	SetNameOld string `json:"set_name_old"`
	RFID       string `json:"rfid"`
	SetNameNew string `json:"set_name_new"`
}

// CartEntry entrada del carrito enviado por el cliente. El precio se ignora: manda el del catálogo.
type CartEntry struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Cart nombre de producto -> entrada.
type Cart map[string]CartEntry

// Quantities devuelve nombre de producto -> cantidad.
func (c Cart) Quantities() map[string]int {
	out := make(map[string]int, len(c))
	for name, e := range c {
		out[name] = e.Quantity
	}
	return out
}

// AddSetRequest crea una set a partir de un carrito.
type AddSetRequest struct {
	SetName string `json:"set_name"`
	RFID    string `json:"rfid"`
	Cart    Cart   `json:"cart"`
}

// OverwriteSetRequest sobrescribe una set con un carrito y opcionalmente la renombra.
type OverwriteSetRequest struct {
	SetNameOld string `json:"set_name_old"`
	SetNameNew string `json:"set_name_new"`
	RFID       string `json:"rfid"`
	Cart       Cart   `json:"cart"`
}
