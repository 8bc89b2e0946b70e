package entity

// Set es un conjunto con nombre de (producto, cantidad) que pertenece a una única tarjeta.
// El nombre es único dentro de las sets de esa tarjeta, no globalmente.
type Set struct {
	ID     int64
	CardID string
	Name   string
	Lines  []SetLine // en orden de inserción
}

// SetLine línea de un set con el producto ya resuelto.
type SetLine struct {
	Product  Product
	Quantity int
}

// SetItem línea de escritura: referencia al producto por ID y cantidad (>= 1).
type SetItem struct {
	ProductID int64
	Quantity  int
}

// SetDraft set completa para escribir de una vez.
type SetDraft struct {
	Name  string
	Items []SetItem
}
