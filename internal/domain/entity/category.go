package entity

// Category agrupa productos del menú. Dato de referencia, inmutable tras la carga inicial.
type Category struct {
	ID   int64
	Name string
}
