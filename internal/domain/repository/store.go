package repository

// Store agrupa todos los puertos que implementa un backend de almacenamiento completo.
type Store interface {
	CatalogRepository
	CatalogWriter
	CardRepository
	SetRepository
	OrderRepository
	Close() error
}
