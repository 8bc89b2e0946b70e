package repository

import "context"

// CardRepository define el puerto de persistencia para tarjetas.
type CardRepository interface {
	// EnsureCard inserta la tarjeta si no existe. created indica si se creó ahora.
	EnsureCard(ctx context.Context, id string) (created bool, err error)
}
