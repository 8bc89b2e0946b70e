package entity

import "time"

// Card es la tarjeta de proximidad del cliente. El ID es el token opaco leído por el lector.
// Se crea la primera vez que se ve y nunca se borra.
type Card struct {
	ID        string
	CreatedAt time.Time
}
