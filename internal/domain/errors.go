package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrConflict           = errors.New("el nombre ya existe para esta tarjeta")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnknownProduct     = errors.New("producto desconocido")
	ErrInvalidQuantity    = errors.New("la cantidad debe ser un entero positivo")
	ErrEmptyCart          = errors.New("el carrito está vacío")
	ErrNoActiveSession    = errors.New("no hay ninguna tarjeta activa")
	ErrSessionBusy        = errors.New("otra tarjeta tiene la sesión activa")
	ErrCheckoutInProgress = errors.New("hay un pedido en curso")
	ErrIngestBacklog      = errors.New("cola de lecturas de tarjeta llena")
	ErrStorage            = errors.New("fallo del almacenamiento")
)

// known errores que atraviesan las capas sin reenvolver.
var known = []error{
	ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnknownProduct, ErrInvalidQuantity,
	ErrEmptyCart, ErrNoActiveSession, ErrSessionBusy, ErrCheckoutInProgress,
	ErrIngestBacklog, ErrStorage,
}

// IsDomain indica si err ya es (o envuelve) un error de dominio.
func IsDomain(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// Storage envuelve un fallo del backend (driver, timeout, red) como ErrStorage conservando la causa.
// Los errores de dominio se devuelven tal cual.
func Storage(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
