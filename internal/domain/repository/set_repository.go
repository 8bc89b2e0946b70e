package repository

import (
	"context"

	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// SetRepository define el puerto de persistencia para sets y sus líneas.
// Cada mutación es atómica junto con la cascada sobre las líneas.
type SetRepository interface {
	// GetSets devuelve las sets de la tarjeta ordenadas por nombre; slice vacío si no tiene ninguna.
	GetSets(ctx context.Context, cardID string) ([]entity.Set, error)
	// CreateSet falla con domain.ErrConflict si el nombre ya existe para la tarjeta.
	CreateSet(ctx context.Context, cardID, name string, items []entity.SetItem) error
	// OverwriteSet renombra (si cambia) y reemplaza todas las líneas.
	// domain.ErrNotFound si oldName no existe; domain.ErrConflict si newName es de otra set.
	OverwriteSet(ctx context.Context, cardID, oldName, newName string, items []entity.SetItem) error
	// ReplaceSets registra la tarjeta y crea o sobrescribe cada set en una sola transacción.
	// Si una falla no queda escrita ninguna.
	ReplaceSets(ctx context.Context, cardID string, sets []entity.SetDraft) error
	RenameSet(ctx context.Context, cardID, oldName, newName string) error
	DeleteSet(ctx context.Context, cardID, name string) error
}
