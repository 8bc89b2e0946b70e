package postgres

import (
	"context"

	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

var _ repository.CardRepository = (*CardRepo)(nil)

// CardRepo tarjetas sobre PostgreSQL.
type CardRepo struct {
	q Querier
}

// NewCardRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCardRepository(q Querier) *CardRepo {
	return &CardRepo{q: q}
}

// EnsureCard registra la tarjeta si no existía.
func (r *CardRepo) EnsureCard(ctx context.Context, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `INSERT INTO cards (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return false, storageErr("ensure card", err)
	}
	return tag.RowsAffected() == 1, nil
}
