package sqlite

import (
	"context"
	"time"
)

// EnsureCard registra la tarjeta si es la primera vez que se ve.
func (s *Store) EnsureCard(ctx context.Context, id string) (bool, error) {
	return ensureCard(ctx, s.db, id)
}

func ensureCard(ctx context.Context, q Querier, id string) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO cards (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
		id, time.Now().UTC())
	if err != nil {
		return false, storageErr("ensure card", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("ensure card", err)
	}
	return n == 1, nil
}
