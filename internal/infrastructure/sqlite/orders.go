package sqlite

import (
	"context"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// RecordOrder guarda cabecera y líneas del pedido en una sola transacción.
func (s *Store) RecordOrder(ctx context.Context, r *entity.Receipt) error {
	return s.withTx(ctx, func(q Querier) error {
		if _, err := ensureCard(ctx, q, r.CardID); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO orders (id, card_id, total, created_at) VALUES (?, ?, ?, ?)`,
			r.ID, r.CardID, r.Total.String(), r.CreatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return storageErr("insert order", err)
		}
		for i, l := range r.Lines {
			_, err := q.ExecContext(ctx, `
				INSERT INTO order_lines (order_id, position, product_id, name, quantity, unit_price, subtotal)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				r.ID, i, l.ProductID, l.Name, l.Quantity, l.UnitPrice.String(), l.Subtotal.String())
			if err != nil {
				return storageErr("insert order line", err)
			}
		}
		return nil
	})
}

// CountOrders número de pedidos registrados para la tarjeta.
func (s *Store) CountOrders(ctx context.Context, cardID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE card_id = ?`, cardID).Scan(&n); err != nil {
		return 0, storageErr("count orders", err)
	}
	return n, nil
}
