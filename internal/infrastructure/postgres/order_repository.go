package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos cerrados sobre PostgreSQL.
type OrderRepo struct {
	tx *TxRunner
}

// NewOrderRepository construye el adaptador.
func NewOrderRepository(tx *TxRunner) *OrderRepo {
	return &OrderRepo{tx: tx}
}

// RecordOrder guarda cabecera y líneas; las líneas van en un batch dentro de la misma tx.
func (r *OrderRepo) RecordOrder(ctx context.Context, rc *entity.Receipt) error {
	return r.tx.Run(ctx, func(q Querier) error {
		if _, err := NewCardRepository(q).EnsureCard(ctx, rc.CardID); err != nil {
			return err
		}
		_, err := q.Exec(ctx,
			`INSERT INTO orders (id, card_id, total, created_at) VALUES ($1, $2, $3, $4)`,
			rc.ID, rc.CardID, rc.Total, rc.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return storageErr("insert order", err)
		}

		tx, ok := q.(pgx.Tx)
		if !ok {
			return storageErr("insert order lines", errTxRequired)
		}
		batch := &pgx.Batch{}
		for i, l := range rc.Lines {
			batch.Queue(`
				INSERT INTO order_lines (order_id, position, product_id, name, quantity, unit_price, subtotal)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rc.ID, i, l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.Subtotal)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return storageErr("insert order lines", err)
		}
		return nil
	})
}
