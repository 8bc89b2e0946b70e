package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

var _ repository.SetRepository = (*SetRepo)(nil)

// SetRepo sets y líneas sobre PostgreSQL. Las mutaciones van en una transacción con su cascada.
type SetRepo struct {
	q  Querier
	tx *TxRunner
}

// NewSetRepository construye el adaptador: q para lecturas, tx para mutaciones.
func NewSetRepository(q Querier, tx *TxRunner) *SetRepo {
	return &SetRepo{q: q, tx: tx}
}

// GetSets devuelve las sets de la tarjeta con sus líneas, ordenadas por nombre.
func (r *SetRepo) GetSets(ctx context.Context, cardID string) ([]entity.Set, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.id, s.name, p.id, p.name, p.price, p.category_id, l.quantity
		FROM sets s
		JOIN set_lines l ON l.set_id = s.id
		JOIN products p ON p.id = l.product_id
		WHERE s.card_id = $1
		ORDER BY s.name, l.position`, cardID)
	if err != nil {
		return nil, storageErr("get sets", err)
	}
	defer rows.Close()

	out := []entity.Set{}
	for rows.Next() {
		var (
			setID int64
			name  string
			line  entity.SetLine
		)
		if err := rows.Scan(&setID, &name,
			&line.Product.ID, &line.Product.Name, &line.Product.Price, &line.Product.CategoryID,
			&line.Quantity); err != nil {
			return nil, storageErr("scan set line", err)
		}
		if n := len(out); n == 0 || out[n-1].ID != setID {
			out = append(out, entity.Set{ID: setID, CardID: cardID, Name: name})
		}
		last := &out[len(out)-1]
		last.Lines = append(last.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get sets", err)
	}
	return out, nil
}

// CreateSet crea la set con sus líneas, registrando la tarjeta si hace falta.
func (r *SetRepo) CreateSet(ctx context.Context, cardID, name string, items []entity.SetItem) error {
	return r.tx.Run(ctx, func(q Querier) error {
		if _, err := NewCardRepository(q).EnsureCard(ctx, cardID); err != nil {
			return err
		}
		var setID int64
		err := q.QueryRow(ctx, `INSERT INTO sets (card_id, name) VALUES ($1, $2) RETURNING id`, cardID, name).Scan(&setID)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return storageErr("create set", err)
		}
		return insertSetLines(ctx, q, setID, items)
	})
}

// OverwriteSet renombra (si cambia) y reemplaza las líneas.
func (r *SetRepo) OverwriteSet(ctx context.Context, cardID, oldName, newName string, items []entity.SetItem) error {
	return r.tx.Run(ctx, func(q Querier) error {
		setID, err := lockSet(ctx, q, cardID, oldName)
		if err != nil {
			return err
		}
		if newName != oldName {
			if err := renameSet(ctx, q, setID, newName); err != nil {
				return err
			}
		}
		if _, err := q.Exec(ctx, `DELETE FROM set_lines WHERE set_id = $1`, setID); err != nil {
			return storageErr("clear set lines", err)
		}
		return insertSetLines(ctx, q, setID, items)
	})
}

// ReplaceSets crea o sobrescribe cada set en una única transacción. Se consulta antes de
// insertar porque un INSERT fallido aborta la transacción entera.
func (r *SetRepo) ReplaceSets(ctx context.Context, cardID string, sets []entity.SetDraft) error {
	return r.tx.Run(ctx, func(q Querier) error {
		if _, err := NewCardRepository(q).EnsureCard(ctx, cardID); err != nil {
			return err
		}
		for _, d := range sets {
			setID, err := lockSet(ctx, q, cardID, d.Name)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				err = q.QueryRow(ctx, `INSERT INTO sets (card_id, name) VALUES ($1, $2) RETURNING id`, cardID, d.Name).Scan(&setID)
				if err != nil {
					if isUniqueViolation(err) {
						return domain.ErrConflict
					}
					return storageErr("create set", err)
				}
			case err != nil:
				return err
			default:
				if _, err := q.Exec(ctx, `DELETE FROM set_lines WHERE set_id = $1`, setID); err != nil {
					return storageErr("clear set lines", err)
				}
			}
			if err := insertSetLines(ctx, q, setID, d.Items); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenameSet cambia el nombre de una set.
func (r *SetRepo) RenameSet(ctx context.Context, cardID, oldName, newName string) error {
	return r.tx.Run(ctx, func(q Querier) error {
		setID, err := lockSet(ctx, q, cardID, oldName)
		if err != nil {
			return err
		}
		return renameSet(ctx, q, setID, newName)
	})
}

// DeleteSet borra la set; las líneas caen por ON DELETE CASCADE.
func (r *SetRepo) DeleteSet(ctx context.Context, cardID, name string) error {
	return r.tx.Run(ctx, func(q Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM sets WHERE card_id = $1 AND name = $2`, cardID, name)
		if err != nil {
			return storageErr("delete set", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// lockSet busca la set y la bloquea hasta el fin de la transacción.
func lockSet(ctx context.Context, q Querier, cardID, name string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM sets WHERE card_id = $1 AND name = $2 FOR UPDATE`, cardID, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, storageErr("find set", err)
	}
	return id, nil
}

func renameSet(ctx context.Context, q Querier, setID int64, newName string) error {
	if _, err := q.Exec(ctx, `UPDATE sets SET name = $2 WHERE id = $1`, setID, newName); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return storageErr("rename set", err)
	}
	return nil
}

func insertSetLines(ctx context.Context, q Querier, setID int64, items []entity.SetItem) error {
	for i, it := range items {
		if it.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		_, err := q.Exec(ctx,
			`INSERT INTO set_lines (set_id, position, product_id, quantity) VALUES ($1, $2, $3, $4)`,
			setID, i, it.ProductID, it.Quantity)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrUnknownProduct
			}
			if isUniqueViolation(err) {
				return domain.ErrInvalidInput
			}
			return storageErr("insert set line", err)
		}
	}
	return nil
}
