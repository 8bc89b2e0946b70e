package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
)

// GetSets devuelve las sets de la tarjeta con sus líneas, ordenadas por nombre.
func (s *Store) GetSets(ctx context.Context, cardID string) ([]entity.Set, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, `+productColumns+`, l.quantity
		FROM sets s
		JOIN set_lines l ON l.set_id = s.id
		JOIN products p ON p.id = l.product_id
		WHERE s.card_id = ?
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

// CreateSet crea la set con sus líneas. Registra la tarjeta si aún no existía.
func (s *Store) CreateSet(ctx context.Context, cardID, name string, items []entity.SetItem) error {
	return s.withTx(ctx, func(q Querier) error {
		if _, err := ensureCard(ctx, q, cardID); err != nil {
			return err
		}
		res, err := q.ExecContext(ctx, `INSERT INTO sets (card_id, name) VALUES (?, ?)`, cardID, name)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return storageErr("create set", err)
		}
		setID, err := res.LastInsertId()
		if err != nil {
			return storageErr("create set", err)
		}
		return insertLines(ctx, q, setID, items)
	})
}

// OverwriteSet renombra (si newName difiere) y reemplaza todas las líneas en una transacción.
func (s *Store) OverwriteSet(ctx context.Context, cardID, oldName, newName string, items []entity.SetItem) error {
	return s.withTx(ctx, func(q Querier) error {
		setID, err := findSet(ctx, q, cardID, oldName)
		if err != nil {
			return err
		}
		if newName != oldName {
			if _, err := q.ExecContext(ctx, `UPDATE sets SET name = ? WHERE id = ?`, newName, setID); err != nil {
				if isUniqueViolation(err) {
					return domain.ErrConflict
				}
				return storageErr("rename set", err)
			}
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM set_lines WHERE set_id = ?`, setID); err != nil {
			return storageErr("clear set lines", err)
		}
		return insertLines(ctx, q, setID, items)
	})
}

// ReplaceSets crea las sets que no existen y reemplaza las líneas de las que sí, todo en una transacción.
func (s *Store) ReplaceSets(ctx context.Context, cardID string, sets []entity.SetDraft) error {
	return s.withTx(ctx, func(q Querier) error {
		if _, err := ensureCard(ctx, q, cardID); err != nil {
			return err
		}
		for _, d := range sets {
			setID, err := findSet(ctx, q, cardID, d.Name)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				res, err := q.ExecContext(ctx, `INSERT INTO sets (card_id, name) VALUES (?, ?)`, cardID, d.Name)
				if err != nil {
					return storageErr("create set", err)
				}
				if setID, err = res.LastInsertId(); err != nil {
					return storageErr("create set", err)
				}
			case err != nil:
				return err
			default:
				if _, err := q.ExecContext(ctx, `DELETE FROM set_lines WHERE set_id = ?`, setID); err != nil {
					return storageErr("clear set lines", err)
				}
			}
			if err := insertLines(ctx, q, setID, d.Items); err != nil {
				return err
			}
		}
		return nil
	})
}

// RenameSet cambia el nombre de una set de la tarjeta.
func (s *Store) RenameSet(ctx context.Context, cardID, oldName, newName string) error {
	return s.withTx(ctx, func(q Querier) error {
		setID, err := findSet(ctx, q, cardID, oldName)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `UPDATE sets SET name = ? WHERE id = ?`, newName, setID); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return storageErr("rename set", err)
		}
		return nil
	})
}

// DeleteSet borra la set y sus líneas.
func (s *Store) DeleteSet(ctx context.Context, cardID, name string) error {
	return s.withTx(ctx, func(q Querier) error {
		setID, err := findSet(ctx, q, cardID, name)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM set_lines WHERE set_id = ?`, setID); err != nil {
			return storageErr("delete set lines", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM sets WHERE id = ?`, setID); err != nil {
			return storageErr("delete set", err)
		}
		return nil
	})
}

func findSet(ctx context.Context, q Querier, cardID, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM sets WHERE card_id = ? AND name = ?`, cardID, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, storageErr("find set", err)
	}
	return id, nil
}

func insertLines(ctx context.Context, q Querier, setID int64, items []entity.SetItem) error {
	for i, it := range items {
		if it.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO set_lines (set_id, position, product_id, quantity) VALUES (?, ?, ?, ?)`,
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
