// Package postgres implementa los puertos de repositorio sobre PostgreSQL (pgx + pgxpool).
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
	"github.com/Voldziu/ToCoZwykle/pkg/config"
)

//go:embed schema.sql
var schemaSQL string

var _ repository.Store = (*Store)(nil)

// Store agrupa los repositorios sobre un mismo pool.
type Store struct {
	*CatalogRepo
	*CardRepo
	*SetRepo
	*OrderRepo
	pool *pgxpool.Pool
}

// Open conecta, aplica el esquema y devuelve el store listo.
func Open(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

// NewStore construye el store sobre un pool existente.
func NewStore(pool *pgxpool.Pool) *Store {
	tx := NewTxRunner(pool)
	return &Store{
		CatalogRepo: NewCatalogRepository(pool),
		CardRepo:    NewCardRepository(pool),
		SetRepo:     NewSetRepository(pool, tx),
		OrderRepo:   NewOrderRepository(tx),
		pool:        pool,
	}
}

// Migrate crea las tablas que falten. Es idempotente.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}

// Close cierra el pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
