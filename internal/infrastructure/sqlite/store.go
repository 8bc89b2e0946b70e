// Package sqlite implementa los puertos de repositorio sobre un archivo SQLite local.
// Es el backend por defecto del kiosko: un único terminal, un único archivo.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

//go:embed schema.sql
var schemaSQL string

// Versiones del esquema:
// 0 - catálogo, tarjetas y sets
// 1 - pedidos (orders + order_lines)
const currentSchemaVersion = 1

var _ repository.Store = (*Store)(nil)

// Querier abstrae *sql.DB y *sql.Tx para que las consultas funcionen con o sin transacción.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store backend SQLite. Seguro para uso concurrente: database/sql serializa sobre una conexión.
type Store struct {
	db *sql.DB
}

// Open crea o abre la base en path, aplica pragmas y migraciones. Es idempotente.
func Open(path string) (*Store, error) {
	// _foreign_keys en el DSN se aplica también a conexiones reabiertas por el pool.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("abrir base sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("conectar sqlite: %w", err)
	}

	// SQLite admite un solo escritor; una conexión evita SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("aplicar pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("aplicar esquema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close cierra la conexión.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB expone la conexión para consultas directas (tests y herramientas).
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("ejecutar %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("ejecutar schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations aplica migraciones incrementales según PRAGMA user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("leer user_version: %w", err)
	}
	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("fijar user_version: %w", err)
	}
	return nil
}

// migrateToV1 añade las tablas de pedidos.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id         TEXT PRIMARY KEY,
			card_id    TEXT NOT NULL REFERENCES cards(id),
			total      TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS order_lines (
			order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			position   INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			name       TEXT NOT NULL,
			quantity   INTEGER NOT NULL,
			unit_price TEXT NOT NULL,
			subtotal   TEXT NOT NULL,
			PRIMARY KEY (order_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_orders_card ON orders(card_id);
	`)
	if err != nil {
		return fmt.Errorf("migrar a v1: %w", err)
	}
	return nil
}

// withTx ejecuta fn dentro de una transacción; Commit si fn no falla, Rollback en otro caso.
func (s *Store) withTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation detecta violaciones de UNIQUE o PRIMARY KEY.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isForeignKeyViolation detecta referencias a filas inexistentes (p. ej. un producto desconocido).
func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

func storageErr(op string, err error) error {
	return domain.Storage("sqlite: "+op, err)
}
