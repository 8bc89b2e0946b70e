package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/Voldziu/ToCoZwykle/internal/domain"
)

func TestViolaciones(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isUniqueViolation(fk))
	assert.True(t, isForeignKeyViolation(fk))
	assert.False(t, isForeignKeyViolation(errors.New("23503")))
}

func TestStorageErr(t *testing.T) {
	err := storageErr("get sets", errors.New("conn reset"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Contains(t, err.Error(), "postgres: get sets")

	assert.ErrorIs(t, storageErr("x", domain.ErrNotFound), domain.ErrNotFound)
}

func TestSchemaEmbebido(t *testing.T) {
	for _, table := range []string{"categories", "products", "cards", "sets", "set_lines", "orders", "order_lines"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}
