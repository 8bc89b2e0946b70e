package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voldziu/ToCoZwykle/internal/application/seed"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/sqlite"
	"github.com/Voldziu/ToCoZwykle/pkg/config"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingCatalog struct {
	repository.CatalogRepository
	products int
}

func (c *countingCatalog) ListProducts(ctx context.Context, name string) ([]entity.Product, error) {
	c.products++
	return c.CatalogRepository.ListProducts(ctx, name)
}

func seededCatalog(t *testing.T) *countingCatalog {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, err = seed.NewSeeder(store, store, store).Apply(context.Background())
	require.NoError(t, err)
	return &countingCatalog{CatalogRepository: store}
}

func TestCatalogCache_SegundaLecturaDesdeCache(t *testing.T) {
	inner := seededCatalog(t)
	c := NewCatalogCache(inner, newMemStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := c.ListProducts(ctx, "Beverages")
	require.NoError(t, err)
	second, err := c.ListProducts(ctx, "Beverages")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.products)
	require.Len(t, second, len(first))
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.True(t, first[0].Price.Equal(second[0].Price))

	cats, err := c.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 6)
}

func TestCatalogCache_FiltroInexistenteNoSeCachea(t *testing.T) {
	inner := seededCatalog(t)
	mem := newMemStore()
	c := NewCatalogCache(inner, mem, time.Minute, zerolog.Nop())

	_, err := c.ListProducts(context.Background(), "Pizza")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, mem.data)
}

func TestCatalogCache_RedisCaidoNoRompeLecturas(t *testing.T) {
	inner := seededCatalog(t)
	mem := newMemStore()
	mem.err = errors.New("connection refused")
	c := NewCatalogCache(inner, mem, time.Minute, zerolog.Nop())

	list, err := c.ListProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, list, 30)

	// los métodos no cacheados pasan directo
	p, err := c.GetProduct(context.Background(), 301)
	require.NoError(t, err)
	assert.Equal(t, "Cola", p.Name)
}

func TestCatalogCache_Invalidate(t *testing.T) {
	inner := seededCatalog(t)
	mem := newMemStore()
	c := NewCatalogCache(inner, mem, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := c.ListProducts(ctx, "Sides")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, []string{"Sides"}))
	_, err = c.ListProducts(ctx, "Sides")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.products)
}

func TestNewClient_SinServidor(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
