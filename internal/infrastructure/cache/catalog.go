package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Voldziu/ToCoZwykle/internal/domain/entity"
	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
)

const (
	keyCategories = "kiosk:catalog:categories"
	keyProducts   = "kiosk:catalog:products:"
)

var _ repository.CatalogRepository = (*CatalogCache)(nil)

// CatalogCache decorador de CatalogRepository que cachea los listados.
// Si Redis falla se sirve directamente del repositorio; la caché nunca hace fallar una lectura.
type CatalogCache struct {
	repository.CatalogRepository
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCatalogCache envuelve inner.
func NewCatalogCache(inner repository.CatalogRepository, store Store, ttl time.Duration, log zerolog.Logger) *CatalogCache {
	return &CatalogCache{CatalogRepository: inner, store: store, ttl: ttl, log: log}
}

// ListCategories lee de la caché o del repositorio.
func (c *CatalogCache) ListCategories(ctx context.Context) ([]entity.Category, error) {
	var out []entity.Category
	if c.load(ctx, keyCategories, &out) {
		return out, nil
	}
	out, err := c.CatalogRepository.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, keyCategories, out)
	return out, nil
}

// ListProducts lee de la caché o del repositorio. Un filtro inexistente no se cachea.
func (c *CatalogCache) ListProducts(ctx context.Context, categoryName string) ([]entity.Product, error) {
	key := keyProducts + categoryName
	var out []entity.Product
	if c.load(ctx, key, &out) {
		return out, nil
	}
	out, err := c.CatalogRepository.ListProducts(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, out)
	return out, nil
}

// Invalidate borra los listados cacheados (tras un seed).
func (c *CatalogCache) Invalidate(ctx context.Context, categories []string) error {
	keys := []string{keyCategories, keyProducts}
	for _, name := range categories {
		keys = append(keys, keyProducts+name)
	}
	return c.store.Del(ctx, keys...)
}

func (c *CatalogCache) load(ctx context.Context, key string, dest any) bool {
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn().Err(err).Str("key", key).Msg("caché no disponible, leyendo del repositorio")
		}
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("entrada de caché corrupta")
		return false
	}
	return true
}

func (c *CatalogCache) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo escribir en la caché")
	}
}
