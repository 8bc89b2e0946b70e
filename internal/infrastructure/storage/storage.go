// Package storage elige el backend de persistencia según la configuración.
package storage

import (
	"context"
	"fmt"

	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/postgres"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/sqlite"
	"github.com/Voldziu/ToCoZwykle/pkg/config"
)

// Open abre el store indicado por DB_DRIVER.
func Open(ctx context.Context, cfg config.DBConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", cfg.SQLitePath, err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("driver de almacenamiento desconocido: %q", cfg.Driver)
	}
}
