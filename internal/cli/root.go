// Package cli implementa kioskctl, la herramienta de operación del kiosko.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Voldziu/ToCoZwykle/internal/domain/repository"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/storage"
	"github.com/Voldziu/ToCoZwykle/pkg/config"
)

// RootOptions flags globales.
type RootOptions struct {
	Format string // "text" | "json"
	DBPath string // SQLite explícito; vacío usa la configuración del entorno
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand construye el comando raíz.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kioskctl",
		Short: "Operación del kiosko To co zwykle",
		Long:  "Carga de datos de demostración, lecturas de tarjeta simuladas y gestión de sets por tarjeta.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("formato %q inválido: debe ser uno de %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "ruta a un SQLite (por defecto DB_DRIVER/SQLITE_PATH del entorno)")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewSetsCommand(opts))

	return cmd
}

// openStore abre el almacenamiento indicado por --db o por la configuración.
func (o *RootOptions) openStore(ctx context.Context) (repository.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "cargar configuración", err)
	}
	if o.DBPath != "" {
		cfg.DB = config.DBConfig{Driver: config.DriverSQLite, SQLitePath: o.DBPath}
	}
	st, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "abrir almacenamiento", err)
	}
	return st, cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
