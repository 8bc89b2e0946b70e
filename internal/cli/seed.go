package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Voldziu/ToCoZwykle/internal/application/seed"
)

// SeedResult salida de seed.
type SeedResult struct {
	Categories int `json:"categories"`
	Products   int `json:"products"`
	NewCards   int `json:"new_cards"`
}

// NewSeedCommand carga el catálogo de demostración, las tarjetas y la set de ejemplo.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Cargar el catálogo de demostración",
		Long: `Carga las 6 categorías y 30 productos de demostración, las tarjetas conocidas
y la set "Set 1" de la tarjeta 1112223334. Es idempotente.

Ejemplos:
  kioskctl seed
  kioskctl seed --db ./kiosk_db.sqlite --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, _, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := seed.NewSeeder(st, st, st).Apply(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "seed", err)
			}
			out := SeedResult{Categories: res.Categories, Products: res.Products, NewCards: res.NewCards}
			return opts.formatter(cmd).Success(out, func(w io.Writer) {
				fmt.Fprintf(w, "Catálogo cargado: %d categorías, %d productos, %d tarjetas nuevas.\n",
					out.Categories, out.Products, out.NewCards)
			})
		},
	}
}
