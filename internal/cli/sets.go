package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Voldziu/ToCoZwykle/internal/application/dto"
	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/domain"
)

// NewSetsCommand agrupa la gestión de sets de una tarjeta.
func NewSetsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sets",
		Short: "Gestionar las sets de una tarjeta",
	}
	cmd.AddCommand(newSetsListCommand(opts))
	cmd.AddCommand(newSetsRenameCommand(opts))
	cmd.AddCommand(newSetsDeleteCommand(opts))
	return cmd
}

// withManager abre el almacenamiento y ejecuta fn con un gestor de sets.
func withManager(cmd *cobra.Command, opts *RootOptions, fn func(m *sets.Manager) error) error {
	st, cfg, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(sets.NewManager(st, st, st, cfg.Kiosk.StorageTimeout))
}

// domainExit traduce errores de dominio a códigos de salida.
func domainExit(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) || !domain.IsDomain(err) {
		return WrapExitError(ExitCommandError, op, err)
	}
	return WrapExitError(ExitFailure, op, err)
}

func newSetsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <rfid>",
		Short: "Listar las sets de una tarjeta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(m *sets.Manager) error {
				views, err := m.List(cmd.Context(), args[0])
				if err != nil {
					return domainExit("listar sets", err)
				}
				out := dto.SetsFromViews(views)
				return opts.formatter(cmd).Success(out, func(w io.Writer) {
					if len(out) == 0 {
						fmt.Fprintf(w, "La tarjeta %s no tiene sets.\n", args[0])
						return
					}
					names := make([]string, 0, len(out))
					for n := range out {
						names = append(names, n)
					}
					sort.Strings(names)
					for _, n := range names {
						fmt.Fprintf(w, "%s\n", n)
						for _, l := range out[n] {
							fmt.Fprintf(w, "  %d x %s (%s)\n", l.Quantity, l.Name, l.Price.StringFixed(2))
						}
					}
				})
			})
		},
	}
}

func newSetsRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <rfid> <nombre> <nuevo-nombre>",
		Short: "Renombrar una set",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(m *sets.Manager) error {
				if err := m.Rename(cmd.Context(), args[0], args[1], args[2]); err != nil {
					return domainExit("renombrar set", err)
				}
				return opts.formatter(cmd).Success(map[string]string{"rfid": args[0], "set_name": args[2]}, func(w io.Writer) {
					fmt.Fprintf(w, "Set %q renombrada a %q.\n", args[1], args[2])
				})
			})
		},
	}
}

func newSetsDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rfid> <nombre>",
		Short: "Borrar una set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, opts, func(m *sets.Manager) error {
				if err := m.Delete(cmd.Context(), args[0], args[1]); err != nil {
					return domainExit("borrar set", err)
				}
				return opts.formatter(cmd).Success(map[string]string{"rfid": args[0], "set_name": args[1]}, func(w io.Writer) {
					fmt.Fprintf(w, "Set %q borrada.\n", args[1])
				})
			})
		},
	}
}
