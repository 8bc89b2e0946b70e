package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/ingest"
	"github.com/Voldziu/ToCoZwykle/pkg/config"
)

// ScanOptions flags de scan.
type ScanOptions struct {
	*RootOptions
	Broker  string
	Topic   string
	Timeout time.Duration
}

// NewScanCommand publica una lectura de tarjeta en el topic del lector, como haría el hardware.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <rfid>",
		Short: "Simular la lectura de una tarjeta",
		Long: `Publica el identificador en el topic MQTT del lector de tarjetas.

Ejemplos:
  kioskctl scan 1112223334
  kioskctl scan 1112223334 --broker tcp://127.0.0.1:1883 --topic rfid/read`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if token == "" {
				return NewExitError(ExitCommandError, "rfid vacío")
			}
			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "cargar configuración", err)
			}
			mc := cfg.MQTT
			if opts.Broker != "" {
				mc.Broker = opts.Broker
			}
			if opts.Topic != "" {
				mc.Topic = opts.Topic
			}
			if !mc.Enabled() {
				return NewExitError(ExitCommandError, "no hay broker MQTT: usar --broker o MQTT_BROKER")
			}
			if err := ingest.Publish(mc, token, opts.Timeout); err != nil {
				return WrapExitError(ExitCommandError, "publicar lectura", err)
			}
			return opts.formatter(cmd).Success(map[string]string{"rfid": token, "topic": mc.Topic}, func(w io.Writer) {
				fmt.Fprintf(w, "Lectura %s publicada en %s.\n", token, mc.Topic)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Broker, "broker", "", "broker MQTT (por defecto MQTT_BROKER)")
	cmd.Flags().StringVar(&opts.Topic, "topic", "", "topic del lector (por defecto MQTT_TOPIC)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "tiempo máximo para conectar y publicar")

	return cmd
}
