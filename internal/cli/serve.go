package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiForms/internal/app"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP API until interrupted. On SIGINT or SIGTERM the server stops
accepting requests and waits for in-flight notifications before exiting.

Examples:
  oxiforms serve
  oxiforms serve --addr :9000 --db /var/lib/oxiforms/forms.sqlite`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.config()
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			log := newLogger(cfg)

			a, err := app.New(cfg, log, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides FORMS_ADDR)")
	return cmd
}
