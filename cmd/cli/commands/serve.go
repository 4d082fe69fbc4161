package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/pkg/api"
)

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the roster HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				app.Cfg.ListenAddr = addr
			}

			app.Logger.Debug("serve command", zap.String("addr", app.Cfg.ListenAddr))

			h := api.NewHandler(app.Cfg, app.Backend, app.Store, app.Logger)
			h.RegisterRoutes()

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.NewServer(app.Cfg.ListenAddr, h, app.Cfg.Solver.TimeLimit)
			return api.Serve(ctx, srv, app.Logger)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides listenAddr)")

	return cmd
}
