package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/imovia/fluxo/internal/cli"
	httpAdapter "github.com/imovia/fluxo/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Hosts conversations over a JSON API: create runs, send input, reset,
stream state diffs over SSE and fetch archived transcripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()

		app, err := loadApp(sc, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("port") {
			app.Config.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		handler := httpAdapter.NewHandler(app.Manager,
			httpAdapter.WithLogger(app.Logger),
			httpAdapter.WithLoader(app.Loader),
			httpAdapter.WithDefaults(app.Config.RunConfig()),
			httpAdapter.WithRateLimit(app.Config.Server.RateLimitRPS, app.Config.Server.RateLimitBurst),
			httpAdapter.WithMaxInputSize(app.Config.Server.MaxInputSize),
			httpAdapter.WithMetrics(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Config.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting fluxo server", "address", srv.Addr, "flows", app.Config.Flows.Dir)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			app.Logger.Info("Start shutdown", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			app.Logger.Info("fluxo server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
