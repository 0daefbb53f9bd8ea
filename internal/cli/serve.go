package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interiordesigner/internal/auth"
	"interiordesigner/internal/media"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/server"
	"interiordesigner/internal/sessions"
)

func newServeCommand(e *env) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			staging, err := media.NewLocalUploader("")
			if err != nil {
				return err
			}
			creds := auth.Credentials{User: e.cfg.Web.User, PasswordHash: e.cfg.Web.PasswordHash}
			authMW, err := auth.NewMiddleware(creds)
			if err != nil {
				return err
			}
			if !creds.Enabled() {
				e.logger.Warn("web UI is not password protected; set WEB_USER and WEB_PASSWORD_HASH")
			}

			if port == "" {
				port = e.cfg.Web.Port
			}
			srv := server.New(server.Options{
				Port: port,
				Sessions: sessions.Handler{
					Runner:        a.pipeline,
					Store:         a.store,
					Workspace:     a.workspace,
					Staging:       staging,
					Broker:        a.broker,
					ImagesEnabled: a.pipeline.ImagesEnabled(),
					Logger:        e.logger,
				},
				Auth:     authMW,
				Metrics:  metrics.NewHTTPMetrics(a.registry),
				Exporter: metrics.Handler(a.registry),
				Logger:   e.logger,
			})

			go func() {
				<-ctx.Done()
				e.logger.Info("shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					e.logger.Error("server shutdown error", "error", err)
				}
			}()

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (defaults to APP_PORT)")
	return cmd
}
