package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for the AI functions and the intervention API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.HTTP.Addr
		}

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		handler := httpapi.NewHandler(app.Assist, app.Catalog, app.Lifecycle)
		server := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewRouter(ctx, handler),
			ReadHeaderTimeout: 10 * time.Second,
		}

		signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()
		logging.Info(ctx, "http server started", slog.String("addr", addr))

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve http")
			}
			return nil
		case <-signalCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errs.Wrap(err, "shutdown http server")
		}
		logging.Info(ctx, "http server stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default http.addr)")
}
