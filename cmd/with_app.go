package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
)

const (
	appStartTimeout = 15 * time.Second
	appStopTimeout  = 10 * time.Second
)

// withApp builds the dependency graph for one command invocation and stops it
// (database, redis, nats) after run returns.
func withApp(run func(cmd *cobra.Command, app *bootstrap.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		app, stop, err := startApp(ctx)
		if err != nil {
			return err
		}
		defer stop()

		cmd.SetContext(ctx)
		return run(cmd, app)
	}
}

func startApp(ctx context.Context) (*bootstrap.App, func(), error) {
	var app *bootstrap.App
	fxApp := fx.New(
		bootstrap.Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		fx.Supply(fx.Annotated{Name: "configFile", Target: cfgFile}),
		fx.Populate(&app),
	)
	if err := fxApp.Err(); err != nil {
		logging.Error(ctx, "build application graph failed", slog.Any("err", errs.Loggable(err)))
		return nil, nil, errs.Wrap(err, "build application")
	}

	startCtx, cancel := context.WithTimeout(ctx, appStartTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		logging.Error(ctx, "start application failed", slog.Any("err", errs.Loggable(err)))
		return nil, nil, errs.Wrap(err, "start application")
	}

	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appStopTimeout)
		defer cancel()
		if err := fxApp.Stop(stopCtx); err != nil {
			logging.Warn(ctx, "stop application failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	return app, stop, nil
}
