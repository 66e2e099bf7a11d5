package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:          "maintrack",
	Short:        "Maintenance intervention tracking",
	Long:         "Voice-driven maintenance intake, AI-assisted solutions and intervention lifecycle tracking.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: logLevel, Format: logFormat})
		if err != nil {
			return err
		}
		ctx := logging.WithLogger(cmd.Context(), logger)
		cmd.SetContext(logging.WithAttrs(ctx, slog.String("app", "maintrack")))
		return nil
	},
}

// Execute runs the command tree. A .env file in the working directory is
// loaded first so MT_* variables can live there.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn(ctx, "load .env failed", slog.Any("err", errs.Loggable(err)))
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(rootCmd.Context(), "command failed", slog.Any("err", errs.Loggable(err)))
		return err
	}
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file path (default ./configs/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}
