package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
)

var initDbCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create or migrate the machines, technicians, parts and interventions tables",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}
		if _, err := fmt.Fprintf(out, "schema ready (%s): %s\n", app.Config.Database.Driver, app.Config.Database.DSN); err != nil {
			return errs.Wrap(err, "write init-db output")
		}

		seedFile, _ := cmd.Flags().GetString("seed")
		if strings.TrimSpace(seedFile) == "" {
			return nil
		}
		result, err := app.Catalog.SeedFile(ctx, seedFile)
		if err != nil {
			return errs.Wrap(err, "seed catalog")
		}
		logging.Info(ctx, "catalog seeded on init",
			slog.String("file", seedFile),
			slog.Int("machines", result.Machines),
			slog.Int("technicians", result.Technicians),
			slog.Int("parts", result.Parts),
		)
		if _, err := fmt.Fprintf(out, "seeded machines=%d technicians=%d parts=%d\n", result.Machines, result.Technicians, result.Parts); err != nil {
			return errs.Wrap(err, "write init-db output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(initDbCmd)
	initDbCmd.Flags().String("seed", "", "TOML catalog file to load after migrating")
}
