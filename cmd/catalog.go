package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	domaincatalog "maintrack/internal/domain/catalog"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage machines, technicians and parts",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert machines, technicians and parts from a TOML catalog file",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		file, _ := cmd.Flags().GetString("file")
		result, err := app.Catalog.SeedFile(ctx, file)
		if err != nil {
			logging.Error(ctx, "seed catalog failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "seed catalog")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "seeded machines=%d technicians=%d parts=%d\n",
			result.Machines, result.Technicians, result.Parts); err != nil {
			return errs.Wrap(err, "write seed output")
		}
		return nil
	}),
}

var catalogListCmd = &cobra.Command{
	Use:       "list <machines|technicians|parts>",
	Short:     "List reference entities",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"machines", "technicians", "parts"},
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		active, _ := cmd.Flags().GetBool("active")
		lowStock, _ := cmd.Flags().GetBool("low-stock")
		filter := ports.CatalogFilter{ActiveOnly: active}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		switch kind := strings.ToLower(strings.TrimSpace(cmd.Flags().Arg(0))); kind {
		case "machines":
			machines, err := app.Catalog.ListMachines(ctx, filter)
			if err != nil {
				return errs.Wrap(err, "list machines")
			}
			_, _ = fmt.Fprintln(w, "ID\tNAME\tLOCATION\tACTIVE")
			for _, machine := range machines {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", machine.ID, machine.DisplayName(), firstNonEmpty(machine.Location, "-"), machine.IsActive)
			}
		case "technicians":
			technicians, err := app.Catalog.ListTechnicians(ctx, filter)
			if err != nil {
				return errs.Wrap(err, "list technicians")
			}
			_, _ = fmt.Fprintln(w, "ID\tNAME\tSPECIALTY\tACTIVE")
			for _, technician := range technicians {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", technician.ID, technician.Name, firstNonEmpty(technician.Specialty, "-"), technician.IsActive)
			}
		case "parts":
			var parts []domaincatalog.Part
			var err error
			if lowStock {
				parts, err = app.Catalog.LowStockParts(ctx)
			} else {
				parts, err = app.Catalog.ListParts(ctx, filter)
			}
			if err != nil {
				return errs.Wrap(err, "list parts")
			}
			_, _ = fmt.Fprintln(w, "ID\tNAME\tPART NO\tQTY\tMIN\tMACHINE")
			for _, part := range parts {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", part.ID, part.Name, firstNonEmpty(part.PartNumber, "-"), part.Quantity, part.MinQuantity, derefOr(part.MachineID, "-"))
			}
		default:
			return fmt.Errorf("unknown catalog kind %q", kind)
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "write catalog list")
		}
		return nil
	}),
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <machine|technician> <id>",
	Short: "Delete a machine or technician; interventions keep a null reference",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		kind := strings.ToLower(strings.TrimSpace(cmd.Flags().Arg(0)))
		id := cmd.Flags().Arg(1)
		var err error
		switch kind {
		case "machine":
			err = app.Catalog.DeleteMachine(ctx, id)
		case "technician":
			err = app.Catalog.DeleteTechnician(ctx, id)
		default:
			return fmt.Errorf("unknown catalog kind %q", kind)
		}
		if err != nil {
			return errs.Wrapf(err, "delete %s", kind)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s: %s\n", kind, id); err != nil {
			return errs.Wrap(err, "write delete output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSeedCmd, catalogListCmd, catalogDeleteCmd)

	catalogSeedCmd.Flags().String("file", "configs/catalog.example.toml", "TOML catalog file")
	catalogListCmd.Flags().Bool("active", false, "Only active entities")
	catalogListCmd.Flags().Bool("low-stock", false, "Parts at or below their minimum quantity")
}
