package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

var interventionCmd = &cobra.Command{
	Use:   "intervention",
	Short: "Inspect and update recorded interventions",
}

var interventionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List interventions, newest first",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		status, _ := cmd.Flags().GetString("status")
		machineID, _ := cmd.Flags().GetString("machine")
		technicianID, _ := cmd.Flags().GetString("technician")
		limit, _ := cmd.Flags().GetInt("limit")

		items, err := app.Lifecycle.List(ctx, ports.InterventionFilter{
			Status:       status,
			MachineID:    machineID,
			TechnicianID: technicianID,
			Limit:        limit,
		})
		if err != nil {
			logging.Error(ctx, "list interventions failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list interventions")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tMACHINE\tCREATED\tPROBLEM")
		for _, item := range items {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				item.ID,
				item.Status,
				item.Priority,
				derefOr(item.MachineID, "-"),
				item.CreatedAt.Local().Format(time.DateTime),
				truncate(item.ProblemDescription, 48),
			)
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "write intervention list")
		}
		return nil
	}),
}

var interventionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one intervention",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		item, err := app.Lifecycle.Get(ctx, id)
		if err != nil {
			return errs.Wrap(err, "get intervention")
		}
		return writeIntervention(cmd.OutOrStdout(), item)
	}),
}

var interventionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Move an intervention to another status",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		target, _ := cmd.Flags().GetString("to")

		item, err := app.Lifecycle.Transition(ctx, id, intervention.Status(target))
		if err != nil {
			var persistenceErr *intervention.PersistenceError
			if errors.As(err, &persistenceErr) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "status not saved, still %s\n", item.Status)
			}
			return errs.Wrap(err, "transition intervention")
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "intervention %s is now %s\n", item.ID, item.Status); err != nil {
			return errs.Wrap(err, "write status output")
		}
		return nil
	}),
}

var interventionUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Edit priority, problem description or AI solution",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetString("id")
		var patch intervention.DetailsPatch
		if cmd.Flags().Changed("priority") {
			raw, _ := cmd.Flags().GetString("priority")
			priority := intervention.Priority(raw)
			patch.Priority = &priority
		}
		if cmd.Flags().Changed("description") {
			description, _ := cmd.Flags().GetString("description")
			patch.ProblemDescription = &description
		}
		if cmd.Flags().Changed("solution") {
			solution, _ := cmd.Flags().GetString("solution")
			patch.AISolution = &solution
		}

		item, err := app.Lifecycle.UpdateDetails(ctx, id, patch)
		if err != nil {
			return errs.Wrap(err, "update intervention")
		}
		return writeIntervention(cmd.OutOrStdout(), item)
	}),
}

func writeIntervention(out io.Writer, item intervention.Intervention) error {
	resolved := "-"
	if item.ResolvedAt != nil {
		resolved = item.ResolvedAt.Local().Format(time.DateTime)
	}
	_, err := fmt.Fprintf(out,
		"ID: %s\nStatus: %s\nPriority: %s\nMachine: %s\nTechnician: %s\nCreated: %s\nUpdated: %s\nResolved: %s\nAudio: %s\n\nProblem:\n%s\n\nAI Solution:\n%s\n",
		item.ID,
		item.Status,
		item.Priority,
		derefOr(item.MachineID, "-"),
		derefOr(item.TechnicianID, "-"),
		item.CreatedAt.Local().Format(time.DateTime),
		item.UpdatedAt.Local().Format(time.DateTime),
		resolved,
		firstNonEmpty(item.AudioURL, "-"),
		item.ProblemDescription,
		firstNonEmpty(item.AISolution, "-"),
	)
	if err != nil {
		return errs.Wrap(err, "write intervention")
	}
	return nil
}

func derefOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func truncate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func init() {
	rootCmd.AddCommand(interventionCmd)
	interventionCmd.AddCommand(interventionListCmd, interventionShowCmd, interventionStatusCmd, interventionUpdateCmd)

	interventionListCmd.Flags().String("status", "", "Filter by status (pending|in_progress|resolved|cancelled)")
	interventionListCmd.Flags().String("machine", "", "Filter by machine id")
	interventionListCmd.Flags().String("technician", "", "Filter by technician id")
	interventionListCmd.Flags().Int("limit", 50, "Maximum rows (0 for all)")

	interventionShowCmd.Flags().String("id", "", "Intervention id")
	_ = interventionShowCmd.MarkFlagRequired("id")

	interventionStatusCmd.Flags().String("id", "", "Intervention id")
	interventionStatusCmd.Flags().String("to", "", "Target status")
	_ = interventionStatusCmd.MarkFlagRequired("id")
	_ = interventionStatusCmd.MarkFlagRequired("to")

	interventionUpdateCmd.Flags().String("id", "", "Intervention id")
	interventionUpdateCmd.Flags().String("priority", "", "Priority (low|medium|high|critical)")
	interventionUpdateCmd.Flags().String("description", "", "Problem description")
	interventionUpdateCmd.Flags().String("solution", "", "AI solution text")
	_ = interventionUpdateCmd.MarkFlagRequired("id")
}
