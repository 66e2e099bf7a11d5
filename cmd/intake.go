package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	domainintake "maintrack/internal/domain/intake"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/audio"
	"maintrack/internal/ports"
	"maintrack/internal/usecase/intake"
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Headless intervention intake",
}

var intakeRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Record from an audio input, transcribe, generate a solution and save",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		input, _ := cmd.Flags().GetString("input")
		duration, _ := cmd.Flags().GetDuration("duration")
		machineID, _ := cmd.Flags().GetString("machine")
		technicianID, _ := cmd.Flags().GetString("technician")
		description, _ := cmd.Flags().GetString("description")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		var device ports.AudioDevice
		if strings.TrimSpace(input) != "" {
			device = audio.NewFileDevice(input)
		}
		session, err := app.NewIntakeSession(device)
		if err != nil {
			return errs.Wrap(err, "create intake session")
		}
		defer session.Close()

		if strings.TrimSpace(machineID) != "" {
			if err := session.SelectMachine(ctx, machineID); err != nil {
				return errs.Wrap(err, "select machine")
			}
		}
		if strings.TrimSpace(technicianID) != "" {
			if err := session.SelectTechnician(ctx, technicianID); err != nil {
				return errs.Wrap(err, "select technician")
			}
		}

		out := cmd.OutOrStdout()
		session.Observe(func(snapshot intake.Snapshot) {
			logging.Info(ctx, "intake stage", slog.String("stage", string(snapshot.Stage)), slog.Int("captured_bytes", snapshot.CapturedBytes))
		})

		if strings.TrimSpace(description) != "" {
			session.SetDescription(description)
			if err := session.RequestSolution(ctx); err != nil {
				return reportIntakeError(cmd, err)
			}
		} else {
			if duration <= 0 {
				return errors.New("--duration must be positive when recording")
			}
			if err := session.StartRecording(ctx); err != nil {
				return reportIntakeError(cmd, err)
			}
			select {
			case <-time.After(duration):
			case <-ctx.Done():
			}
			if err := session.StopRecording(ctx); err != nil {
				return reportIntakeError(cmd, err)
			}
		}

		snapshot := session.Snapshot()
		if _, err := fmt.Fprintf(out, "problem: %s\n\n%s\n", snapshot.Draft.ProblemDescription, snapshot.Draft.AISolution); err != nil {
			return errs.Wrap(err, "write intake output")
		}
		if dryRun {
			return nil
		}

		created, err := session.Save(ctx)
		if err != nil {
			return reportIntakeError(cmd, err)
		}
		if _, err := fmt.Fprintf(out, "\nsaved intervention: %s status=%s priority=%s\n", created.ID, created.Status, created.Priority); err != nil {
			return errs.Wrap(err, "write intake output")
		}
		return nil
	}),
}

func reportIntakeError(cmd *cobra.Command, err error) error {
	if message := domainintake.UserMessage(err); message != "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), message)
	}
	return err
}

func init() {
	rootCmd.AddCommand(intakeCmd)
	intakeCmd.AddCommand(intakeRunCmd)

	intakeRunCmd.Flags().String("input", "", "Raw PCM audio input (default audio.input)")
	intakeRunCmd.Flags().Duration("duration", 10*time.Second, "Recording length")
	intakeRunCmd.Flags().String("machine", "", "Machine id")
	intakeRunCmd.Flags().String("technician", "", "Technician id")
	intakeRunCmd.Flags().String("description", "", "Typed problem description; skips recording")
	intakeRunCmd.Flags().Bool("dry-run", false, "Print the draft without saving")
}
