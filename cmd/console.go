package cmd

import (
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"maintrack/internal/bootstrap"
	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/audio"
	"maintrack/internal/ports"
	"maintrack/internal/usecase/intakeconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Terminal console commands",
}

var consoleIntakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Start the interactive intervention intake form",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		var device ports.AudioDevice
		if input, _ := cmd.Flags().GetString("input"); strings.TrimSpace(input) != "" {
			device = audio.NewFileDevice(input)
		}

		session, err := app.NewIntakeSession(device)
		if err != nil {
			return errs.Wrap(err, "create intake session")
		}
		defer session.Close()

		// Records written to stderr would corrupt the alternate screen.
		logPath, _ := cmd.Flags().GetString("log-file")
		logFile, err := openConsoleLog(logPath)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger, err := logging.New(logFile, logging.Options{Level: logLevel, Format: logFormat})
		if err != nil {
			return err
		}
		ctx := logging.WithLogger(cmd.Context(), logger)

		model := intakeconsole.NewIntakeModel(ctx, session, app.Catalog)
		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run intake console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.AddCommand(consoleIntakeCmd)
	consoleIntakeCmd.Flags().String("input", "", "Raw PCM audio input (default audio.input)")
	consoleIntakeCmd.Flags().String("log-file", ".maintrack/console.log", "File receiving logs while the console is open")
}

func openConsoleLog(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = os.DevNull
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.Wrapf(err, "create log directory for %q", path)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.Wrapf(err, "open console log %q", path)
	}
	return file, nil
}
