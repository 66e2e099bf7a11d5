package intakeconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"maintrack/internal/bootstrap/logging"
	domaincatalog "maintrack/internal/domain/catalog"
	domainintake "maintrack/internal/domain/intake"
	"maintrack/internal/errs"
	"maintrack/internal/usecase/intake"
)

const maxSolutionLines = 12
const maxHistory = 6

type mode int

const (
	modeForm mode = iota
	modeEditDescription
	modePickMachine
	modePickTechnician
)

type intakeModel struct {
	ctx     context.Context
	session *intake.Session
	catalog intake.Catalog
	updates chan struct{}

	snapshot intake.Snapshot
	mode     mode
	input    []rune

	machines    []domaincatalog.Machine
	technicians []domaincatalog.Technician
	pickIndex   int

	status  string
	history []string
}

type snapshotMsg struct{}

type catalogLoadedMsg struct {
	machines    []domaincatalog.Machine
	technicians []domaincatalog.Technician
	err         error
}

type actionDoneMsg struct {
	action string
	result string
	err    error
}

// NewIntakeModel renders one intake session. The session's observer is owned by
// the model until it quits.
func NewIntakeModel(ctx context.Context, session *intake.Session, catalog intake.Catalog) tea.Model {
	m := &intakeModel{
		ctx:      ctx,
		session:  session,
		catalog:  catalog,
		updates:  make(chan struct{}, 1),
		snapshot: session.Snapshot(),
		status:   "ready",
	}
	session.Observe(func(intake.Snapshot) {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	})
	return m
}

func (m *intakeModel) Init() tea.Cmd {
	return tea.Batch(m.loadCatalogCmd(), m.waitForUpdateCmd())
}

func (m *intakeModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case snapshotMsg:
		m.snapshot = m.session.Snapshot()
		return m, m.waitForUpdateCmd()
	case catalogLoadedMsg:
		if msg.err != nil {
			m.status = "catalog load failed: " + msg.err.Error()
			return m, nil
		}
		m.machines = msg.machines
		m.technicians = msg.technicians
		m.status = fmt.Sprintf("catalog loaded machines=%d technicians=%d", len(m.machines), len(m.technicians))
		return m, nil
	case actionDoneMsg:
		m.snapshot = m.session.Snapshot()
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %s", msg.action, firstNonEmpty(domainintake.UserMessage(msg.err), msg.err.Error()))
			m.appendHistory(msg.action, "failed")
			return m, nil
		}
		m.status = fmt.Sprintf("%s done", msg.action)
		if msg.result != "" {
			m.status += ": " + msg.result
		}
		m.appendHistory(msg.action, firstNonEmpty(msg.result, "ok"))
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeEditDescription:
			return m.updateEditor(msg)
		case modePickMachine, modePickTechnician:
			return m.updatePicker(msg)
		}
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *intakeModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if err := m.session.Close(); err != nil {
			logging.Warn(logging.WithComponent(m.ctx, "usecase.intakeconsole"), "close session failed", slog.Any("err", errs.Loggable(err)))
		}
		return m, tea.Quit
	case "r":
		if m.snapshot.Stage == domainintake.StageRecording {
			m.status = "stopping recording"
			return m, m.runCmd("transcribe", func(ctx context.Context) (string, error) {
				return "", m.session.StopRecording(ctx)
			})
		}
		return m, m.runCmd("record", func(ctx context.Context) (string, error) {
			return "", m.session.StartRecording(ctx)
		})
	case "a":
		return m, m.runCmd("generate", func(ctx context.Context) (string, error) {
			return "", m.session.RequestSolution(ctx)
		})
	case "s":
		return m, m.runCmd("save", func(ctx context.Context) (string, error) {
			created, err := m.session.Save(ctx)
			if err != nil {
				return "", err
			}
			return created.ID, nil
		})
	case "n":
		return m, m.runCmd("reset", func(context.Context) (string, error) {
			return "", m.session.Reset()
		})
	case "e":
		m.mode = modeEditDescription
		m.input = []rune(m.snapshot.Draft.ProblemDescription)
		return m, nil
	case "m":
		if len(m.machines) == 0 {
			m.status = "no active machines"
			return m, nil
		}
		m.mode = modePickMachine
		m.pickIndex = 0
		return m, nil
	case "t":
		if len(m.technicians) == 0 {
			m.status = "no active technicians"
			return m, nil
		}
		m.mode = modePickTechnician
		m.pickIndex = 0
		return m, nil
	case "g":
		return m, m.loadCatalogCmd()
	}
	return m, nil
}

func (m *intakeModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeForm
		m.input = nil
		return m, nil
	case tea.KeyEnter:
		m.session.SetDescription(string(m.input))
		m.snapshot = m.session.Snapshot()
		m.mode = modeForm
		m.input = nil
		m.status = "description updated"
		return m, nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	case tea.KeySpace:
		m.input = append(m.input, ' ')
		return m, nil
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m, nil
}

func (m *intakeModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	size := len(m.machines)
	if m.mode == modePickTechnician {
		size = len(m.technicians)
	}

	switch msg.String() {
	case "esc":
		m.mode = modeForm
		return m, nil
	case "up", "k":
		if m.pickIndex > 0 {
			m.pickIndex--
		}
		return m, nil
	case "down", "j":
		if m.pickIndex < size-1 {
			m.pickIndex++
		}
		return m, nil
	case "enter":
		if m.pickIndex < 0 || m.pickIndex >= size {
			m.mode = modeForm
			return m, nil
		}
		picking := m.mode
		index := m.pickIndex
		m.mode = modeForm
		if picking == modePickMachine {
			id := m.machines[index].ID
			return m, m.runCmd("select machine", func(ctx context.Context) (string, error) {
				return id, m.session.SelectMachine(ctx, id)
			})
		}
		id := m.technicians[index].ID
		return m, m.runCmd("select technician", func(ctx context.Context) (string, error) {
			return id, m.session.SelectTechnician(ctx, id)
		})
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *intakeModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	busyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	snapshot := m.snapshot
	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Maintenance Intake"))
	builder.WriteString("\n")

	stageLine := fmt.Sprintf("stage=%s %s", snapshot.Stage, snapshot.Stage.Label())
	if snapshot.Stage == domainintake.StageRecording {
		stageLine += fmt.Sprintf(" chunks=%d bytes=%d", snapshot.CapturedChunks, snapshot.CapturedBytes)
	}
	if snapshot.Stage.Busy() {
		builder.WriteString(busyStyle.Render(stageLine))
	} else {
		builder.WriteString(dimStyle.Render(stageLine))
	}
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Form"))
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("Machine: %s\n", firstNonEmpty(snapshot.MachineName, "-")))
	builder.WriteString(fmt.Sprintf("Technician: %s\n", firstNonEmpty(snapshot.TechnicianName, "-")))
	if m.mode == modeEditDescription {
		builder.WriteString("Problem: " + selectedStyle.Render(string(m.input)+"_") + "\n")
	} else {
		builder.WriteString(fmt.Sprintf("Problem: %s\n", firstNonEmpty(strings.TrimSpace(snapshot.Draft.ProblemDescription), "-")))
	}
	if snapshot.Draft.AudioURL != "" {
		builder.WriteString(fmt.Sprintf("Recording: %s\n", snapshot.Draft.AudioURL))
	}
	builder.WriteString("\n")

	switch m.mode {
	case modePickMachine:
		builder.WriteString(sectionStyle.Render("Pick Machine"))
		builder.WriteString("\n")
		for index, machine := range m.machines {
			line := machine.DisplayName()
			if machine.Location != "" {
				line += " @ " + machine.Location
			}
			m.writePickLine(&builder, selectedStyle, index, line)
		}
		builder.WriteString("\n")
	case modePickTechnician:
		builder.WriteString(sectionStyle.Render("Pick Technician"))
		builder.WriteString("\n")
		for index, technician := range m.technicians {
			line := technician.Name
			if technician.Specialty != "" {
				line += " (" + technician.Specialty + ")"
			}
			m.writePickLine(&builder, selectedStyle, index, line)
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("AI Solution"))
	builder.WriteString("\n")
	if solution := strings.TrimSpace(snapshot.Draft.AISolution); solution == "" {
		builder.WriteString(dimStyle.Render("- none"))
		builder.WriteString("\n\n")
	} else {
		lines := strings.Split(solution, "\n")
		if len(lines) > maxSolutionLines {
			lines = append(lines[:maxSolutionLines], "…")
		}
		builder.WriteString(strings.Join(lines, "\n"))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	if snapshot.Message != "" {
		if snapshot.LastError != nil {
			builder.WriteString(errorStyle.Render("- " + snapshot.Message))
		} else {
			builder.WriteString("- " + snapshot.Message)
		}
		builder.WriteString("\n")
	}
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	if len(m.history) > 0 {
		builder.WriteString(sectionStyle.Render("History"))
		builder.WriteString("\n")
		for _, line := range m.history {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	switch m.mode {
	case modeEditDescription:
		builder.WriteString(dimStyle.Render("Keys: enter confirm  esc cancel"))
	case modePickMachine, modePickTechnician:
		builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  enter select  esc cancel"))
	default:
		recordKey := "r record"
		if snapshot.Stage == domainintake.StageRecording {
			recordKey = "r stop"
		}
		builder.WriteString(dimStyle.Render("Keys: " + recordKey + "  e describe  m machine  t technician  a AI  s save  n new  g reload  q quit"))
	}
	return builder.String()
}

func (m *intakeModel) writePickLine(builder *strings.Builder, selectedStyle lipgloss.Style, index int, line string) {
	if index == m.pickIndex {
		builder.WriteString(selectedStyle.Render("> " + line))
	} else {
		builder.WriteString("  " + line)
	}
	builder.WriteString("\n")
}

func (m *intakeModel) waitForUpdateCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.updates:
			return snapshotMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *intakeModel) loadCatalogCmd() tea.Cmd {
	return func() tea.Msg {
		machines, err := m.catalog.ActiveMachines(m.ctx)
		if err != nil {
			return catalogLoadedMsg{err: errs.Wrap(err, "load machines")}
		}
		technicians, err := m.catalog.ActiveTechnicians(m.ctx)
		if err != nil {
			return catalogLoadedMsg{err: errs.Wrap(err, "load technicians")}
		}
		return catalogLoadedMsg{machines: machines, technicians: technicians}
	}
}

func (m *intakeModel) runCmd(action string, fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		result, err := fn(m.ctx)
		return actionDoneMsg{action: action, result: result, err: err}
	}
}

func (m *intakeModel) appendHistory(action string, result string) {
	line := fmt.Sprintf("%s %s %s", time.Now().Format("15:04:05"), action, result)
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
