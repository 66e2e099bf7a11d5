package intake

type Stage string

const (
	StageIdle         Stage = "idle"
	StageRecording    Stage = "recording"
	StageTranscribing Stage = "transcribing"
	StageGenerating   Stage = "generating"
	StageComplete     Stage = "complete"
	// StageSaving is held while the draft is being committed to the store.
	StageSaving Stage = "saving"
)

// CanStartRecording reports whether the start control is enabled.
func (s Stage) CanStartRecording() bool {
	return s == StageIdle || s == StageComplete
}

// InFlight reports whether an upstream call is running. The record control is
// disabled and the draft cannot be committed while true.
func (s Stage) InFlight() bool {
	return s == StageTranscribing || s == StageGenerating
}

// Busy is InFlight, an open recording or a commit in progress.
func (s Stage) Busy() bool {
	return s == StageRecording || s == StageSaving || s.InFlight()
}

func (s Stage) Label() string {
	switch s {
	case StageRecording:
		return "Recording…"
	case StageTranscribing:
		return "Transcribing audio…"
	case StageGenerating:
		return "Generating AI solution…"
	case StageComplete:
		return "Done"
	case StageSaving:
		return "Saving intervention…"
	default:
		return "Ready"
	}
}
