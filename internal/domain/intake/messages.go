package intake

import (
	"errors"
	"strings"

	"maintrack/internal/domain/intervention"
)

var fieldLabels = map[string]string{
	"machine":             "machine",
	"technician":          "technician",
	"problem_description": "problem description",
}

// UserMessage renders err as the stage-specific notification shown to the technician.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var deviceErr *DeviceAccessError
	var transcriptionErr *TranscriptionError
	var generationErr *GenerationError
	var validationErr *ValidationError
	var persistenceErr *intervention.PersistenceError

	switch {
	case errors.As(err, &deviceErr):
		return "Could not access the microphone. Check the device permissions and try again."
	case errors.As(err, &transcriptionErr):
		if errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrEmptyRecording) {
			return "No speech was detected. Record again or type the description."
		}
		return "Could not transcribe the recording. Please try again or type the description."
	case errors.As(err, &generationErr):
		switch generationErr.Kind {
		case GenerationRateLimited:
			return "Too many AI requests. Wait a moment and try again."
		case GenerationPaymentRequired:
			return "AI credits are exhausted. Add credits to keep generating solutions."
		case GenerationNotConfigured:
			return "The AI service is not configured."
		default:
			return "Processing error while generating the solution. Please try again."
		}
	case errors.As(err, &validationErr):
		labels := make([]string, 0, len(validationErr.Missing))
		for _, field := range validationErr.Missing {
			if label, ok := fieldLabels[field]; ok {
				labels = append(labels, label)
				continue
			}
			labels = append(labels, field)
		}
		return "Fill in the required fields: " + strings.Join(labels, ", ") + "."
	case errors.As(err, &persistenceErr):
		return "Could not save the intervention. Please try again."
	case errors.Is(err, ErrSessionBusy):
		return "Wait for the current step to finish."
	default:
		return "Unexpected error: " + err.Error()
	}
}
