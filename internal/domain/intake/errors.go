package intake

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionBusy      = errors.New("intake session is busy")
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrEmptyRecording   = errors.New("no audio captured")
	ErrNoSpeech         = errors.New("no speech detected")
)

// DeviceAccessError means the audio input device could not be acquired or
// failed while capturing.
type DeviceAccessError struct {
	Err error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("audio device access: %v", e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

type GenerationFailure string

const (
	GenerationFailed          GenerationFailure = "failed"
	GenerationRateLimited     GenerationFailure = "rate_limited"
	GenerationPaymentRequired GenerationFailure = "payment_required"
	GenerationNotConfigured   GenerationFailure = "not_configured"
)

type GenerationError struct {
	Kind GenerationFailure
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("solution generation (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError lists the required fields missing before a commit.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}
