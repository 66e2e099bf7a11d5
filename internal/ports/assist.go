package ports

import (
	"context"
	"errors"
)

// Upstream failures surfaced by the transcription and solution-generation
// functions. None of them are retried automatically.
var (
	ErrUpstreamRateLimited     = errors.New("upstream rate limit exceeded")
	ErrUpstreamPaymentRequired = errors.New("upstream payment required")
	ErrUpstreamNotConfigured   = errors.New("upstream credentials not configured")
	ErrUpstreamFailed          = errors.New("upstream request failed")
)

type SolutionRequest struct {
	ProblemDescription string `json:"problemDescription"`
	MachineName        string `json:"machineName,omitempty"`
	MachineLocation    string `json:"machineLocation,omitempty"`
}

// Transcriber is the transcription function as seen by the intake pipeline.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64 string) (string, error)
}

// SolutionGenerator is the solution-generation function as seen by the intake pipeline.
type SolutionGenerator interface {
	GenerateSolution(ctx context.Context, req SolutionRequest) (string, error)
}

// AssistFunctions is the transcription and solution-generation pair, served
// either in-process or by a remote server.
type AssistFunctions interface {
	Transcriber
	SolutionGenerator
}

// SpeechToText is a hosted speech-to-text model.
type SpeechToText interface {
	TranscribeAudio(ctx context.Context, audio []byte) (string, error)
}

// ChatCompleter is a hosted chat-completion model; it returns the first choice text.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}
