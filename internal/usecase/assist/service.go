package assist

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

var (
	ErrAudioRequired   = errors.New("audio is required")
	ErrInvalidAudio    = errors.New("audio must be base64 encoded")
	ErrProblemRequired = errors.New("problemDescription is required")
)

// SystemPrompt asks for the five-part repair guide returned to technicians.
const SystemPrompt = `You are an experienced industrial maintenance engineer assisting a field technician.
Given a problem report and, when available, the machine and its location, answer with exactly these sections:

1. Diagnosis: what is most likely happening.
2. Probable Cause: the root causes to check, most likely first.
3. Recommended Solution: numbered, concrete repair steps with safety precautions.
4. Prevention: maintenance actions that avoid a recurrence.
5. Required Parts: spare parts and tools needed, or "none".

Be concise and practical. Answer in the same language as the problem report.`

// Service is the server side of the transcription and solution-generation functions.
type Service struct {
	speech ports.SpeechToText
	chat   ports.ChatCompleter
}

var (
	_ ports.Transcriber       = (*Service)(nil)
	_ ports.SolutionGenerator = (*Service)(nil)
)

// NewService accepts nil providers; calls then fail with ErrUpstreamNotConfigured.
func NewService(speech ports.SpeechToText, chat ports.ChatCompleter) *Service {
	return &Service{speech: speech, chat: chat}
}

func (s *Service) Transcribe(ctx context.Context, audioBase64 string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}

	encoded := strings.TrimSpace(audioBase64)
	if encoded == "" {
		return "", ErrAudioRequired
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	if len(audio) == 0 {
		return "", ErrAudioRequired
	}
	if s.speech == nil {
		return "", ports.ErrUpstreamNotConfigured
	}

	logCtx := logging.WithComponent(ctx, "usecase.assist")
	text, err := s.speech.TranscribeAudio(ctx, audio)
	if err != nil {
		logging.Error(logCtx, "transcription failed", slog.Int("audio_bytes", len(audio)), slog.Any("err", errs.Loggable(err)))
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcription", ports.ErrUpstreamFailed)
	}
	logging.Info(logCtx, "audio transcribed", slog.Int("audio_bytes", len(audio)), slog.Int("text_len", len(text)))
	return text, nil
}

func (s *Service) GenerateSolution(ctx context.Context, req ports.SolutionRequest) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}
	if strings.TrimSpace(req.ProblemDescription) == "" {
		return "", ErrProblemRequired
	}
	if s.chat == nil {
		return "", ports.ErrUpstreamNotConfigured
	}

	logCtx := logging.WithComponent(ctx, "usecase.assist")
	solution, err := s.chat.Complete(ctx, SystemPrompt, UserPrompt(req))
	if err != nil {
		logging.Error(logCtx, "solution generation failed", slog.Any("err", errs.Loggable(err)))
		return "", err
	}
	if strings.TrimSpace(solution) == "" {
		return "", fmt.Errorf("%w: empty solution", ports.ErrUpstreamFailed)
	}

	logging.Info(logCtx, "solution generated",
		slog.String("machine", req.MachineName),
		slog.Int("solution_len", len(solution)),
	)
	return solution, nil
}

// UserPrompt renders the problem report plus whatever machine context is known.
func UserPrompt(req ports.SolutionRequest) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.MachineName); name != "" {
		b.WriteString("Machine: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	if location := strings.TrimSpace(req.MachineLocation); location != "" {
		b.WriteString("Location: ")
		b.WriteString(location)
		b.WriteString("\n")
	}
	b.WriteString("Problem: ")
	b.WriteString(strings.TrimSpace(req.ProblemDescription))
	return b.String()
}
