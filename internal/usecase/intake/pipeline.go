package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"maintrack/internal/bootstrap/logging"
	domainintake "maintrack/internal/domain/intake"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

// StartRecording acquires the audio device and starts buffering chunks. It is
// only accepted from idle or complete; a device failure leaves the session idle.
func (s *Session) StartRecording(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	logCtx := logging.WithComponent(ctx, "usecase.intake")

	s.mu.Lock()
	switch {
	case s.stage == domainintake.StageRecording:
		s.mu.Unlock()
		return domainintake.ErrAlreadyRecording
	case !s.stage.CanStartRecording():
		s.mu.Unlock()
		return domainintake.ErrSessionBusy
	}
	// Claim the stage before releasing the lock so a second start is refused.
	s.stage = domainintake.StageRecording
	s.mu.Unlock()

	cfg := s.deps.Capture
	cfg.EchoCancellation = true
	cfg.NoiseSuppression = true

	stream, err := s.deps.Device.Open(ctx, cfg)
	if err != nil {
		logging.Warn(logCtx, "audio device unavailable", slog.Any("err", errs.Loggable(err)))
		return s.fail(&domainintake.DeviceAccessError{Err: err})
	}

	collected := make(chan struct{})
	s.update(func() {
		s.stream = stream
		s.collected = collected
		s.chunks = nil
		s.captured = 0
		s.lastErr = nil
		s.message = ""
	})

	go s.collect(stream, collected)
	logging.Info(logCtx, "recording started",
		slog.Int("sample_rate", cfg.SampleRate),
		slog.Int("channels", cfg.Channels),
		slog.Duration("chunk_interval", cfg.ChunkInterval),
	)
	return nil
}

func (s *Session) collect(stream ports.CaptureStream, done chan<- struct{}) {
	defer close(done)
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		s.update(func() {
			s.chunks = append(s.chunks, chunk)
			s.captured += len(chunk)
		})
	}
}

// StopRecording releases the device and runs transcription followed by
// solution generation. It returns when the pipeline reaches complete or falls
// back to idle; the returned error is the stage failure, if any.
func (s *Session) StopRecording(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	logCtx := logging.WithComponent(ctx, "usecase.intake")

	s.mu.Lock()
	if s.stage != domainintake.StageRecording || s.stream == nil {
		s.mu.Unlock()
		return domainintake.ErrNotRecording
	}
	stream, collected := s.stream, s.collected
	s.stream = nil
	s.mu.Unlock()

	closeErr := stream.Close()
	<-collected

	captureErr := stream.Err()
	if captureErr == nil {
		captureErr = closeErr
	}
	if captureErr != nil {
		logging.Warn(logCtx, "audio capture failed", slog.Any("err", errs.Loggable(captureErr)))
		return s.fail(&domainintake.DeviceAccessError{Err: captureErr})
	}

	s.mu.Lock()
	audio := bytes.Join(s.chunks, nil)
	chunkCount := len(s.chunks)
	s.mu.Unlock()

	if len(audio) == 0 {
		return s.fail(&domainintake.TranscriptionError{Err: domainintake.ErrEmptyRecording})
	}
	logging.Info(logCtx, "recording stopped", slog.Int("chunks", chunkCount), slog.Int("bytes", len(audio)))

	s.update(func() {
		s.stage = domainintake.StageTranscribing
	})

	recording := encodeWAV(audio, s.deps.Capture)
	audioURL := s.storeRecording(logCtx, recording)

	text, err := s.deps.Transcriber.Transcribe(ctx, base64.StdEncoding.EncodeToString(recording))
	if err != nil {
		logging.Warn(logCtx, "transcription failed", slog.Any("err", errs.Loggable(err)))
		return s.fail(&domainintake.TranscriptionError{Err: err})
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return s.fail(&domainintake.TranscriptionError{Err: domainintake.ErrNoSpeech})
	}

	s.update(func() {
		s.draft.ProblemDescription = text
		if audioURL != "" {
			s.draft.AudioURL = audioURL
		}
	})
	return s.generate(ctx)
}

// RequestSolution runs only the generation stage for a typed description.
func (s *Session) RequestSolution(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	s.mu.Lock()
	if !s.stage.CanStartRecording() {
		s.mu.Unlock()
		return domainintake.ErrSessionBusy
	}
	if strings.TrimSpace(s.draft.ProblemDescription) == "" {
		err := &domainintake.ValidationError{Missing: []string{"problem_description"}}
		s.lastErr = err
		s.message = domainintake.UserMessage(err)
		snapshot, observer := s.snapshotLocked(), s.observer
		s.mu.Unlock()
		emit(observer, snapshot)
		return err
	}
	s.stage = domainintake.StageGenerating
	s.mu.Unlock()

	return s.generate(ctx)
}

func (s *Session) generate(ctx context.Context) error {
	logCtx := logging.WithComponent(ctx, "usecase.intake")

	var req ports.SolutionRequest
	s.update(func() {
		s.stage = domainintake.StageGenerating
		s.draft.AISolution = ""
		req.ProblemDescription = strings.TrimSpace(s.draft.ProblemDescription)
		if s.machine != nil {
			req.MachineName = s.machine.DisplayName()
			req.MachineLocation = strings.TrimSpace(s.machine.Location)
		}
	})

	solution, err := s.deps.Generator.GenerateSolution(ctx, req)
	if err != nil {
		kind := ClassifyGenerationError(err)
		logging.Warn(logCtx, "solution generation failed", slog.String("kind", string(kind)), slog.Any("err", errs.Loggable(err)))
		return s.fail(&domainintake.GenerationError{Kind: kind, Err: err})
	}

	s.update(func() {
		s.draft.AISolution = strings.TrimSpace(solution)
		s.stage = domainintake.StageComplete
		s.lastErr = nil
		s.message = "AI solution generated."
	})
	logging.Info(logCtx, "solution ready", slog.Int("solution_len", len(solution)))
	return nil
}

// storeRecording uploads the capture when a recording store is configured.
// Failures are logged and never fail the pipeline.
func (s *Session) storeRecording(ctx context.Context, audio []byte) string {
	if s.deps.Recordings == nil {
		return ""
	}
	key := fmt.Sprintf("intake/%s.wav", s.newID())
	url, err := s.deps.Recordings.SaveRecording(ctx, key, audio, "audio/wav")
	if err != nil {
		logging.Warn(ctx, "store recording failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
		return ""
	}
	return url
}

// ClassifyGenerationError maps upstream sentinels onto the user-facing
// generation failure kinds.
func ClassifyGenerationError(err error) domainintake.GenerationFailure {
	switch {
	case errors.Is(err, ports.ErrUpstreamRateLimited):
		return domainintake.GenerationRateLimited
	case errors.Is(err, ports.ErrUpstreamPaymentRequired):
		return domainintake.GenerationPaymentRequired
	case errors.Is(err, ports.ErrUpstreamNotConfigured):
		return domainintake.GenerationNotConfigured
	default:
		return domainintake.GenerationFailed
	}
}
