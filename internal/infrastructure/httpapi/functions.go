package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"maintrack/internal/bootstrap/logging"
	"maintrack/internal/errs"
	"maintrack/internal/infrastructure/functions"
	"maintrack/internal/ports"
	"maintrack/internal/usecase/assist"
)

func (h *Handler) transcribeAudio(w http.ResponseWriter, r *http.Request) {
	var req functions.TranscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, err := h.functions.Transcribe(r.Context(), req.Audio)
	if err != nil {
		status, message := functionError(err)
		logging.Warn(logging.WithComponent(r.Context(), "httpapi.functions"), "transcribe-audio failed",
			slog.Int("status", status),
			slog.Any("err", errs.Loggable(err)),
		)
		writeError(w, r, status, message)
		return
	}
	writeJSON(w, http.StatusOK, functions.TranscribeResponse{Text: text})
}

func (h *Handler) generateSolution(w http.ResponseWriter, r *http.Request) {
	var req ports.SolutionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	solution, err := h.functions.GenerateSolution(r.Context(), req)
	if err != nil {
		status, message := functionError(err)
		logging.Warn(logging.WithComponent(r.Context(), "httpapi.functions"), "generate-solution failed",
			slog.Int("status", status),
			slog.Any("err", errs.Loggable(err)),
		)
		writeError(w, r, status, message)
		return
	}
	writeJSON(w, http.StatusOK, functions.GenerateResponse{Solution: solution})
}

func functionError(err error) (int, string) {
	switch {
	case errors.Is(err, assist.ErrAudioRequired), errors.Is(err, assist.ErrInvalidAudio), errors.Is(err, assist.ErrProblemRequired):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ports.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	case errors.Is(err, ports.ErrUpstreamPaymentRequired):
		return http.StatusPaymentRequired, "Payment required. Please add credits to continue."
	case errors.Is(err, ports.ErrUpstreamNotConfigured):
		return http.StatusInternalServerError, "AI service not configured"
	default:
		return http.StatusInternalServerError, "AI service error"
	}
}
