package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domainintake "maintrack/internal/domain/intake"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

type interventionResponse struct {
	ID                 string     `json:"id"`
	MachineID          *string    `json:"machine_id"`
	TechnicianID       *string    `json:"technician_id"`
	ProblemDescription string     `json:"problem_description"`
	AudioURL           string     `json:"audio_url,omitempty"`
	AISolution         string     `json:"ai_solution,omitempty"`
	Status             string     `json:"status"`
	Priority           string     `json:"priority"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ResolvedAt         *time.Time `json:"resolved_at"`
}

type createInterventionRequest struct {
	MachineID          string `json:"machine_id"`
	TechnicianID       string `json:"technician_id"`
	ProblemDescription string `json:"problem_description"`
	AISolution         string `json:"ai_solution"`
	AudioURL           string `json:"audio_url"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type updateInterventionRequest struct {
	Priority           *string `json:"priority"`
	ProblemDescription *string `json:"problem_description"`
	AISolution         *string `json:"ai_solution"`
}

func toInterventionResponse(iv intervention.Intervention) interventionResponse {
	return interventionResponse{
		ID:                 iv.ID,
		MachineID:          iv.MachineID,
		TechnicianID:       iv.TechnicianID,
		ProblemDescription: iv.ProblemDescription,
		AudioURL:           iv.AudioURL,
		AISolution:         iv.AISolution,
		Status:             string(iv.Status),
		Priority:           string(iv.Priority),
		CreatedAt:          iv.CreatedAt,
		UpdatedAt:          iv.UpdatedAt,
		ResolvedAt:         iv.ResolvedAt,
	}
}

func (h *Handler) createIntervention(w http.ResponseWriter, r *http.Request) {
	var req createInterventionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	created, err := h.lifecycle.Create(r.Context(), intervention.Draft{
		MachineID:          req.MachineID,
		TechnicianID:       req.TechnicianID,
		ProblemDescription: req.ProblemDescription,
		AISolution:         req.AISolution,
		AudioURL:           req.AudioURL,
	})
	if err != nil {
		var validationErr *domainintake.ValidationError
		if errors.As(err, &validationErr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:     validationErr.Error(),
				Missing:   validationErr.Missing,
				RequestID: requestIDFromContext(r.Context()),
			})
			return
		}
		h.writeLifecycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInterventionResponse(created))
}

func (h *Handler) listInterventions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ports.InterventionFilter{
		Status:       strings.TrimSpace(query.Get("status")),
		MachineID:    strings.TrimSpace(query.Get("machine_id")),
		TechnicianID: strings.TrimSpace(query.Get("technician_id")),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	items, err := h.lifecycle.List(r.Context(), filter)
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	out := make([]interventionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toInterventionResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getIntervention(w http.ResponseWriter, r *http.Request) {
	item, err := h.lifecycle.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterventionResponse(item))
}

func (h *Handler) transitionIntervention(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := h.lifecycle.Transition(r.Context(), chi.URLParam(r, "id"), intervention.Status(req.Status))
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterventionResponse(item))
}

func (h *Handler) updateIntervention(w http.ResponseWriter, r *http.Request) {
	var req updateInterventionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	patch := intervention.DetailsPatch{
		ProblemDescription: req.ProblemDescription,
		AISolution:         req.AISolution,
	}
	if req.Priority != nil {
		priority := intervention.Priority(*req.Priority)
		patch.Priority = &priority
	}

	item, err := h.lifecycle.UpdateDetails(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeLifecycleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterventionResponse(item))
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, r *http.Request, err error) {
	var persistenceErr *intervention.PersistenceError
	switch {
	case errors.Is(err, ports.ErrInterventionNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errs.IsAny(err, intervention.ErrInvalidStatus, intervention.ErrInvalidPriority, intervention.ErrIDRequired):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errs.IsAny(err, intervention.ErrTerminalStatus, intervention.ErrIllegalTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &persistenceErr):
		writeError(w, r, http.StatusInternalServerError, "could not save the intervention")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
