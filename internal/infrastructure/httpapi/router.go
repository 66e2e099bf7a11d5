package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	domaincatalog "maintrack/internal/domain/catalog"
	"maintrack/internal/domain/intervention"
	"maintrack/internal/ports"
)

// Functions is the server side of the transcription and solution functions.
type Functions interface {
	ports.Transcriber
	ports.SolutionGenerator
}

type Catalog interface {
	ListMachines(ctx context.Context, filter ports.CatalogFilter) ([]domaincatalog.Machine, error)
	ListTechnicians(ctx context.Context, filter ports.CatalogFilter) ([]domaincatalog.Technician, error)
	ListParts(ctx context.Context, filter ports.CatalogFilter) ([]domaincatalog.Part, error)
}

type Lifecycle interface {
	Create(ctx context.Context, draft intervention.Draft) (intervention.Intervention, error)
	Get(ctx context.Context, id string) (intervention.Intervention, error)
	List(ctx context.Context, filter ports.InterventionFilter) ([]intervention.Intervention, error)
	Transition(ctx context.Context, id string, target intervention.Status) (intervention.Intervention, error)
	UpdateDetails(ctx context.Context, id string, patch intervention.DetailsPatch) (intervention.Intervention, error)
}

type Handler struct {
	functions Functions
	catalog   Catalog
	lifecycle Lifecycle
}

func NewHandler(functions Functions, catalog Catalog, lifecycle Lifecycle) *Handler {
	return &Handler{functions: functions, catalog: catalog, lifecycle: lifecycle}
}

func NewRouter(ctx context.Context, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(ctx))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(corsMiddleware)
		r.Post("/transcribe-audio", h.transcribeAudio)
		r.Post("/generate-solution", h.generateSolution)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/machines", h.listMachines)
		r.Get("/technicians", h.listTechnicians)
		r.Get("/parts", h.listParts)

		r.Post("/interventions", h.createIntervention)
		r.Get("/interventions", h.listInterventions)
		r.Get("/interventions/{id}", h.getIntervention)
		r.Patch("/interventions/{id}", h.updateIntervention)
		r.Post("/interventions/{id}/status", h.transitionIntervention)
	})
	return r
}
