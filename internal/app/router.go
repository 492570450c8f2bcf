package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/observability"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
	"github.com/luccagoltzman/ia-b2b/internal/visits"
	"github.com/luccagoltzman/ia-b2b/jobs"
	"github.com/luccagoltzman/ia-b2b/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	ClientsHandler   *clients.Handler
	TablesHandler    *pricetables.Handler
	ProposalsHandler *proposals.Handler
	VisitsHandler    *visits.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the API mounted under /api.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	apiKey := ""
	if params.Config != nil {
		apiKey = params.Config.APIKey
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireAPIKey(apiKey, params.Logger))
		if params.ClientsHandler != nil {
			r.Route("/clientes", params.ClientsHandler.MountRoutes)
		}
		if params.TablesHandler != nil {
			r.Route("/tabelas-produtos", params.TablesHandler.MountRoutes)
		}
		if params.ProposalsHandler != nil {
			r.Route("/propostas", params.ProposalsHandler.MountRoutes)
		}
		if params.VisitsHandler != nil {
			r.Route("/visitas", params.VisitsHandler.MountRoutes)
		}
	})

	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Não encontrado", "Rota não encontrada.")
	})

	return r
}
