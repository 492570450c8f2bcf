package jobs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// QueueInspector reads queue statistics.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler serves queue health for operators.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler builds the jobs handler. A nil inspector reports every queue
// as empty.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

// QueueHealth is one queue's counters.
type QueueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// Inspect returns the counters of queue. Queues that were never written to
// report zeros.
func Inspect(inspector QueueInspector, queue string) (QueueHealth, error) {
	out := QueueHealth{Queue: queue}
	if inspector == nil {
		return out, nil
	}
	info, err := inspector.GetQueueInfo(queue)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return out, nil
	}
	if err != nil {
		return out, err
	}
	if info != nil {
		out.Pending, out.Active, out.Scheduled = info.Pending, info.Active, info.Scheduled
		out.Retry, out.Archived = info.Retry, info.Archived
		out.Processed, out.Failed = info.Processed, info.Failed
	}
	return out, nil
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := struct {
		Queues []QueueHealth `json:"queues"`
	}{}
	for _, q := range []string{QueueDocuments, QueueDefault} {
		stats, err := Inspect(h.inspector, q)
		if err != nil {
			h.logger.Warn("jobs health", slog.String("queue", q), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Fila indisponível", "Não foi possível consultar a fila.")
			return
		}
		out.Queues = append(out.Queues, stats)
	}
	httpx.JSON(w, http.StatusOK, out)
}
