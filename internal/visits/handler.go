package visits

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// VisitService is the subset of Service used by the HTTP layer.
type VisitService interface {
	Create(ctx context.Context, in VisitInput, actor string) (*Visit, error)
	Update(ctx context.Context, id string, in VisitInput) (*Visit, error)
	Get(ctx context.Context, id string) (*Visit, error)
	List(ctx context.Context, req ListVisitsRequest) ([]Visit, error)
	Delete(ctx context.Context, id string) error
	Transition(ctx context.Context, id string, in TransitionInput) (*Visit, error)
}

// ActorHeader optionally names the representative acting on a request.
const ActorHeader = "X-Usuario"

type Handler struct {
	logger  *slog.Logger
	service VisitService
	binder  *httpx.Binder
}

func NewHandler(logger *slog.Logger, service VisitService) *Handler {
	return &Handler{logger: logger, service: service, binder: httpx.NewBinder()}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListVisitsRequest{Cliente: q.Get("cliente"), From: q.Get("de"), To: q.Get("ate")}
	if raw := q.Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Status = &st
	}
	list, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list visits", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(list)))
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get visit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in VisitInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Create(r.Context(), in, r.Header.Get(ActorHeader))
	if err != nil {
		h.fail(w, "create visit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in VisitInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update visit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete visit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	var in TransitionInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if in.Usuario == nil {
		if actor := r.Header.Get(ActorHeader); actor != "" {
			in.Usuario = &actor
		}
	}
	v, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "transition visit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
