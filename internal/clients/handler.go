package clients

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// ClientService is the subset of Service used by the HTTP layer.
type ClientService interface {
	Create(ctx context.Context, in ClientInput) (*Client, error)
	Update(ctx context.Context, id string, in ClientInput) (*Client, error)
	Get(ctx context.Context, id string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Delete(ctx context.Context, id string) error
}

// Handler exposes the address book over JSON.
type Handler struct {
	logger  *slog.Logger
	service ClientService
	binder  *httpx.Binder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service ClientService) *Handler {
	return &Handler{logger: logger, service: service, binder: httpx.NewBinder()}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	list, total, err := h.service.List(r.Context(), ListClientsRequest{
		Search: q.Get("busca"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, "list clients", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ClientInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create client", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in ClientInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
