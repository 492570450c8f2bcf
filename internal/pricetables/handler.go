package pricetables

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
)

// TableService is the subset of Service used by the HTTP layer.
type TableService interface {
	Create(ctx context.Context, in TableInput) (*PriceTable, error)
	Update(ctx context.Context, id string, in TableInput) (*PriceTable, error)
	Get(ctx context.Context, id string) (*PriceTable, error)
	List(ctx context.Context, status *Status) ([]PriceTable, error)
	Delete(ctx context.Context, id string) error
	Send(ctx context.Context, id string, names []string) (*PriceTable, error)
	RecordReturn(ctx context.Context, id, client string) (*PriceTable, error)
	GenerateProposal(ctx context.Context, id string, in GenerateProposalInput, key string) (*proposals.Proposal, error)
	Document(ctx context.Context, id, client string, format documents.Format) (documents.Rendered, error)
}

// IdempotencyHeader carries the client-chosen key of a proposal generation.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes price tables over JSON.
type Handler struct {
	logger  *slog.Logger
	service TableService
	binder  *httpx.Binder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service TableService) *Handler {
	return &Handler{logger: logger, service: service, binder: httpx.NewBinder()}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		status = &st
	}
	list, err := h.service.List(r.Context(), status)
	if err != nil {
		h.fail(w, "list price tables", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(list)))
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get price table", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in TableInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.fail(w, "create price table", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in TableInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update price table", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete price table", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var in SendInput
	if r.ContentLength != 0 {
		if err := h.binder.Bind(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	t, err := h.service.Send(r.Context(), chi.URLParam(r, "id"), in.Clientes)
	if err != nil {
		h.fail(w, "send price table", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	var in ReturnInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.RecordReturn(r.Context(), chi.URLParam(r, "id"), in.Cliente)
	if err != nil {
		h.fail(w, "record price table return", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) GenerateProposal(w http.ResponseWriter, r *http.Request) {
	var in GenerateProposalInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.GenerateProposal(r.Context(), chi.URLParam(r, "id"), in, r.Header.Get(IdempotencyHeader))
	if err != nil {
		h.fail(w, "generate proposal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Document downloads the price list of a table as PDF or XLSX.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	format, err := documents.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Document(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("cliente"), format)
	if err != nil {
		if isClientError(err) {
			httpx.RespondError(w, err)
			return
		}
		h.logger.Error("render price list", slog.String("table_id", chi.URLParam(r, "id")), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Document Generation Failed", "Não foi possível gerar o documento.")
		return
	}
	httpx.Attachment(w, out.ContentType, out.Filename, out.Data)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
