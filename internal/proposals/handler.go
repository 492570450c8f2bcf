package proposals

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

// ProposalService is the subset of Service used by the HTTP layer.
type ProposalService interface {
	Create(ctx context.Context, in ProposalInput, actor string) (*Proposal, error)
	Update(ctx context.Context, id string, in ProposalInput) (*Proposal, error)
	Get(ctx context.Context, id string) (*Proposal, error)
	List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error)
	Delete(ctx context.Context, id string) error
	Transition(ctx context.Context, id string, in TransitionInput) (*Proposal, error)
}

// Handler exposes proposals over JSON.
type Handler struct {
	logger    *slog.Logger
	service   ProposalService
	documents documents.Set
	binder    *httpx.Binder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service ProposalService, docs documents.Set) *Handler {
	return &Handler{logger: logger, service: service, documents: docs, binder: httpx.NewBinder()}
}

// ActorHeader optionally names the representative acting on a request.
const ActorHeader = "X-Usuario"

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListProposalsRequest{Cliente: q.Get("cliente")}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))
	if raw := q.Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.Status = &st
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list proposals", err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get proposal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ProposalInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), in, r.Header.Get(ActorHeader))
	if err != nil {
		h.fail(w, "create proposal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in ProposalInput
	if err := h.binder.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update proposal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete proposal", err)
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
	p, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "transition proposal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Transitions lists the statuses offered for a proposal.
func (h *Handler) Transitions(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get proposal", err)
		return
	}
	type option struct {
		Status Status `json:"status"`
		Label  string `json:"label"`
		Class  string `json:"class"`
		Icon   string `json:"icon"`
	}
	opts := []option{}
	for _, st := range AvailableTransitions(p.Status) {
		info, _ := st.Info()
		opts = append(opts, option{Status: st, Label: info.Label, Class: info.Class, Icon: info.Icon})
	}
	httpx.JSON(w, http.StatusOK, opts)
}

func (h *Handler) OrderPDF(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get proposal", err)
		return
	}
	out, err := h.documents.Render(r.Context(), OrderDocument(*p, time.Now()), documents.FormatPDF)
	if err != nil {
		h.logger.Error("render order document", slog.String("proposal_id", p.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Document Generation Failed", "Não foi possível gerar o documento.")
		return
	}
	httpx.Attachment(w, out.ContentType, out.Filename, out.Data)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
