package pricetables

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
)

// Validation failures surfaced verbatim to the representative.
var (
	ErrNoClients       = fmt.Errorf("%w: a tabela precisa de ao menos um cliente", httpx.ErrValidation)
	ErrNoEntries       = fmt.Errorf("%w: a tabela precisa de ao menos um produto", httpx.ErrValidation)
	ErrUnknownClient   = fmt.Errorf("%w: cliente não associado à tabela", httpx.ErrValidation)
	ErrUnknownEntry    = fmt.Errorf("%w: produto não pertence à tabela", httpx.ErrValidation)
	ErrEmptySelection  = fmt.Errorf("%w: nenhum produto selecionado", httpx.ErrValidation)
	ErrClientRequired  = fmt.Errorf("%w: informe o cliente", httpx.ErrValidation)
	ErrNotSendable     = fmt.Errorf("%w: a tabela não pode ser enviada neste status", httpx.ErrConflict)
	ErrNotAwaitingData = fmt.Errorf("%w: a tabela não foi enviada ou já gerou proposta", httpx.ErrConflict)
)

// EntityTable labels price table transitions in metrics.
const EntityTable = "tabela"

// Dispatcher queues the per-client documents of a sent table.
type Dispatcher interface {
	EnqueueDispatch(ctx context.Context, tableID string, clientes []string) error
}

// ProposalCreator turns a confirmed selection into a proposal.
type ProposalCreator interface {
	CreateFromTable(ctx context.Context, d proposals.TableDraft) (*proposals.Proposal, error)
}

// IdempotencyGuard claims request keys.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
	Delete(ctx context.Context, key, scope string) error
}

// Metrics receives table status transitions.
type Metrics interface {
	StatusTransition(entity, status string)
}

// Deps are the collaborators of Service. Dispatcher, Guard and Metrics may
// be nil.
type Deps struct {
	Repo       Repository
	Proposals  ProposalCreator
	Dispatcher Dispatcher
	Documents  documents.Set
	Guard      IdempotencyGuard
	Metrics    Metrics
	Logger     *slog.Logger
}

// Service implements price table use cases.
type Service struct {
	Deps
	clock func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{Deps: deps, clock: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, in TableInput) (*PriceTable, error) {
	t, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	t.ID = uuid.NewString()
	t.Status = StatusDraft
	t.DataCriacao = s.clock()
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create price table: %w", err)
	}
	return &t, nil
}

// Update replaces every editable field, including the entry list. The
// status is kept.
func (s *Service) Update(ctx context.Context, id string, in TableInput) (*PriceTable, error) {
	current, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	t.ID = current.ID
	t.Status = current.Status
	t.DataCriacao = current.DataCriacao
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update price table: %w", err)
	}
	return &t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*PriceTable, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status *Status) ([]PriceTable, error) {
	return s.Repo.List(ctx, status)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}

// Send marks the table as sent and queues one document per client. names
// restricts the send to some of the table's clients; empty means all.
func (s *Service) Send(ctx context.Context, id string, names []string) (*PriceTable, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusDraft && t.Status != StatusSent {
		return nil, ErrNotSendable
	}
	if len(t.Clientes) == 0 {
		return nil, ErrNoClients
	}
	if len(t.Produtos) == 0 {
		return nil, ErrNoEntries
	}

	targets := t.ClientNames()
	if len(names) > 0 {
		targets = targets[:0]
		for _, name := range names {
			c, ok := t.Client(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownClient, name)
			}
			targets = append(targets, c.DisplayName())
		}
	}

	if err := s.setStatus(ctx, t, StatusSent); err != nil {
		return nil, err
	}
	if s.Dispatcher != nil {
		if err := s.Dispatcher.EnqueueDispatch(ctx, t.ID, targets); err != nil {
			s.Logger.Warn("enqueue price table dispatch",
				slog.String("table_id", t.ID), slog.Any("error", err))
		}
	}
	return t, nil
}

// RecordReturn notes that client answered the table.
func (s *Service) RecordReturn(ctx context.Context, id, client string) (*PriceTable, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Status.AcceptsReturns() {
		return nil, ErrNotAwaitingData
	}
	if _, ok := t.Client(client); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, client)
	}
	if t.Status != StatusAwaitingResponse {
		if err := s.setStatus(ctx, t, StatusAwaitingResponse); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// GenerateProposal creates the definitive proposal for client from the
// selected entry ids. The backend values of the entries are used, never
// values sent by the caller. key, when set, makes the call idempotent.
func (s *Service) GenerateProposal(ctx context.Context, id string, in GenerateProposalInput, key string) (*proposals.Proposal, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Status.AcceptsReturns() {
		return nil, ErrNotAwaitingData
	}
	client, ok := t.Client(in.Cliente)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClient, in.Cliente)
	}
	selected := make(map[string]bool, len(in.Selecoes))
	for _, sel := range in.Selecoes {
		if _, ok := t.Entry(sel.ProdutoID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, sel.ProdutoID)
		}
		selected[sel.ProdutoID] = true
	}
	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}
	items := make([]proposals.Item, 0, len(selected))
	for _, e := range t.Produtos {
		if selected[e.ID] {
			items = append(items, e.ProposalItem())
		}
	}

	scope := "gerar-proposta:" + t.ID
	if key != "" && s.Guard != nil {
		if err := s.Guard.CheckAndInsert(ctx, key, scope); err != nil {
			return nil, err
		}
	}

	p, err := s.Proposals.CreateFromTable(ctx, proposals.TableDraft{
		TabelaID:           t.ID,
		TabelaNome:         t.Nome,
		Cliente:            client,
		Itens:              items,
		CondicoesPagamento: t.CondicoesPagamento,
		PrazoEntrega:       t.PrazoEntrega,
		Observacoes:        t.Observacoes,
		DataVencimento:     t.DataVencimento,
	})
	if err != nil {
		if key != "" && s.Guard != nil {
			if derr := s.Guard.Delete(ctx, key, scope); derr != nil {
				s.Logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		return nil, err
	}

	if err := s.setStatus(ctx, t, StatusProposalGenerated); err != nil {
		s.Logger.Warn("mark price table as proposal generated",
			slog.String("table_id", t.ID), slog.String("proposal_id", p.ID), slog.Any("error", err))
	}
	return p, nil
}

// Document renders the client-facing export of a table for one client. With
// a single associated client the name may be omitted.
func (s *Service) Document(ctx context.Context, id, client string, format documents.Format) (documents.Rendered, error) {
	t, err := s.Repo.Get(ctx, id)
	if err != nil {
		return documents.Rendered{}, err
	}
	c, err := pickClient(*t, client)
	if err != nil {
		return documents.Rendered{}, err
	}
	return s.Documents.Render(ctx, PriceListDocument(*t, c, s.clock()), format)
}

func pickClient(t PriceTable, name string) (clients.Contact, error) {
	if strings.TrimSpace(name) == "" {
		switch len(t.Clientes) {
		case 0:
			return clients.Contact{}, ErrNoClients
		case 1:
			return t.Clientes[0], nil
		default:
			return clients.Contact{}, ErrClientRequired
		}
	}
	c, ok := t.Client(name)
	if !ok {
		return clients.Contact{}, fmt.Errorf("%w: %s", ErrUnknownClient, name)
	}
	return c, nil
}

func (s *Service) setStatus(ctx context.Context, t *PriceTable, status Status) error {
	if err := s.Repo.UpdateStatus(ctx, t.ID, status); err != nil {
		return err
	}
	t.Status = status
	if s.Metrics != nil {
		s.Metrics.StatusTransition(EntityTable, string(status))
	}
	return nil
}

func (s *Service) fromInput(in TableInput) (PriceTable, error) {
	t := PriceTable{
		Nome:               strings.TrimSpace(in.Nome),
		CondicoesPagamento: in.CondicoesPagamento,
		PrazoEntrega:       in.PrazoEntrega,
		Observacoes:        in.Observacoes,
		DataVencimento:     in.DataVencimento,
		Produtos:           make([]Entry, 0, len(in.Produtos)),
		Clientes:           make([]clients.Contact, 0, len(in.Clientes)+1),
	}

	contacts := in.Clientes
	if len(contacts) == 0 && in.Cliente != nil {
		contacts = []clients.Contact{*in.Cliente}
	}
	for _, c := range contacts {
		if c.DisplayName() == "" {
			return PriceTable{}, fmt.Errorf("%w: cliente sem nome", httpx.ErrValidation)
		}
		if _, dup := clients.Find(t.Clientes, c.DisplayName()); dup {
			return PriceTable{}, fmt.Errorf("%w: cliente duplicado na tabela: %s", httpx.ErrValidation, c.DisplayName())
		}
		t.Clientes = append(t.Clientes, c)
	}

	seen := make(map[string]bool, len(in.Produtos))
	for _, e := range in.Produtos {
		kind, err := pricing.ParseDiscountKind(e.DescontoTipo)
		if err != nil {
			return PriceTable{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return PriceTable{}, fmt.Errorf("%w: produto duplicado na tabela: %s", httpx.ErrValidation, id)
		}
		seen[id] = true
		t.Produtos = append(t.Produtos, Entry{
			ID:            id,
			Produto:       strings.TrimSpace(e.Produto),
			ProdutoCodigo: strings.TrimSpace(e.ProdutoCodigo),
			Marca:         strings.TrimSpace(e.Marca),
			Categoria:     strings.TrimSpace(e.Categoria),
			UnidadeMedida: e.UnidadeMedida,
			Quantidade:    e.Quantidade,
			ValorUnitario: e.ValorUnitario,
			AliquotaIpi:   e.AliquotaIpi,
			Desconto:      e.Desconto,
			DescontoTipo:  kind,
		})
	}
	return t, nil
}
