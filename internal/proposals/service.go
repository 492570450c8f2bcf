package proposals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// Proposal origins reported to metrics.
const (
	OriginManual = "manual"
	OriginTable  = "tabela"
)

// ErrSameStatus is returned when a transition targets the current status.
var ErrSameStatus = fmt.Errorf("%w: a proposta já está neste status", httpx.ErrConflict)

// Metrics receives domain counters.
type Metrics interface {
	ProposalCreated(origin string)
	StatusTransition(entity, status string)
}

// Options tune the service.
type Options struct {
	// StrictCheckpoints logs a warning when the newest checkpoint does not
	// match the stored status. Reads never fail because of it.
	StrictCheckpoints bool
}

// Service implements proposal use cases.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics Metrics
	opts    Options
	clock   func() time.Time
}

// NewService constructs a Service. metrics may be nil.
func NewService(repo Repository, logger *slog.Logger, metrics Metrics, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a manually entered proposal with its initial checkpoint.
func (s *Service) Create(ctx context.Context, in ProposalInput, actor string) (*Proposal, error) {
	status := StatusDraft
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	kind, err := pricing.ParseDiscountKind(in.DescontoTipo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	now := s.clock()
	p := fromInput(in, kind)
	p.ID = uuid.NewString()
	p.Status = status
	p.DataCriacao = now
	p.derive(in.Valor)

	cp := shared.NewCheckpoint(string(status), status.Label(), ptr("Proposta criada"), optional(actor), now)
	if err := s.insert(ctx, p, cp); err != nil {
		return nil, fmt.Errorf("create proposal: %w", err)
	}
	p.Checkpoints = []shared.Checkpoint{cp}
	s.created(OriginManual)
	return &p, nil
}

// CreateFromTable stores the proposal generated from a client's selection on
// a price table. Its value is the sum of the item totals.
func (s *Service) CreateFromTable(ctx context.Context, d TableDraft) (*Proposal, error) {
	if len(d.Itens) == 0 {
		return nil, fmt.Errorf("%w: nenhum produto selecionado", httpx.ErrValidation)
	}
	if d.Cliente.DisplayName() == "" {
		return nil, fmt.Errorf("%w: cliente é obrigatório", httpx.ErrValidation)
	}

	now := s.clock()
	p := Proposal{
		ID:                 uuid.NewString(),
		Titulo:             strings.TrimSpace(d.TabelaNome + " - " + d.Cliente.DisplayName()),
		CondicoesPagamento: d.CondicoesPagamento,
		PrazoEntrega:       d.PrazoEntrega,
		Observacoes:        d.Observacoes,
		DataVencimento:     d.DataVencimento,
		Status:             StatusPending,
		DataCriacao:        now,
		TabelaID:           d.TabelaID,
		ValorBloqueado:     true,
	}
	p.setContact(d.Cliente)

	lines := make([]pricing.Line, 0, len(d.Itens))
	p.Itens = make([]Item, len(d.Itens))
	for i, it := range d.Itens {
		line := it.PricingLine()
		it.ValorTotal = pricing.LineTotal(line).InexactFloat64()
		p.Itens[i] = it
		lines = append(lines, line)
	}
	p.Valor = pricing.Sum(lines).InexactFloat64()
	if len(p.Itens) == 1 {
		p.useItem(p.Itens[0])
	} else {
		p.Produto = fmt.Sprintf("%d produtos", len(p.Itens))
	}

	desc := fmt.Sprintf("Gerada a partir da tabela %s", d.TabelaNome)
	cp := shared.NewCheckpoint(string(p.Status), p.Status.Label(), &desc, nil, now)
	if err := s.insert(ctx, p, cp); err != nil {
		return nil, fmt.Errorf("create proposal from table: %w", err)
	}
	p.Checkpoints = []shared.Checkpoint{cp}
	s.created(OriginTable)
	return &p, nil
}

// Update replaces the editable fields. Status only changes through
// Transition.
func (s *Service) Update(ctx context.Context, id string, in ProposalInput) (*Proposal, error) {
	kind, err := pricing.ParseDiscountKind(in.DescontoTipo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	var out *Proposal
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		p := fromInput(in, kind)
		p.ID = current.ID
		p.Status = current.Status
		p.DataCriacao = current.DataCriacao
		p.TabelaID = current.TabelaID
		p.Itens = current.Itens
		p.derive(in.Valor)
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the proposal with its checkpoints, newest first.
func (s *Service) Get(ctx context.Context, id string) (*Proposal, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cps, err := s.repo.Checkpoints(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}
	shared.SortNewestFirst(cps)
	p.Checkpoints = cps
	if s.opts.StrictCheckpoints {
		if latest, ok := shared.Latest(cps); ok && latest.Status != string(p.Status) {
			s.logger.Warn("proposal status diverges from history",
				slog.String("proposal_id", p.ID),
				slog.String("status", string(p.Status)),
				slog.String("checkpoint_status", latest.Status))
		}
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Transition moves a proposal to target and appends the checkpoint in the
// same transaction. Any status other than the current one is accepted.
func (s *Service) Transition(ctx context.Context, id string, in TransitionInput) (*Proposal, error) {
	target, err := ParseStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == target {
			return ErrSameStatus
		}
		cp := shared.NewCheckpoint(string(target), target.Label(), in.Descricao, in.Usuario, s.clock())
		if err := tx.AppendCheckpoint(ctx, id, cp); err != nil {
			return err
		}
		p.Status = target
		return tx.Save(ctx, *p)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.StatusTransition(string(shared.EntityProposal), string(target))
	}
	return s.Get(ctx, id)
}

func (s *Service) insert(ctx context.Context, p Proposal, cp shared.Checkpoint) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Insert(ctx, p); err != nil {
			return err
		}
		return tx.AppendCheckpoint(ctx, p.ID, cp)
	})
}

func (s *Service) created(origin string) {
	if s.metrics != nil {
		s.metrics.ProposalCreated(origin)
	}
}

// derive sets Valor from the pricing fields, keeping manual only when the
// total cannot be computed.
func (p *Proposal) derive(manual *float64) {
	d := pricing.Derive(
		decimalOf(p.ValorUnitario),
		decimalOf(p.Quantidade),
		decimalOf(p.Desconto),
		p.DescontoTipo,
		decimalOf(manual),
	)
	p.Valor = d.Value.InexactFloat64()
	p.ValorBloqueado = d.Locked
}

func (p *Proposal) useItem(it Item) {
	p.Produto = it.Produto
	p.ProdutoCodigo = it.ProdutoCodigo
	p.Marca = it.Marca
	p.Categoria = it.Categoria
	p.UnidadeMedida = it.UnidadeMedida
	p.ValorUnitario = ptr(it.ValorUnitario)
	p.Quantidade = ptr(it.Quantidade)
	if it.AliquotaIpi > 0 {
		p.AliquotaIpi = ptr(it.AliquotaIpi)
	}
	if it.Desconto > 0 {
		p.Desconto = ptr(it.Desconto)
		p.DescontoTipo = it.DescontoTipo
	}
}

func fromInput(in ProposalInput, kind pricing.DiscountKind) Proposal {
	return Proposal{
		Titulo:                   strings.TrimSpace(in.Titulo),
		Cliente:                  strings.TrimSpace(in.Cliente),
		ClienteCnpj:              in.ClienteCnpj,
		ClienteEndereco:          in.ClienteEndereco,
		ClienteNumero:            in.ClienteNumero,
		ClienteBairro:            in.ClienteBairro,
		ClienteCidade:            in.ClienteCidade,
		ClienteCep:               in.ClienteCep,
		ClienteEstado:            strings.ToUpper(in.ClienteEstado),
		ClienteTelefone:          in.ClienteTelefone,
		ClienteEmail:             in.ClienteEmail,
		ClienteNomeFantasia:      in.ClienteNomeFantasia,
		Produto:                  in.Produto,
		ProdutoCodigo:            in.ProdutoCodigo,
		Marca:                    in.Marca,
		Categoria:                in.Categoria,
		UnidadeMedida:            in.UnidadeMedida,
		ValorUnitario:            in.ValorUnitario,
		Quantidade:               in.Quantidade,
		AliquotaIpi:              in.AliquotaIpi,
		Desconto:                 in.Desconto,
		DescontoTipo:             kind,
		CondicoesPagamento:       in.CondicoesPagamento,
		PrazoEntrega:             in.PrazoEntrega,
		ValorFrete:               in.ValorFrete,
		TipoPedido:               in.TipoPedido,
		Transportadora:           in.Transportadora,
		InformacoesAdicionais:    in.InformacoesAdicionais,
		Descricao:                in.Descricao,
		Observacoes:              in.Observacoes,
		EstrategiaRepresentacao:  in.EstrategiaRepresentacao,
		PublicoAlvo:              in.PublicoAlvo,
		DiferenciaisCompetitivos: in.DiferenciaisCompetitivos,
		DataVencimento:           in.DataVencimento,
	}
}

func decimalOf(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

func ptr[T any](v T) *T { return &v }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
