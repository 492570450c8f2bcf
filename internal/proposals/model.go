package proposals

import (
	"fmt"
	"time"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// Status is the approval state of a proposal.
type Status string

const (
	StatusDraft            Status = "rascunho"
	StatusPending          Status = "pendente"
	StatusSent             Status = "enviada"
	StatusPurchasingReview Status = "em_analise_gerente_compras"
	StatusBoardReview      Status = "em_analise_diretoria"
	StatusApproved         Status = "aprovada"
	StatusRejected         Status = "rejeitada"
	StatusCanceled         Status = "cancelada"
)

// Statuses lists every status in typical progression order.
var Statuses = []Status{
	StatusDraft,
	StatusPending,
	StatusSent,
	StatusPurchasingReview,
	StatusBoardReview,
	StatusApproved,
	StatusRejected,
	StatusCanceled,
}

// ErrInvalidStatus is returned for values outside Statuses.
var ErrInvalidStatus = fmt.Errorf("%w: status de proposta inválido", httpx.ErrValidation)

// ParseStatus validates a wire value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := st.Info(); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Info returns the display metadata. ok is false for unknown values; there
// is no fallback entry.
func (s Status) Info() (info shared.StatusInfo, ok bool) {
	switch s {
	case StatusDraft:
		return shared.StatusInfo{Label: "Rascunho", Class: "muted", Icon: "📝"}, true
	case StatusPending:
		return shared.StatusInfo{Label: "Pendente", Class: "warning", Icon: "⏳"}, true
	case StatusSent:
		return shared.StatusInfo{Label: "Enviada", Class: "info", Icon: "📤"}, true
	case StatusPurchasingReview:
		return shared.StatusInfo{Label: "Em Análise - Gerente de Compras", Class: "info", Icon: "👔"}, true
	case StatusBoardReview:
		return shared.StatusInfo{Label: "Em Análise - Diretoria", Class: "info", Icon: "🏢"}, true
	case StatusApproved:
		return shared.StatusInfo{Label: "Aprovada", Class: "success", Icon: "✅"}, true
	case StatusRejected:
		return shared.StatusInfo{Label: "Rejeitada", Class: "error", Icon: "❌"}, true
	case StatusCanceled:
		return shared.StatusInfo{Label: "Cancelada", Class: "muted", Icon: "🚫"}, true
	}
	return shared.StatusInfo{}, false
}

// Label is the human label. Unknown values read from older records come back
// title-cased; this is the only place a status is shown without a known
// entry, and only checkpoints and synthetic history use it. Writes reach it
// through ParseStatus, so they never hit the fallback. Screens that must
// tell unknown values apart call Info.
func (s Status) Label() string {
	if info, ok := s.Info(); ok {
		return info.Label
	}
	return shared.TitleFromCode(string(s))
}

// Item is a price table entry copied into a proposal generated from a
// selection.
type Item struct {
	ProdutoID     string               `json:"produtoId"`
	Produto       string               `json:"produto"`
	ProdutoCodigo string               `json:"produtoCodigo,omitempty"`
	Marca         string               `json:"marca,omitempty"`
	Categoria     string               `json:"categoria,omitempty"`
	UnidadeMedida string               `json:"unidadeMedida,omitempty"`
	Quantidade    float64              `json:"quantidade"`
	ValorUnitario float64              `json:"valorUnitario"`
	AliquotaIpi   float64              `json:"aliquotaIpi,omitempty"`
	Desconto      float64              `json:"desconto,omitempty"`
	DescontoTipo  pricing.DiscountKind `json:"descontoTipo,omitempty"`
	ValorTotal    float64              `json:"valorTotal"`
}

// PricingLine converts the item for the pricing engine.
func (i Item) PricingLine() pricing.Line {
	return pricing.NewLine(i.ValorUnitario, i.Quantidade, i.AliquotaIpi, i.Desconto, i.DescontoTipo)
}

// Proposal is a commercial proposal with its approval history.
type Proposal struct {
	ID     string `json:"id"`
	Titulo string `json:"titulo,omitempty"`

	Cliente             string `json:"cliente"`
	ClienteCnpj         string `json:"clienteCnpj,omitempty"`
	ClienteEndereco     string `json:"clienteEndereco,omitempty"`
	ClienteNumero       string `json:"clienteNumero,omitempty"`
	ClienteBairro       string `json:"clienteBairro,omitempty"`
	ClienteCidade       string `json:"clienteCidade,omitempty"`
	ClienteCep          string `json:"clienteCep,omitempty"`
	ClienteEstado       string `json:"clienteEstado,omitempty"`
	ClienteTelefone     string `json:"clienteTelefone,omitempty"`
	ClienteEmail        string `json:"clienteEmail,omitempty"`
	ClienteNomeFantasia string `json:"clienteNomeFantasia,omitempty"`

	Produto       string               `json:"produto,omitempty"`
	ProdutoCodigo string               `json:"produtoCodigo,omitempty"`
	Marca         string               `json:"marca,omitempty"`
	Categoria     string               `json:"categoria,omitempty"`
	UnidadeMedida string               `json:"unidadeMedida,omitempty"`
	ValorUnitario *float64             `json:"valorUnitario,omitempty"`
	Quantidade    *float64             `json:"quantidade,omitempty"`
	AliquotaIpi   *float64             `json:"aliquotaIpi,omitempty"`
	Desconto      *float64             `json:"desconto,omitempty"`
	DescontoTipo  pricing.DiscountKind `json:"descontoTipo,omitempty"`

	CondicoesPagamento    string   `json:"condicoesPagamento,omitempty"`
	PrazoEntrega          string   `json:"prazoEntrega,omitempty"`
	ValorFrete            *float64 `json:"valorFrete,omitempty"`
	TipoPedido            string   `json:"tipoPedido,omitempty"`
	Transportadora        string   `json:"transportadora,omitempty"`
	InformacoesAdicionais string   `json:"informacoesAdicionais,omitempty"`

	Descricao                string `json:"descricao,omitempty"`
	Observacoes              string `json:"observacoes,omitempty"`
	EstrategiaRepresentacao  string `json:"estrategiaRepresentacao,omitempty"`
	PublicoAlvo              string `json:"publicoAlvo,omitempty"`
	DiferenciaisCompetitivos string `json:"diferenciaisCompetitivos,omitempty"`

	Valor          float64   `json:"valor"`
	ValorBloqueado bool      `json:"valorBloqueado"`
	Status         Status    `json:"status"`
	DataCriacao    time.Time `json:"dataCriacao"`
	DataVencimento string    `json:"dataVencimento,omitempty"`

	TabelaID    string              `json:"tabelaId,omitempty"`
	Itens       []Item              `json:"itens,omitempty"`
	Checkpoints []shared.Checkpoint `json:"checkpoints,omitempty"`
}

// Contact returns the client block of the proposal.
func (p Proposal) Contact() clients.Contact {
	return clients.Contact{
		Nome:     p.Cliente,
		Email:    p.ClienteEmail,
		Telefone: p.ClienteTelefone,
		Empresa:  p.ClienteNomeFantasia,
		CNPJ:     p.ClienteCnpj,
		Endereco: p.ClienteEndereco,
		Numero:   p.ClienteNumero,
		Bairro:   p.ClienteBairro,
		Cidade:   p.ClienteCidade,
		Estado:   p.ClienteEstado,
		CEP:      p.ClienteCep,
	}
}

func (p *Proposal) setContact(c clients.Contact) {
	p.Cliente = c.DisplayName()
	p.ClienteEmail = c.Email
	p.ClienteTelefone = c.Telefone
	p.ClienteNomeFantasia = c.Empresa
	p.ClienteCnpj = c.CNPJ
	p.ClienteEndereco = c.Endereco
	p.ClienteNumero = c.Numero
	p.ClienteBairro = c.Bairro
	p.ClienteCidade = c.Cidade
	p.ClienteEstado = c.Estado
	p.ClienteCep = c.CEP
}

// TableDraft is what the price table service hands over when a client's
// selection becomes a proposal.
type TableDraft struct {
	TabelaID           string
	TabelaNome         string
	Cliente            clients.Contact
	Itens              []Item
	CondicoesPagamento string
	PrazoEntrega       string
	Observacoes        string
	DataVencimento     string
}
