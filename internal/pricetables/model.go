package pricetables

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/internal/proposals"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// Status is the lifecycle state of a price table.
type Status string

const (
	StatusDraft             Status = "rascunho"
	StatusSent              Status = "enviada"
	StatusAwaitingResponse  Status = "aguardando_resposta"
	StatusProposalGenerated Status = "proposta_gerada"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusSent, StatusAwaitingResponse, StatusProposalGenerated}

// ErrInvalidStatus is returned for values outside Statuses.
var ErrInvalidStatus = fmt.Errorf("%w: status de tabela inválido", httpx.ErrValidation)

// ParseStatus validates a wire value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := st.Info(); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Info returns the display metadata; ok is false for unknown values.
func (s Status) Info() (info shared.StatusInfo, ok bool) {
	switch s {
	case StatusDraft:
		return shared.StatusInfo{Label: "Rascunho", Class: "muted", Icon: "📝"}, true
	case StatusSent:
		return shared.StatusInfo{Label: "Enviada", Class: "success", Icon: "📤"}, true
	case StatusAwaitingResponse:
		return shared.StatusInfo{Label: "Aguardando Resposta", Class: "warning", Icon: "⏳"}, true
	case StatusProposalGenerated:
		return shared.StatusInfo{Label: "Proposta Gerada", Class: "info", Icon: "📄"}, true
	}
	return shared.StatusInfo{}, false
}

// AcceptsReturns reports whether a client response can be recorded against
// a table in this status.
func (s Status) AcceptsReturns() bool {
	return s == StatusSent || s == StatusAwaitingResponse
}

// Units are the accepted units of measure.
var Units = []string{"unidade", "kg", "g", "litro", "ml", "caixa", "pacote", "fardo", "duzia", "metro", "outro"}

// Entry is one catalog line of a price table. Discount and IPI are internal
// and never printed on client-facing exports.
type Entry struct {
	ID            string               `json:"id"`
	Produto       string               `json:"produto"`
	ProdutoCodigo string               `json:"produtoCodigo,omitempty"`
	Marca         string               `json:"marca"`
	Categoria     string               `json:"categoria,omitempty"`
	UnidadeMedida string               `json:"unidadeMedida"`
	Quantidade    float64              `json:"quantidade"`
	ValorUnitario float64              `json:"valorUnitario"`
	AliquotaIpi   *float64             `json:"aliquotaIpi,omitempty"`
	Desconto      *float64             `json:"desconto,omitempty"`
	DescontoTipo  pricing.DiscountKind `json:"descontoTipo,omitempty"`
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// PricingLine converts the entry for the pricing engine.
func (e Entry) PricingLine() pricing.Line {
	return pricing.NewLine(e.ValorUnitario, e.Quantidade, value(e.AliquotaIpi), value(e.Desconto), e.DescontoTipo)
}

// DocumentItem is the entry as printed on documents.
func (e Entry) DocumentItem() documents.Item {
	return documents.Item{
		Code:    e.ProdutoCodigo,
		Product: e.Produto,
		Brand:   e.Marca,
		Unit:    e.UnidadeMedida,
		Line:    e.PricingLine(),
	}
}

// ProposalItem copies the entry into a proposal.
func (e Entry) ProposalItem() proposals.Item {
	return proposals.Item{
		ProdutoID:     e.ID,
		Produto:       e.Produto,
		ProdutoCodigo: e.ProdutoCodigo,
		Marca:         e.Marca,
		Categoria:     e.Categoria,
		UnidadeMedida: e.UnidadeMedida,
		Quantidade:    e.Quantidade,
		ValorUnitario: e.ValorUnitario,
		AliquotaIpi:   value(e.AliquotaIpi),
		Desconto:      value(e.Desconto),
		DescontoTipo:  e.DescontoTipo,
	}
}

// PriceTable is a catalog sent to one or more clients.
type PriceTable struct {
	ID                 string            `json:"id"`
	Nome               string            `json:"nome"`
	Produtos           []Entry           `json:"produtos"`
	Clientes           []clients.Contact `json:"clientes"`
	CondicoesPagamento string            `json:"condicoesPagamento,omitempty"`
	PrazoEntrega       string            `json:"prazoEntrega,omitempty"`
	Observacoes        string            `json:"observacoes,omitempty"`
	DataCriacao        time.Time         `json:"dataCriacao"`
	DataVencimento     string            `json:"dataVencimento,omitempty"`
	Status             Status            `json:"status"`
}

type priceTableFields PriceTable

// UnmarshalJSON also reads the legacy single "cliente" field.
func (t *PriceTable) UnmarshalJSON(data []byte) error {
	var aux struct {
		priceTableFields
		Cliente *clients.Contact `json:"cliente"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = PriceTable(aux.priceTableFields)
	if len(t.Clientes) == 0 && aux.Cliente != nil && aux.Cliente.DisplayName() != "" {
		t.Clientes = []clients.Contact{*aux.Cliente}
	}
	return nil
}

// Entry returns the entry with id.
func (t PriceTable) Entry(id string) (Entry, bool) {
	for _, e := range t.Produtos {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Client returns the associated client named name.
func (t PriceTable) Client(name string) (clients.Contact, bool) {
	return clients.Find(t.Clientes, name)
}

// ClientNames lists the display names of the associated clients.
func (t PriceTable) ClientNames() []string {
	names := make([]string, 0, len(t.Clientes))
	for _, c := range t.Clientes {
		names = append(names, c.DisplayName())
	}
	return names
}

// PriceListDocument is the client-facing export of t for c.
func PriceListDocument(t PriceTable, c clients.Contact, at time.Time) documents.Document {
	items := make([]documents.Item, len(t.Produtos))
	for i, e := range t.Produtos {
		items[i] = e.DocumentItem()
	}
	return documents.PriceList(documents.PriceListInput{
		TableID:      t.ID,
		TableName:    t.Nome,
		Client:       c,
		Items:        items,
		PaymentTerms: t.CondicoesPagamento,
		DeliveryTerm: t.PrazoEntrega,
		Notes:        t.Observacoes,
		ExpiresOn:    t.DataVencimento,
		At:           at,
	})
}
