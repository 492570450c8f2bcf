package proposals

import (
	"time"

	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
)

// OrderDocument prints p as an order sheet. Proposals generated from a table
// list every item; manual proposals print their single product line.
func OrderDocument(p Proposal, at time.Time) documents.Document {
	var items []documents.Item
	if len(p.Itens) > 0 {
		for _, it := range p.Itens {
			items = append(items, documents.Item{
				Code:    it.ProdutoCodigo,
				Product: it.Produto,
				Brand:   it.Marca,
				Unit:    it.UnidadeMedida,
				Line:    it.PricingLine(),
			})
		}
	} else {
		items = []documents.Item{{
			Code:    p.ProdutoCodigo,
			Product: p.Produto,
			Brand:   p.Marca,
			Unit:    p.UnidadeMedida,
			Line: pricing.Line{
				UnitPrice:  decimalOf(p.ValorUnitario),
				Quantity:   decimalOf(p.Quantidade),
				TaxPercent: decimalOf(p.AliquotaIpi),
			},
		}}
	}
	title := p.Titulo
	if title == "" {
		title = "Proposta " + p.Cliente
	}
	return documents.Order(documents.OrderInput{
		ProposalID:   p.ID,
		Title:        title,
		Client:       p.Contact(),
		Items:        items,
		Freight:      decimalOf(p.ValorFrete).Round(2),
		OrderType:    p.TipoPedido,
		Carrier:      p.Transportadora,
		PaymentTerms: p.CondicoesPagamento,
		DeliveryTerm: p.PrazoEntrega,
		Notes:        firstNonEmpty(p.InformacoesAdicionais, p.Observacoes),
		At:           at,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
