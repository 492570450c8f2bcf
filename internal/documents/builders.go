package documents

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
)

// ReturnNoteInput is the data of a client's confirmed selection.
type ReturnNoteInput struct {
	TableID   string
	TableName string
	Client    clients.Contact
	Items     []Item
	At        time.Time
}

// ReturnNote builds the "nota de retorno" for the selected items only. Rows
// carry the tax and discount adjusted unit price.
func ReturnNote(in ReturnNoteInput) Document {
	rows, total := PricedRows(in.Items)
	return Document{
		Kind:       KindReturnNote,
		Title:      "NOTA DE RETORNO",
		Subtitle:   "Confirmação de seleção de produtos pelo cliente",
		Reference:  "NR-" + shortID(in.TableID) + "-" + in.At.UTC().Format("02012006"),
		EntityName: in.TableName,
		Client:     in.Client,
		Meta: []Field{
			{Label: "Tabela", Value: in.TableName},
			{Label: "Data", Value: in.At.UTC().Format("02/01/2006")},
			{Label: "Itens selecionados", Value: strconv.Itoa(len(rows))},
		},
		Rows:        rows,
		Total:       total,
		TotalLabel:  "Valor Total:",
		Footer:      "Documento comercial · Confirmação de pedido",
		GeneratedAt: in.At,
	}
}

// PriceListInput is a price table as sent to one client.
type PriceListInput struct {
	TableID      string
	TableName    string
	Client       clients.Contact
	Items        []Item
	PaymentTerms string
	DeliveryTerm string
	Notes        string
	ExpiresOn    string
	At           time.Time
}

// PriceList builds the client-facing export of a price table. Discount and
// tax never appear: the unit price is the raw list price.
func PriceList(in PriceListInput) Document {
	items := make([]Item, len(in.Items))
	for i, it := range in.Items {
		it.Line = pricing.Line{UnitPrice: it.Line.UnitPrice, Quantity: it.Line.Quantity}
		items[i] = it
	}
	rows, total := PricedRows(items)
	meta := []Field{
		{Label: "Tabela", Value: in.TableName},
		{Label: "Data", Value: in.At.UTC().Format("02/01/2006")},
	}
	if in.ExpiresOn != "" {
		meta = append(meta, Field{Label: "Validade", Value: in.ExpiresOn})
	}
	return Document{
		Kind:        KindPriceList,
		Title:       "TABELA DE PREÇOS",
		Subtitle:    in.TableName,
		Reference:   "TP-" + shortID(in.TableID),
		EntityName:  in.TableName,
		Client:      in.Client,
		Meta:        meta,
		Rows:        rows,
		Total:       total,
		TotalLabel:  "Valor Total:",
		Terms:       terms(in.PaymentTerms, in.DeliveryTerm),
		Notes:       in.Notes,
		Footer:      "Tabela de preços sujeita a alteração sem aviso prévio",
		GeneratedAt: in.At,
	}
}

// OrderInput is a proposal printed as an order sheet.
type OrderInput struct {
	ProposalID   string
	Title        string
	Client       clients.Contact
	Items        []Item
	Freight      decimal.Decimal
	OrderType    string
	Carrier      string
	PaymentTerms string
	DeliveryTerm string
	Notes        string
	At           time.Time
}

// Order builds the order document. Each row is unit price with IPI times
// quantity; discounts are not applied on the order sheet. Freight is added
// once to the grand total.
func Order(in OrderInput) Document {
	rows := make([]Row, 0, len(in.Items))
	subtotal := decimal.Zero
	var taxes []string
	for i, it := range in.Items {
		t := pricing.OrderTotal(it.Line.UnitPrice, it.Line.Quantity, it.Line.TaxPercent, decimal.Zero)
		rows = append(rows, Row{
			Index:     i + 1,
			Code:      it.Code,
			Product:   it.Product,
			Brand:     it.Brand,
			Unit:      it.Unit,
			Quantity:  it.Line.Quantity,
			UnitPrice: t.UnitWithTax,
			Total:     t.Subtotal,
		})
		subtotal = subtotal.Add(t.Subtotal)
		if it.Line.TaxPercent.IsPositive() {
			taxes = append(taxes, pricing.FormatPercent(it.Line.TaxPercent))
		}
	}
	freight := in.Freight
	if freight.IsNegative() {
		freight = decimal.Zero
	}
	freight = freight.Round(2)

	meta := []Field{{Label: "Data", Value: in.At.UTC().Format("02/01/2006")}}
	if in.OrderType != "" {
		meta = append(meta, Field{Label: "Tipo de pedido", Value: in.OrderType})
	}
	if in.Carrier != "" {
		meta = append(meta, Field{Label: "Transportadora", Value: in.Carrier})
	}
	if len(taxes) == 1 {
		meta = append(meta, Field{Label: "IPI", Value: taxes[0]})
	}
	meta = append(meta,
		Field{Label: "Subtotal", Value: pricing.FormatBRL(subtotal)},
		Field{Label: "Frete", Value: pricing.FormatBRL(freight)},
	)
	return Document{
		Kind:        KindOrder,
		Title:       "PEDIDO",
		Subtitle:    in.Title,
		Reference:   "PD-" + shortID(in.ProposalID),
		EntityName:  in.Title,
		Client:      in.Client,
		Meta:        meta,
		Rows:        rows,
		Total:       subtotal.Add(freight),
		TotalLabel:  "Total do Pedido:",
		Terms:       terms(in.PaymentTerms, in.DeliveryTerm),
		Notes:       in.Notes,
		Footer:      "Documento comercial · Pedido",
		GeneratedAt: in.At,
	}
}

func terms(payment, delivery string) []Field {
	var out []Field
	if payment != "" {
		out = append(out, Field{Label: "Condições de pagamento", Value: payment})
	}
	if delivery != "" {
		out = append(out, Field{Label: "Prazo de entrega", Value: delivery})
	}
	return out
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 6 {
		id = id[:6]
	}
	return strings.ToUpper(id)
}
