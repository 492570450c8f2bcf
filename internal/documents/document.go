// Package documents renders commercial documents (return notes, client-facing
// price lists and order sheets) to PDF and XLSX.
package documents

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
)

// Kind identifies the document type. It is the first filename segment.
type Kind string

const (
	KindReturnNote Kind = "nota_retorno"
	KindPriceList  Kind = "tabela"
	KindOrder      Kind = "pedido"
)

// Format is the output format of a rendered document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format value from a URL.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: formato de documento desconhecido: %s", httpx.ErrValidation, s)
	}
}

// Row is one printed line item. Index is 1-based.
type Row struct {
	Index     int
	Code      string
	Product   string
	Brand     string
	Unit      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Field is a labelled value printed in the document header.
type Field struct {
	Label string
	Value string
}

// Document is the format-independent content of a rendered document.
type Document struct {
	Kind        Kind
	Title       string
	Subtitle    string
	Reference   string
	EntityName  string
	Client      clients.Contact
	Meta        []Field
	Rows        []Row
	Total       decimal.Decimal
	TotalLabel  string
	Terms       []Field
	Notes       string
	Footer      string
	GeneratedAt time.Time
}

// Filename is {kind}_{entity}_{client}_{YYYY-MM-DD}.{ext}.
func (d Document) Filename(format Format) string {
	return Filename(d.Kind, d.EntityName, d.Client.DisplayName(), d.GeneratedAt, format)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename builds a deterministic document filename. Whitespace runs become
// underscores and path separators are dropped.
func Filename(kind Kind, entity, client string, at time.Time, format Format) string {
	parts := []string{string(kind)}
	for _, p := range []string{entity, client} {
		if s := slug(p); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, at.UTC().Format("2006-01-02"))
	return strings.Join(parts, "_") + "." + string(format)
}

func slug(s string) string {
	s = strings.NewReplacer("/", "", "\\", "", ":", "").Replace(strings.TrimSpace(s))
	return whitespaceRun.ReplaceAllString(s, "_")
}

// Item is a priced line before it becomes a Row.
type Item struct {
	Code    string
	Product string
	Brand   string
	Unit    string
	Line    pricing.Line
}

// PricedRows turns items into rows using the effective unit price and line
// total, and returns the grand total as pricing.Sum over the same lines.
func PricedRows(items []Item) ([]Row, decimal.Decimal) {
	rows := make([]Row, 0, len(items))
	lines := make([]pricing.Line, 0, len(items))
	for i, it := range items {
		rows = append(rows, Row{
			Index:     i + 1,
			Code:      it.Code,
			Product:   it.Product,
			Brand:     it.Brand,
			Unit:      it.Unit,
			Quantity:  it.Line.Quantity,
			UnitPrice: pricing.EffectiveUnitPrice(it.Line).Round(2),
			Total:     pricing.LineTotal(it.Line),
		})
		lines = append(lines, it.Line)
	}
	return rows, pricing.Sum(lines)
}

// Renderer turns a Document into bytes of one format.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}
