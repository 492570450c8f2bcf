package documents

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/luccagoltzman/ia-b2b/internal/pricing"
	"github.com/luccagoltzman/ia-b2b/report"
	"github.com/luccagoltzman/ia-b2b/web"
)

// HTMLConverter is the part of the Gotenberg client used here.
type HTMLConverter interface {
	RenderHTML(ctx context.Context, html string, opts report.PageOptions) ([]byte, error)
}

// PDFRenderer renders documents through the shared HTML template.
type PDFRenderer struct {
	converter HTMLConverter
	templates *template.Template
}

// NewPDFRenderer parses the document template.
func NewPDFRenderer(converter HTMLConverter) (*PDFRenderer, error) {
	funcMap := template.FuncMap{
		"brl":      pricing.FormatBRL,
		"qty":      pricing.FormatQuantity,
		"date":     func(t time.Time) string { return t.UTC().Format("02/01/2006") },
		"datetime": func(t time.Time) string { return t.UTC().Format("02/01/2006 15:04") },
	}
	tpl, err := template.New("document.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/document.html")
	if err != nil {
		return nil, fmt.Errorf("parse document template: %w", err)
	}
	return &PDFRenderer{converter: converter, templates: tpl}, nil
}

// HTML renders the intermediate HTML of doc.
func (p *PDFRenderer) HTML(doc Document) (string, error) {
	if p == nil || p.templates == nil {
		return "", fmt.Errorf("pdf renderer not initialized")
	}
	buf := &bytes.Buffer{}
	if err := p.templates.ExecuteTemplate(buf, "document.html", doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render converts doc to an A4 PDF.
func (p *PDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := p.HTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	if p.converter == nil {
		return nil, fmt.Errorf("pdf renderer: converter required")
	}
	return p.converter.RenderHTML(ctx, html, report.A4)
}
