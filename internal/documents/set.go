package documents

import (
	"context"
	"fmt"
)

const (
	// ContentTypePDF is served for PDF documents.
	ContentTypePDF = "application/pdf"
	// ContentTypeXLSX is served for spreadsheets.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Recorder counts rendered documents.
type Recorder interface {
	DocumentRendered(kind, format string)
}

// Set picks a renderer per format. Recorder may be nil.
type Set struct {
	PDF      Renderer
	XLSX     Renderer
	Recorder Recorder
}

// Rendered is a document ready to be served or saved.
type Rendered struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Render renders doc in format.
func (s Set) Render(ctx context.Context, doc Document, format Format) (Rendered, error) {
	var (
		r           Renderer
		contentType string
	)
	switch format {
	case FormatPDF:
		r, contentType = s.PDF, ContentTypePDF
	case FormatXLSX:
		r, contentType = s.XLSX, ContentTypeXLSX
	default:
		return Rendered{}, fmt.Errorf("documents: unknown format %q", format)
	}
	if r == nil {
		return Rendered{}, fmt.Errorf("documents: no %s renderer configured", format)
	}
	data, err := r.Render(ctx, doc)
	if err != nil {
		return Rendered{}, err
	}
	if s.Recorder != nil {
		s.Recorder.DocumentRendered(string(doc.Kind), string(format))
	}
	return Rendered{Filename: doc.Filename(format), ContentType: contentType, Data: data}, nil
}
