package app

import (
	"log"
	"mime"

	"github.com/luccagoltzman/ia-b2b/internal/documents"
)

func init() {
	ensureMimeType(".xlsx", documents.ContentTypeXLSX)
	ensureMimeType(".pdf", documents.ContentTypePDF)
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
