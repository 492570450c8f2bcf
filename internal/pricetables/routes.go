package pricetables

import (
	"errors"

	"github.com/go-chi/chi/v5"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/enviar", h.Send)
	r.Post("/{id}/retorno", h.Return)
	r.Post("/{id}/gerar-proposta", h.GenerateProposal)
	r.Get("/{id}/documento.{format}", h.Document)
}

func isClientError(err error) bool {
	return errors.Is(err, httpx.ErrNotFound) || errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrConflict)
}
