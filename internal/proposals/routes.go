package proposals

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/status", h.Transition)
	r.Get("/{id}/transicoes", h.Transitions)
	r.Get("/{id}/pedido.pdf", h.OrderPDF)
}
