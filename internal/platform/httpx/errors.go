package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("recurso não encontrado")
	ErrDuplicate  = errors.New("registro duplicado")
	ErrValidation = errors.New("dados inválidos")
	ErrConflict   = errors.New("operação não permitida no estado atual")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Validation and conflict messages are user-facing and returned verbatim.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrConflict):
		Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "Erro interno do servidor.")
	}
}
