package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Error categories. APIError unwraps to one of them.
var (
	ErrMissingEndpoint = errors.New("endpoint não implementado no backend")
	ErrInvalidData     = errors.New("dados inválidos")
	ErrNotFound        = errors.New("registro não encontrado")
	ErrConflict        = errors.New("conflito com o estado atual do registro")
	ErrRejected        = errors.New("requisição recusada pelo servidor")
	ErrUnavailable     = errors.New("falha de comunicação com o servidor")
)

const (
	genericInvalidMessage = "Dados inválidos. Verifique os campos e tente novamente."
	genericFailureMessage = "Erro ao comunicar com o servidor. Tente novamente."
)

// APIError is a failed backend call. Message is ready to show to the
// representative.
type APIError struct {
	Method  string
	Route   string
	Status  int
	Message string
	kind    error
	cause   error
}

func (e *APIError) Error() string { return e.Message }

// Unwrap exposes the category and, for transport failures, the cause.
func (e *APIError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

// classify maps a response status to an APIError. backendMessage is the
// "message" field of the body, if any, and is shown verbatim for every 4xx
// that carries one. A 404 is reported as a missing endpoint unless the
// backend answered it with a message.
func classify(method, route string, status int, backendMessage string) *APIError {
	e := &APIError{Method: method, Route: route, Status: status, Message: backendMessage}
	switch {
	case status == http.StatusNotFound && backendMessage != "":
		e.kind = ErrNotFound
	case status == http.StatusNotFound || status == http.StatusNotImplemented:
		e.kind = ErrMissingEndpoint
		e.Message = fmt.Sprintf("Endpoint não encontrado. O backend precisa implementar %s /api%s", method, route)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.kind = ErrInvalidData
		if e.Message == "" {
			e.Message = genericInvalidMessage
		}
	case status == http.StatusConflict && backendMessage != "":
		e.kind = ErrConflict
	case status >= 400 && status < 500 && backendMessage != "":
		e.kind = ErrRejected
	default:
		e.kind, e.Message = ErrUnavailable, genericFailureMessage
	}
	return e
}

func transportError(method, route string, err error) *APIError {
	return &APIError{Method: method, Route: route, Message: genericFailureMessage, kind: ErrUnavailable, cause: err}
}
