package visits

import (
	"fmt"
	"time"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// Status is the lifecycle state of a client visit.
type Status string

const (
	StatusScheduled   Status = "agendada"
	StatusConfirmed   Status = "confirmada"
	StatusInProgress  Status = "em_andamento"
	StatusDone        Status = "realizada"
	StatusCanceled    Status = "cancelada"
	StatusRescheduled Status = "reagendada"
)

// Statuses lists every visit status.
var Statuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress, StatusDone, StatusCanceled, StatusRescheduled}

// ErrInvalidStatus is returned for values outside Statuses.
var ErrInvalidStatus = fmt.Errorf("%w: status de visita inválido", httpx.ErrValidation)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := st.Info(); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Info returns the display metadata; ok is false for unknown values.
func (s Status) Info() (shared.StatusInfo, bool) {
	switch s {
	case StatusScheduled:
		return shared.StatusInfo{Label: "Agendada", Class: "info", Icon: "📅"}, true
	case StatusConfirmed:
		return shared.StatusInfo{Label: "Confirmada", Class: "info", Icon: "✓"}, true
	case StatusInProgress:
		return shared.StatusInfo{Label: "Em Andamento", Class: "warning", Icon: "🔄"}, true
	case StatusDone:
		return shared.StatusInfo{Label: "Realizada", Class: "success", Icon: "✅"}, true
	case StatusCanceled:
		return shared.StatusInfo{Label: "Cancelada", Class: "error", Icon: "❌"}, true
	case StatusRescheduled:
		return shared.StatusInfo{Label: "Reagendada", Class: "warning", Icon: "📆"}, true
	}
	return shared.StatusInfo{}, false
}

// Label is the display label, or the title-cased code for unknown values.
func (s Status) Label() string {
	if info, ok := s.Info(); ok {
		return info.Label
	}
	return shared.TitleFromCode(string(s))
}

// AvailableTransitions lists every status except current. Any visit status
// may follow any other.
func AvailableTransitions(current Status) []Status {
	out := make([]Status, 0, len(Statuses)-1)
	for _, st := range Statuses {
		if st != current {
			out = append(out, st)
		}
	}
	return out
}

// Visit is a scheduled meeting with a client. Data is a calendar date
// (YYYY-MM-DD) and Hora an optional HH:MM.
type Visit struct {
	ID          string              `json:"id"`
	Cliente     string              `json:"cliente"`
	Data        string              `json:"data"`
	Hora        string              `json:"hora,omitempty"`
	Status      Status              `json:"status"`
	Endereco    string              `json:"endereco,omitempty"`
	Observacoes string              `json:"observacoes,omitempty"`
	CreatedAt   time.Time           `json:"dataCriacao"`
	Checkpoints []shared.Checkpoint `json:"checkpoints"`
}
