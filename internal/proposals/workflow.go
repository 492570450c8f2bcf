package proposals

import (
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// AvailableTransitions lists the statuses a proposal in current may move to.
// Any status other than the current one is allowed.
func AvailableTransitions(current Status) []Status {
	out := make([]Status, 0, len(Statuses)-1)
	for _, s := range Statuses {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

// SyntheticHistory builds the single checkpoint shown when the full history
// cannot be loaded: the current status dated at creation.
func SyntheticHistory(p Proposal) []shared.Checkpoint {
	return []shared.Checkpoint{{
		ID:     "inicial-" + p.ID,
		Status: string(p.Status),
		Label:  p.Status.Label(),
		Data:   p.DataCriacao.UTC(),
	}}
}
