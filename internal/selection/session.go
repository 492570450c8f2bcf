// Package selection records which entries of a sent price table a client
// chose and turns a confirmed choice into return notes and a proposal.
package selection

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luccagoltzman/ia-b2b/internal/clients"
	"github.com/luccagoltzman/ia-b2b/internal/documents"
	"github.com/luccagoltzman/ia-b2b/internal/pricetables"
	"github.com/luccagoltzman/ia-b2b/internal/pricing"
)

var (
	ErrNoClients            = errors.New("a tabela não possui clientes associados")
	ErrClientChoiceRequired = errors.New("selecione qual cliente retornou a tabela")
	ErrUnknownClient        = errors.New("cliente não associado à tabela")
	ErrUnknownEntry         = errors.New("produto não pertence à tabela")
	ErrNotAwaitingReturn    = errors.New("a tabela não está aguardando retorno")
	ErrSessionClosed        = errors.New("seleção encerrada")
)

// ResolveClient returns the only client of t. Tables with several clients
// need an explicit choice.
func ResolveClient(t pricetables.PriceTable) (clients.Contact, error) {
	switch len(t.Clientes) {
	case 0:
		return clients.Contact{}, ErrNoClients
	case 1:
		return t.Clientes[0], nil
	default:
		return clients.Contact{}, ErrClientChoiceRequired
	}
}

// EligibleTables keeps the tables a client return can be recorded against.
func EligibleTables(tables []pricetables.PriceTable) []pricetables.PriceTable {
	out := make([]pricetables.PriceTable, 0, len(tables))
	for _, t := range tables {
		if t.Status.AcceptsReturns() && len(t.Produtos) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Session is the selection of one client against one table. It lives in
// memory only and is not safe for concurrent use.
type Session struct {
	table    pricetables.PriceTable
	client   clients.Contact
	selected map[string]bool
	closed   bool
	key      string
}

// Start opens a session for clientName. An empty name is accepted only when
// the table has a single client.
func Start(t pricetables.PriceTable, clientName string) (*Session, error) {
	if !t.Status.AcceptsReturns() {
		return nil, ErrNotAwaitingReturn
	}
	var (
		c   clients.Contact
		err error
	)
	if clientName == "" {
		c, err = ResolveClient(t)
		if err != nil {
			return nil, err
		}
	} else {
		var ok bool
		if c, ok = t.Client(clientName); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClient, clientName)
		}
	}
	return &Session{table: t, client: c, selected: make(map[string]bool), key: uuid.NewString()}, nil
}

func (s *Session) Table() pricetables.PriceTable { return s.table }
func (s *Session) Client() clients.Contact       { return s.client }

// IdempotencyKey identifies the proposal request of this session. Retries of
// Confirm reuse it so the backend creates at most one proposal.
func (s *Session) IdempotencyKey() string { return s.key }

// Toggle flips entryID and reports whether it is now selected.
func (s *Session) Toggle(entryID string) (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}
	if _, ok := s.table.Entry(entryID); !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEntry, entryID)
	}
	if s.selected[entryID] {
		delete(s.selected, entryID)
		return false, nil
	}
	s.selected[entryID] = true
	return true, nil
}

func (s *Session) IsSelected(entryID string) bool { return s.selected[entryID] }

func (s *Session) Len() int { return len(s.selected) }

// Selected returns the chosen entries in table order.
func (s *Session) Selected() []pricetables.Entry {
	out := make([]pricetables.Entry, 0, len(s.selected))
	for _, e := range s.table.Produtos {
		if s.selected[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// SelectedIDs returns the ids of Selected.
func (s *Session) SelectedIDs() []string {
	entries := s.Selected()
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// Total is the sum of the line totals of the selected entries.
func (s *Session) Total() decimal.Decimal {
	entries := s.Selected()
	lines := make([]pricing.Line, len(entries))
	for i, e := range entries {
		lines[i] = e.PricingLine()
	}
	return pricing.Sum(lines)
}

// Cancel discards the selection.
func (s *Session) Cancel() {
	s.selected = make(map[string]bool)
	s.closed = true
}

func (s *Session) documentItems() []documents.Item {
	entries := s.Selected()
	items := make([]documents.Item, len(entries))
	for i, e := range entries {
		items[i] = e.DocumentItem()
	}
	return items
}
