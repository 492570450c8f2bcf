// Package workbench holds the representative-side proposal workflow: detail
// with history, status options and transitions against the backend.
package workbench

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/luccagoltzman/ia-b2b/internal/proposals"
)

var (
	ErrStatusRequired = errors.New("selecione um novo status")
	ErrSameStatus     = errors.New("a proposta já está neste status")
)

// ProposalAPI is the backend surface the desk needs.
type ProposalAPI interface {
	GetProposal(ctx context.Context, id string) (*proposals.Proposal, error)
	TransitionProposal(ctx context.Context, id string, in proposals.TransitionInput) (*proposals.Proposal, error)
}

// Desk drives proposal detail and status changes.
type Desk struct {
	api    ProposalAPI
	logger *slog.Logger
	actor  string
}

// NewDesk builds a Desk. actor, when set, is recorded on checkpoints.
func NewDesk(api ProposalAPI, actor string, logger *slog.Logger) *Desk {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desk{api: api, actor: strings.TrimSpace(actor), logger: logger}
}

// Detail is a proposal ready for the timeline view.
type Detail struct {
	Proposal proposals.Proposal
	// Synthetic is set when the history was built locally because the
	// backend could not return it.
	Synthetic bool
}

// Detail loads the full proposal. If the backend fails, the listed copy is
// shown with one checkpoint derived from its status and creation date.
func (d *Desk) Detail(ctx context.Context, listed proposals.Proposal) Detail {
	p, err := d.api.GetProposal(ctx, listed.ID)
	if err != nil {
		d.logger.Warn("proposal history unavailable, using current status",
			slog.String("proposal_id", listed.ID), slog.Any("error", err))
		return synthetic(listed)
	}
	return complete(*p)
}

// ListPage returns one page of the proposal listing, newest first.
type ListPage func(ctx context.Context, offset, limit int) ([]proposals.Proposal, error)

// ListPageSize is the page size used when searching the listing.
const ListPageSize = 100

// Lookup finds proposal id for the detail and status views. The detail
// endpoint is tried first; when it fails the listing is paged through and
// the listed copy gets a synthetic history. If the listing does not have
// the proposal either, the detail endpoint's error is returned.
func (d *Desk) Lookup(ctx context.Context, id string, list ListPage) (Detail, error) {
	p, getErr := d.api.GetProposal(ctx, id)
	if getErr == nil {
		return complete(*p), nil
	}
	d.logger.Warn("proposal detail unavailable, searching the listing",
		slog.String("proposal_id", id), slog.Any("error", getErr))
	if list == nil {
		return Detail{}, getErr
	}

	var firstOfPrevious string
	for offset := 0; ; {
		page, err := list(ctx, offset, ListPageSize)
		if err != nil {
			return Detail{}, err
		}
		if len(page) == 0 || page[0].ID == firstOfPrevious {
			break
		}
		for _, listed := range page {
			if listed.ID == id {
				return synthetic(listed), nil
			}
		}
		if len(page) < ListPageSize {
			break
		}
		firstOfPrevious = page[0].ID
		offset += len(page)
	}
	return Detail{}, getErr
}

func complete(p proposals.Proposal) Detail {
	if len(p.Checkpoints) == 0 {
		p.Checkpoints = proposals.SyntheticHistory(p)
		return Detail{Proposal: p, Synthetic: true}
	}
	return Detail{Proposal: p}
}

func synthetic(listed proposals.Proposal) Detail {
	listed.Checkpoints = proposals.SyntheticHistory(listed)
	return Detail{Proposal: listed, Synthetic: true}
}

// Option is one selectable target status.
type Option struct {
	Status proposals.Status
	Label  string
	Class  string
	Icon   string
}

// Options lists the statuses offered for a proposal in current.
func Options(current proposals.Status) []Option {
	targets := proposals.AvailableTransitions(current)
	out := make([]Option, 0, len(targets))
	for _, st := range targets {
		info, _ := st.Info()
		out = append(out, Option{Status: st, Label: info.Label, Class: info.Class, Icon: info.Icon})
	}
	return out
}

// Transition asks the backend to move p to target and returns the backend's
// copy. p itself is never modified, so on error the caller keeps showing
// the old status.
func (d *Desk) Transition(ctx context.Context, p proposals.Proposal, target, descricao string) (*proposals.Proposal, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, ErrStatusRequired
	}
	st, err := proposals.ParseStatus(target)
	if err != nil {
		return nil, err
	}
	if st == p.Status {
		return nil, ErrSameStatus
	}
	in := proposals.TransitionInput{Status: string(st)}
	if desc := strings.TrimSpace(descricao); desc != "" {
		in.Descricao = &desc
	}
	if d.actor != "" {
		actor := d.actor
		in.Usuario = &actor
	}
	updated, err := d.api.TransitionProposal(ctx, p.ID, in)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
