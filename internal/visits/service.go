package visits

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luccagoltzman/ia-b2b/internal/platform/httpx"
	"github.com/luccagoltzman/ia-b2b/internal/shared"
)

// ErrSameStatus rejects a transition to the current status.
var ErrSameStatus = fmt.Errorf("%w: a visita já está neste status", httpx.ErrConflict)

// Metrics receives visit status transitions.
type Metrics interface {
	StatusTransition(entity, status string)
}

type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics Metrics
	clock   func() time.Time
}

// NewService constructs a Service. metrics may be nil.
func NewService(repo Repository, logger *slog.Logger, metrics Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: metrics, clock: func() time.Time { return time.Now().UTC() }}
}

// Create schedules a visit and records its first checkpoint.
func (s *Service) Create(ctx context.Context, in VisitInput, actor string) (*Visit, error) {
	status := StatusScheduled
	if in.Status != "" {
		st, err := ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	v := Visit{
		ID:          uuid.NewString(),
		Cliente:     strings.TrimSpace(in.Cliente),
		Data:        in.Data,
		Hora:        in.Hora,
		Status:      status,
		Endereco:    strings.TrimSpace(in.Endereco),
		Observacoes: in.Observacoes,
		CreatedAt:   s.clock(),
	}
	desc := "Visita agendada"
	cp := shared.NewCheckpoint(string(status), status.Label(), &desc, &actor, v.CreatedAt)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Insert(ctx, v); err != nil {
			return err
		}
		return tx.AppendCheckpoint(ctx, v.ID, cp)
	})
	if err != nil {
		return nil, fmt.Errorf("create visit: %w", err)
	}
	v.Checkpoints = []shared.Checkpoint{cp}
	return &v, nil
}

// Update edits the schedule. Status changes go through Transition.
func (s *Service) Update(ctx context.Context, id string, in VisitInput) (*Visit, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		v.Cliente = strings.TrimSpace(in.Cliente)
		v.Data = in.Data
		v.Hora = in.Hora
		v.Endereco = strings.TrimSpace(in.Endereco)
		v.Observacoes = in.Observacoes
		return tx.Save(ctx, *v)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*Visit, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cps, err := s.repo.Checkpoints(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load checkpoints: %w", err)
	}
	shared.SortNewestFirst(cps)
	v.Checkpoints = cps
	return v, nil
}

func (s *Service) List(ctx context.Context, req ListVisitsRequest) ([]Visit, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Transition moves a visit to target, appending a checkpoint in the same
// transaction.
func (s *Service) Transition(ctx context.Context, id string, in TransitionInput) (*Visit, error) {
	target, err := ParseStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.Lock(ctx, id)
		if err != nil {
			return err
		}
		if v.Status == target {
			return ErrSameStatus
		}
		cp := shared.NewCheckpoint(string(target), target.Label(), in.Descricao, in.Usuario, s.clock())
		if err := tx.AppendCheckpoint(ctx, id, cp); err != nil {
			return err
		}
		v.Status = target
		return tx.Save(ctx, *v)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.StatusTransition(string(shared.EntityVisit), string(target))
	}
	return s.Get(ctx, id)
}
