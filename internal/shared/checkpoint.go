package shared

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/luccagoltzman/ia-b2b/internal/platform/db"
)

// CheckpointEntity names the owner table of a checkpoint.
type CheckpointEntity string

const (
	// EntityProposal marks proposal checkpoints.
	EntityProposal CheckpointEntity = "proposta"
	// EntityVisit marks visit checkpoints.
	EntityVisit CheckpointEntity = "visita"
)

// Checkpoint is one immutable entry of a status history.
type Checkpoint struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Label     string    `json:"label"`
	Descricao *string   `json:"descricao,omitempty"`
	Data      time.Time `json:"data"`
	Usuario   *string   `json:"usuario,omitempty"`
}

// NewCheckpoint stamps a checkpoint with a fresh id.
func NewCheckpoint(status, label string, descricao, usuario *string, at time.Time) Checkpoint {
	return Checkpoint{
		ID:        uuid.NewString(),
		Status:    status,
		Label:     label,
		Descricao: blankToNil(descricao),
		Data:      at.UTC(),
		Usuario:   blankToNil(usuario),
	}
}

// SortNewestFirst orders checkpoints by timestamp descending. Entries with
// equal timestamps keep their relative order.
func SortNewestFirst(cps []Checkpoint) {
	sort.SliceStable(cps, func(i, j int) bool {
		return cps[i].Data.After(cps[j].Data)
	})
}

// Latest returns the most recent checkpoint.
func Latest(cps []Checkpoint) (Checkpoint, bool) {
	if len(cps) == 0 {
		return Checkpoint{}, false
	}
	latest := cps[0]
	for _, cp := range cps[1:] {
		if cp.Data.After(latest.Data) {
			latest = cp
		}
	}
	return latest, true
}

// CheckpointLog appends and reads checkpoints. It takes the querier per call so
// the append can join the caller's transaction.
type CheckpointLog struct{}

// Append writes a checkpoint row. There is no update or delete path.
func (CheckpointLog) Append(ctx context.Context, q db.DBTX, entity CheckpointEntity, entityID string, cp Checkpoint) error {
	if q == nil {
		return errors.New("checkpoint log: querier required")
	}
	if entity == "" || entityID == "" {
		return errors.New("checkpoint log: entity reference required")
	}
	if cp.ID == "" || cp.Status == "" {
		return errors.New("checkpoint log: id and status required")
	}
	_, err := q.Exec(ctx, `INSERT INTO checkpoints (id, entity, entity_id, status, label, descricao, usuario, at)
VALUES ($1::uuid, $2, $3::uuid, $4, $5, $6, $7, $8)`,
		cp.ID, string(entity), entityID, cp.Status, cp.Label, cp.Descricao, cp.Usuario, cp.Data)
	return err
}

// List returns the checkpoints of one entity, newest first.
func (CheckpointLog) List(ctx context.Context, q db.DBTX, entity CheckpointEntity, entityID string) ([]Checkpoint, error) {
	rows, err := q.Query(ctx, `SELECT id::text, status, label, descricao, usuario, at
FROM checkpoints WHERE entity = $1 AND entity_id = $2::uuid ORDER BY at DESC, seq DESC`, string(entity), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cps := []Checkpoint{}
	for rows.Next() {
		var cp Checkpoint
		if err := rows.Scan(&cp.ID, &cp.Status, &cp.Label, &cp.Descricao, &cp.Usuario, &cp.Data); err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cps, nil
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
