package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/luccagoltzman/ia-b2b/internal/jobs"
)

const (
	// QueueDefault holds housekeeping tasks.
	QueueDefault = "default"
	// QueueDocuments holds document rendering for clients.
	QueueDocuments = "documentos"
	// TaskPriceTableDispatch renders and stores a sent table's price lists.
	TaskPriceTableDispatch = "pricetable:dispatch"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DispatchPayload names the table and the clients it was sent to. An empty
// client list means every client of the table.
type DispatchPayload struct {
	TableID  string   `json:"table_id"`
	Clientes []string `json:"clientes,omitempty"`
}

// NewDispatchTask constructs the dispatch task.
func NewDispatchTask(tableID string, clientes []string) (*asynq.Task, error) {
	if tableID == "" {
		return nil, errors.New("dispatch: table id required")
	}
	body, err := json.Marshal(DispatchPayload{TableID: tableID, Clientes: clientes})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPriceTableDispatch, body, asynq.Queue(QueueDocuments), asynq.MaxRetry(5)), nil
}

// CleanupPayload sets how long idempotency keys are retained.
type CleanupPayload struct {
	Retention string `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	body, err := json.Marshal(CleanupPayload{Retention: retention.String()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
