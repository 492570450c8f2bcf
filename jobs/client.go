package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits dispatch tasks. It satisfies the table service's dispatcher.
type Client struct {
	enqueuer Enqueuer
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{enqueuer: asynq.NewClient(redisOpts)}
}

// NewClientWith wraps an existing enqueuer.
func NewClientWith(e Enqueuer) *Client {
	return &Client{enqueuer: e}
}

// EnqueueDispatch queues the price list rendering of a sent table.
func (c *Client) EnqueueDispatch(ctx context.Context, tableID string, clientes []string) error {
	if c == nil || c.enqueuer == nil {
		return errors.New("jobs: client not configured")
	}
	task, err := NewDispatchTask(tableID, clientes)
	if err != nil {
		return err
	}
	_, err = c.enqueuer.EnqueueContext(ctx, task)
	return err
}

func (c *Client) Close() error {
	if c == nil || c.enqueuer == nil {
		return nil
	}
	return c.enqueuer.Close()
}
