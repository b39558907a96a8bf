package cleanup

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/metrics"
)

// DefaultMaxAttempts bounds how often one job is retried before it is
// dropped with an error log.
const DefaultMaxAttempts = 10

// Clearer deletes cart lines.
type Clearer interface {
	ClearCartItems(ctx context.Context, userID string, ids []string) error
}

type Worker struct {
	queue       Queue
	clearer     Clearer
	interval    time.Duration
	maxAttempts int
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewWorker(q Queue, c Clearer, interval time.Duration, logger logging.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		queue:       q,
		clearer:     c,
		interval:    interval,
		maxAttempts: DefaultMaxAttempts,
		logger:      logger,
		metrics:     m,
	}
}

// Run drains the queue every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error(ctx, "cart cleanup drain failed", "error", err)
			}
		}
	}
}

// Drain makes one attempt at every job queued when it starts. Jobs that
// fail again go to the back of the queue.
func (w *Worker) Drain(ctx context.Context) error {
	n, err := w.queue.Len(ctx)
	if err != nil {
		return err
	}

	for i := int64(0); i < n; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		job, err := w.queue.Pop(ctx)
		if errors.Is(err, ErrBadPayload) {
			w.metrics.CleanupJob("dropped")
			w.logger.Error(ctx, "cart cleanup job discarded", "error", err)
			continue
		}
		if err != nil {
			return err
		}
		if job == nil {
			break
		}
		w.process(ctx, job)
	}

	if left, err := w.queue.Len(ctx); err == nil {
		w.metrics.CleanupQueueDepth(left)
	}
	return nil
}

func (w *Worker) process(ctx context.Context, job *Job) {
	err := w.clearer.ClearCartItems(ctx, job.UserID, job.CartItemIDs)
	if err == nil {
		w.metrics.CleanupJob("done")
		w.logger.Info(ctx, "cart cleanup retried", "user_id", job.UserID, "order_id", job.OrderID, "attempts", job.Attempts+1)
		return
	}

	job.Attempts++
	if job.Attempts >= w.maxAttempts {
		w.metrics.CleanupJob("dropped")
		w.logger.Error(ctx, "cart cleanup given up",
			"user_id", job.UserID, "order_id", job.OrderID, "cart_item_ids", job.CartItemIDs,
			"attempts", job.Attempts, "error", err)
		return
	}

	w.metrics.CleanupJob("retry")
	w.logger.Warn(ctx, "cart cleanup failed, will retry", "user_id", job.UserID, "attempts", job.Attempts, "error", err)
	if perr := w.queue.Push(ctx, *job); perr != nil {
		w.logger.Error(ctx, "cart cleanup requeue failed", "user_id", job.UserID, "error", perr)
	}
}
