// Package cleanup retries cart deletions that failed after a successful
// checkout. Jobs sit in a Queue (Redis list or in memory) and a Worker drains
// it on a fixed interval.
package cleanup

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBadPayload is returned by Pop when a dequeued entry cannot be decoded.
// The entry is already removed, so callers should skip it and keep going.
var ErrBadPayload = errors.New("cleanup: bad job payload")

// Job asks for the given cart lines of UserID to be deleted.
type Job struct {
	UserID      string    `json:"user_id"`
	OrderID     string    `json:"order_id,omitempty"`
	CartItemIDs []string  `json:"cart_item_ids"`
	Attempts    int       `json:"attempts"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Queue is a FIFO of jobs. Pop returns (nil, nil) when the queue is empty.
type Queue interface {
	Push(ctx context.Context, job Job) error
	Pop(ctx context.Context) (*Job, error)
	Len(ctx context.Context) (int64, error)
}

// MemoryQueue is a process-local Queue. Jobs are lost on restart.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []Job
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *MemoryQueue) Pop(_ context.Context) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.jobs)), nil
}
