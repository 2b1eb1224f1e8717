package core

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediacat/internal/logger"
)

// MutationQueue serializes write operations per media id. Operations for the
// same id run one at a time in submission order; operations for different
// ids run independently and concurrently. There is no priority, cancellation
// or timeout: a stuck mutation blocks all later mutations for that id, and
// only that id.
type MutationQueue struct {
	mu     sync.Mutex
	queues map[string]*idQueue
	log    hclog.Logger
}

type task struct {
	op   func() error
	done chan error
}

type idQueue struct {
	pending []task
	busy    bool
}

// NewMutationQueue creates an empty queue.
func NewMutationQueue() *MutationQueue {
	return &MutationQueue{
		queues: make(map[string]*idQueue),
		log:    logger.Named("mutation-queue"),
	}
}

// Enqueue submits a mutation for the given media id and returns a channel
// that receives the operation's result once it has run. An error in one
// mutation does not drop queued successors; each is attempted in turn.
func (q *MutationQueue) Enqueue(id string, op func() error) <-chan error {
	t := task{op: op, done: make(chan error, 1)}

	q.mu.Lock()
	entry, ok := q.queues[id]
	if !ok {
		entry = &idQueue{}
		q.queues[id] = entry
	}
	entry.pending = append(entry.pending, t)
	if !entry.busy {
		entry.busy = true
		go q.drain(id)
	}
	q.mu.Unlock()

	return t.done
}

// Run submits a mutation and blocks until it has executed.
func (q *MutationQueue) Run(id string, op func() error) error {
	return <-q.Enqueue(id, op)
}

// drain executes pending tasks for one id until the queue is empty, then
// releases the id's entry so idle ids cost nothing.
func (q *MutationQueue) drain(id string) {
	for {
		q.mu.Lock()
		entry, ok := q.queues[id]
		if !ok || len(entry.pending) == 0 {
			delete(q.queues, id)
			q.mu.Unlock()
			return
		}
		t := entry.pending[0]
		entry.pending = entry.pending[1:]
		q.mu.Unlock()

		if err := t.op(); err != nil {
			q.log.Debug("mutation failed", "media_id", id, "error", err)
			t.done <- err
			continue
		}
		t.done <- nil
	}
}

// PendingCount reports queued-but-unfinished mutations for an id.
func (q *MutationQueue) PendingCount(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.queues[id]
	if !ok {
		return 0
	}
	return len(entry.pending)
}
