package checker

import "sync"

// Queue is the shared list of targets still waiting for a worker.
//
// Every target placed in the queue is handed out by exactly one [Queue.Claim]
// call. Claim order is unspecified.
type Queue struct {
	mu      sync.Mutex
	pending []string
}

// NewQueue seeds a queue with targets. The slice is copied.
func NewQueue(targets []string) *Queue {
	pending := make([]string, len(targets))
	copy(pending, targets)
	return &Queue{pending: pending}
}

// Claim removes and returns one target. The second return value is false
// once the queue is empty.
func (q *Queue) Claim() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	if n == 0 {
		return "", false
	}
	target := q.pending[n-1]
	q.pending[n-1] = ""
	q.pending = q.pending[:n-1]
	return target, true
}

// Len returns the number of unclaimed targets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
