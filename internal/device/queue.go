package device

import "sync"

// DefaultQueueCapacity bounds pending commands per connection. A stalled
// transport rejects new commands instead of growing without limit.
const DefaultQueueCapacity = 64

// Command is one outbound request. Name doubles as the routing key for the
// reply; Fields carry the protocol-specific payload. Commands are immutable
// once enqueued, and duplicate names are legal.
type Command struct {
	Name   string
	Fields map[string]any
}

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = queueFullError{}

type queueFullError struct{}

func (queueFullError) Error() string { return "command queue is full" }

// CommandQueue is the only structure shared between the controller goroutine
// and a connection's dispatch worker. Commands drain oldest-first so a stop
// enqueued before a start is never starved behind it.
type CommandQueue struct {
	mu       sync.Mutex
	capacity int
	pending  []Command
}

// NewCommandQueue creates a queue holding at most capacity commands.
// A non-positive capacity falls back to DefaultQueueCapacity.
func NewCommandQueue(capacity int) *CommandQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &CommandQueue{capacity: capacity}
}

// Enqueue appends a command, rejecting it with ErrQueueFull at capacity.
func (q *CommandQueue) Enqueue(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) >= q.capacity {
		return ErrQueueFull
	}
	q.pending = append(q.pending, cmd)
	return nil
}

// Dequeue removes and returns the oldest pending command.
func (q *CommandQueue) Dequeue() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return Command{}, false
	}
	cmd := q.pending[0]
	q.pending = q.pending[1:]
	return cmd, true
}

// Len returns the number of pending commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// Reset discards all pending commands. Called when a connection is reopened.
func (q *CommandQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = nil
}
