package queue

import "sync"

// Queue is a strict FIFO of messages.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Multiple producers may
//     append concurrently; one logical owner drains it, exactly one
//     message per drain timer firing.
type Queue struct {
	mu       sync.Mutex
	messages []Message
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Append adds a message to the back of the queue.
func (q *Queue) Append(msg Message) {
	q.mu.Lock()
	q.messages = append(q.messages, msg)
	q.mu.Unlock()
}

// Dequeue removes and returns the oldest message. The second return
// value is false when the queue is empty.
func (q *Queue) Dequeue() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.messages) == 0 {
		return nil, false
	}

	msg := q.messages[0]
	q.messages[0] = nil // Release the reference for the GC.
	q.messages = q.messages[1:]
	return msg, true
}

// IsEmpty reports whether the queue holds no messages.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages) == 0
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
