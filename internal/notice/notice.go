// Package notice queues short user-facing acknowledgements per session until
// the next response drains them.
package notice

import "sync"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Notifier is the port stores use to acknowledge an action.
type Notifier interface {
	Success(sessionID, message string)
	Error(sessionID, message string)
}

const defaultLimit = 20

// Queue is an in-memory Notifier. Each session keeps at most limit notices;
// the oldest are dropped first.
type Queue struct {
	mu      sync.Mutex
	limit   int
	pending map[string][]Notice
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Queue{limit: limit, pending: make(map[string][]Notice)}
}

func (q *Queue) Success(sessionID, message string) {
	q.push(sessionID, Notice{Kind: KindSuccess, Message: message})
}

func (q *Queue) Error(sessionID, message string) {
	q.push(sessionID, Notice{Kind: KindError, Message: message})
}

func (q *Queue) push(sessionID string, n Notice) {
	if sessionID == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	list := append(q.pending[sessionID], n)
	if len(list) > q.limit {
		list = list[len(list)-q.limit:]
	}
	q.pending[sessionID] = list
}

// Drain returns and forgets the session's notices. Never nil.
func (q *Queue) Drain(sessionID string) []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.pending[sessionID]
	delete(q.pending, sessionID)
	if list == nil {
		return []Notice{}
	}
	return list
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) Success(string, string) {}
func (Discard) Error(string, string)   {}
