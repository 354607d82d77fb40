package insights

import "sync"

// latch serializes insight generation per session. A second request
// while one is running gets rejected instead of queued, so a user
// hammering the button cannot stack LLM calls.
type latch struct {
	mu   sync.Mutex
	busy map[string]bool
}

func newLatch() *latch {
	return &latch{busy: make(map[string]bool)}
}

// Acquire reports whether the session slot was free and takes it.
func (l *latch) Acquire(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy[sessionID] {
		return false
	}
	l.busy[sessionID] = true
	return true
}

func (l *latch) Release(sessionID string) {
	l.mu.Lock()
	delete(l.busy, sessionID)
	l.mu.Unlock()
}
