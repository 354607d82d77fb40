package upload

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task states. A task moves uploading -> processing -> done, or ends in
// error or cancelled. Terminal states never transition again.
const (
	StateUploading  = "uploading"
	StateProcessing = "processing"
	StateDone       = "done"
	StateError      = "error"
	StateCancelled  = "cancelled"
)

const (
	// Removal delays after a task reaches a terminal state. Successful
	// tasks linger a touch longer so the client can show the final bar.
	doneRemovalDelay  = 900 * time.Millisecond
	errorRemovalDelay = 700 * time.Millisecond
)

// TaskStatus is the externally visible snapshot of one upload task.
type TaskStatus struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Progress int    `json:"progress"` // 0..100
	Error    string `json:"error,omitempty"`
}

type task struct {
	cancel context.CancelFunc
}

// Tracker owns the live upload task table. Reads take a snapshot of a
// copy-on-write map so SSE streaming never holds the write lock.
type Tracker struct {
	mu       sync.Mutex
	statuses map[string]TaskStatus // replaced wholesale on every write
	tasks    map[string]*task

	removalDelayDone  time.Duration
	removalDelayError time.Duration

	wg     sync.WaitGroup
	closed bool
	logger *zap.Logger

	subsMu sync.Mutex
	subs   map[chan map[string]TaskStatus]struct{}
}

func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		statuses:          map[string]TaskStatus{},
		tasks:             map[string]*task{},
		removalDelayDone:  doneRemovalDelay,
		removalDelayError: errorRemovalDelay,
		logger:            logger,
		subs:              map[chan map[string]TaskStatus]struct{}{},
	}
}

// Submit registers a task keyed by name and runs fn on its own
// goroutine. fn reports progress through the returned callbacks and
// must honor ctx cancellation.
func (t *Tracker) Submit(name string, fn func(ctx context.Context, progress func(pct int)) error) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	if _, exists := t.tasks[name]; exists {
		t.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.tasks[name] = &task{cancel: cancel}
	t.setStatusLocked(name, TaskStatus{Name: name, State: StateUploading})
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		err := fn(ctx, func(pct int) { t.setProgress(name, pct) })

		switch {
		case ctx.Err() != nil:
			t.finish(name, StateCancelled, "")
		case err != nil:
			t.logger.Warn("upload task failed", zap.String("name", name), zap.Error(err))
			t.finish(name, StateError, err.Error())
		default:
			t.finish(name, StateDone, "")
		}
	}()
	return true
}

// SetProcessing moves a live task from uploading into the extraction
// phase. Terminal tasks are left alone.
func (t *Tracker) SetProcessing(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.statuses[name]
	if !ok || isTerminal(st.State) {
		return
	}
	st.State = StateProcessing
	st.Progress = 100
	t.setStatusLocked(name, st)
}

// Cancel aborts a live task. Cancelling a finished or unknown task is a
// no-op and reports false.
func (t *Tracker) Cancel(name string) bool {
	t.mu.Lock()
	tk, ok := t.tasks[name]
	st, hasStatus := t.statuses[name]
	t.mu.Unlock()
	if !ok || (hasStatus && isTerminal(st.State)) {
		return false
	}
	tk.cancel()
	return true
}

// Has reports whether a task is registered under name.
func (t *Tracker) Has(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tasks[name]
	return ok
}

// Snapshot returns the current task table.
func (t *Tracker) Snapshot() map[string]TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statuses
}

// Subscribe returns a channel receiving the task table after every
// change, plus an unsubscribe func. The channel is buffered and drops
// intermediate snapshots for slow consumers.
func (t *Tracker) Subscribe() (<-chan map[string]TaskStatus, func()) {
	ch := make(chan map[string]TaskStatus, 8)
	t.subsMu.Lock()
	t.subs[ch] = struct{}{}
	t.subsMu.Unlock()

	return ch, func() {
		t.subsMu.Lock()
		if _, ok := t.subs[ch]; ok {
			delete(t.subs, ch)
			close(ch)
		}
		t.subsMu.Unlock()
	}
}

// Shutdown cancels every live task and waits for their goroutines.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	for _, tk := range t.tasks {
		tk.cancel()
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) setProgress(name string, pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.statuses[name]
	if !ok || isTerminal(st.State) {
		return
	}
	if pct <= st.Progress {
		return // progress only moves forward
	}
	st.Progress = pct
	t.setStatusLocked(name, st)
}

func (t *Tracker) finish(name, state, errMsg string) {
	t.mu.Lock()
	st, ok := t.statuses[name]
	if !ok || isTerminal(st.State) {
		t.mu.Unlock()
		return
	}
	st.State = state
	st.Error = errMsg
	if state == StateDone {
		st.Progress = 100
	}
	t.setStatusLocked(name, st)
	delay := t.removalDelayError
	if state == StateDone {
		delay = t.removalDelayDone
	}
	t.mu.Unlock()

	time.AfterFunc(delay, func() { t.remove(name) })
}

func (t *Tracker) remove(name string) {
	t.mu.Lock()
	next := make(map[string]TaskStatus, len(t.statuses))
	for k, v := range t.statuses {
		if k != name {
			next[k] = v
		}
	}
	t.statuses = next
	delete(t.tasks, name)
	t.mu.Unlock()
	t.broadcast(next)
}

// setStatusLocked replaces the status map. Caller holds t.mu.
func (t *Tracker) setStatusLocked(name string, st TaskStatus) {
	next := make(map[string]TaskStatus, len(t.statuses)+1)
	for k, v := range t.statuses {
		next[k] = v
	}
	next[name] = st
	t.statuses = next
	t.broadcast(next)
}

func (t *Tracker) broadcast(snap map[string]TaskStatus) {
	t.subsMu.Lock()
	for ch := range t.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	t.subsMu.Unlock()
}

func isTerminal(state string) bool {
	return state == StateDone || state == StateError || state == StateCancelled
}
