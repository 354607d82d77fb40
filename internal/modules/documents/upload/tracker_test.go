package upload

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestTracker() *Tracker {
	t := NewTracker(zap.NewNop())
	t.removalDelayDone = 10 * time.Millisecond
	t.removalDelayError = 10 * time.Millisecond
	return t
}

func waitForState(t *testing.T, tr *Tracker, name, state string) TaskStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := tr.Snapshot()[name]; ok && st.State == state {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %q never reached state %q, table: %+v", name, state, tr.Snapshot())
	return TaskStatus{}
}

func waitForRemoval(t *testing.T, tr *Tracker, name string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := tr.Snapshot()[name]; !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %q was never removed", name)
}

func TestSubmitRunsToDone(t *testing.T) {
	tr := newTestTracker()
	release := make(chan struct{})

	ok := tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error {
		progress(40)
		progress(100)
		<-release
		return nil
	})
	if !ok {
		t.Fatal("submit rejected")
	}

	st, ok := tr.Snapshot()["a.pdf"]
	if !ok || st.State != StateUploading {
		t.Fatalf("expected live uploading task, got %+v", st)
	}
	close(release)
	waitForState(t, tr, "a.pdf", StateDone)
	waitForRemoval(t, tr, "a.pdf")
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	tr := newTestTracker()
	release := make(chan struct{})
	defer close(release)

	tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error {
		<-release
		return nil
	})
	if tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error { return nil }) {
		t.Fatal("duplicate name must be rejected while task is live")
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	tr := newTestTracker()
	step := make(chan struct{})
	release := make(chan struct{})

	tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error {
		progress(60)
		progress(30) // must not move the bar backwards
		progress(250)
		step <- struct{}{}
		<-release
		return nil
	})

	<-step
	if st := tr.Snapshot()["a.pdf"]; st.Progress != 100 {
		t.Fatalf("expected progress clamped to 100, got %d", st.Progress)
	}
	close(release)
	waitForRemoval(t, tr, "a.pdf")
}

func TestCancelBeatsLateCompletion(t *testing.T) {
	tr := newTestTracker()
	started := make(chan struct{})

	tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error {
		close(started)
		<-ctx.Done()
		// Task returns nil after cancellation; the cancelled state
		// must win over a late success.
		return nil
	})

	<-started
	if !tr.Cancel("a.pdf") {
		t.Fatal("cancel of a live task must succeed")
	}
	waitForState(t, tr, "a.pdf", StateCancelled)
	waitForRemoval(t, tr, "a.pdf")
}

func TestErrorStateCarriesMessage(t *testing.T) {
	tr := newTestTracker()
	tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error {
		return context.DeadlineExceeded
	})
	st := waitForState(t, tr, "a.pdf", StateError)
	if st.Error == "" {
		t.Fatal("error state must carry the failure message")
	}
}

func TestCancelUnknownTask(t *testing.T) {
	tr := newTestTracker()
	if tr.Cancel("ghost.pdf") {
		t.Fatal("cancelling an unknown task must report false")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	tr := newTestTracker()
	updates, unsubscribe := tr.Subscribe()
	defer unsubscribe()

	tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error { return nil })

	// The exact snapshot races with removal timers; require only that
	// updates flow after a submit.
	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no update received after submit")
	}
}

func TestShutdownCancelsLiveTasks(t *testing.T) {
	tr := newTestTracker()
	started := make(chan struct{})
	tr.Submit("a.pdf", func(ctx context.Context, progress func(pct int)) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tr.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if tr.Submit("b.pdf", func(ctx context.Context, progress func(pct int)) error { return nil }) {
		t.Fatal("submit after shutdown must be rejected")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"my file.pdf", "my_file.pdf"},
		{"../../etc/passwd", "passwd"},
		{"weird$$name!.pdf", "weirdname.pdf"},
		{"...", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
