package insights

import (
	"sync"
	"testing"
)

func TestLatchSerializesPerSession(t *testing.T) {
	l := newLatch()

	if !l.Acquire("s1") {
		t.Fatal("first acquire must succeed")
	}
	if l.Acquire("s1") {
		t.Fatal("second acquire for the same session must fail")
	}
	if !l.Acquire("s2") {
		t.Fatal("a different session must not be blocked")
	}

	l.Release("s1")
	if !l.Acquire("s1") {
		t.Fatal("acquire after release must succeed")
	}
}

func TestLatchConcurrentAcquire(t *testing.T) {
	l := newLatch()
	var wg sync.WaitGroup
	wins := make(chan struct{}, 64)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Acquire("s") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("exactly one goroutine must win the latch, got %d", count)
	}
}

func TestSectionKey(t *testing.T) {
	cases := []struct {
		document string
		page     int
		title    string
		want     string
	}{
		{"1_report.pdf", 3, "Future Work", "1_report.pdf_3_Future_Work"},
		{"a.pdf", 1, "Intro", "a.pdf_1_Intro"},
		{"a.pdf", 1, "Multi   space\ttitle", "a.pdf_1_Multi_space_title"},
	}
	for _, tc := range cases {
		if got := SectionKey(tc.document, tc.page, tc.title); got != tc.want {
			t.Errorf("SectionKey(%q, %d, %q) = %q, want %q", tc.document, tc.page, tc.title, got, tc.want)
		}
	}
}

func TestContentHashDistinguishesTypes(t *testing.T) {
	text := "the same text"
	if contentHash(TypeSummary, text) == contentHash(TypePodcast, text) {
		t.Fatal("hash must differ per insight type")
	}
	if contentHash(TypeSummary, text) != contentHash(TypeSummary, text) {
		t.Fatal("hash must be stable for identical input")
	}
}
