package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisc "github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/redis"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := redisc.Connect("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("redis connect: %v", err)
	}
	return NewStore(rc, time.Minute)
}

func TestStoreRoundTripsJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	type state struct {
		Title string `json:"title"`
		Pages []int  `json:"pages"`
	}
	in := state{Title: "Introduction", Pages: []int{1, 2, 5}}
	if err := store.Put(ctx, "sid", "outline", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out state
	ok, err := store.Get(ctx, "sid", "outline", &out)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("stored value must be found")
	}
	if out.Title != in.Title || len(out.Pages) != 3 || out.Pages[2] != 5 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestStoreMissingKey(t *testing.T) {
	store := newTestStore(t)

	var out map[string]string
	ok, err := store.Get(context.Background(), "sid", "never-written", &out)
	if err != nil {
		t.Fatalf("missing key must not error: %v", err)
	}
	if ok {
		t.Fatal("missing key must read as not found")
	}
}

func TestStoreCorruptEntryReadsAsMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutRaw(ctx, "sid", "state", "{not json"); err != nil {
		t.Fatalf("put raw: %v", err)
	}

	var out map[string]string
	ok, err := store.Get(ctx, "sid", "state", &out)
	if err != nil {
		t.Fatalf("corrupt entry must not error: %v", err)
	}
	if ok {
		t.Fatal("corrupt entry must read as not found")
	}
}

func TestStoreDeleteAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "sid", "a", "one"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "sid", "b", "two"); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := store.Delete(ctx, "sid", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, err := store.All(ctx, "sid")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if _, found := all["a"]; found {
		t.Fatal("deleted key must be gone")
	}
	if _, found := all["b"]; !found {
		t.Fatal("untouched key must survive a delete")
	}

	if err := store.Clear(ctx, "sid"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, err = store.All(ctx, "sid")
	if err != nil {
		t.Fatalf("all after clear: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("cleared session must be empty, has %d keys", len(all))
	}
}
