package registry

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/models"
)

func newTestService() *Service {
	return NewService(nil, zap.NewNop())
}

func TestAddPrependsAndAssignsID(t *testing.T) {
	s := newTestService()

	first := s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})
	second := s.Add(Document{Name: "b.pdf", ServerFilename: "2_b.pdf"})

	if first.ID == "" || second.ID == "" {
		t.Fatalf("expected generated IDs, got %q and %q", first.ID, second.ID)
	}
	if first.ID == second.ID {
		t.Fatalf("IDs must be unique, both %q", first.ID)
	}

	docs := s.List()
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Name != "b.pdf" {
		t.Fatalf("newest document must come first, got %q", docs[0].Name)
	}
}

func TestRemove(t *testing.T) {
	s := newTestService()
	doc := s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})

	removed, ok := s.Remove(doc.ID)
	if !ok {
		t.Fatal("expected removal to succeed")
	}
	if removed.ServerFilename != "1_a.pdf" {
		t.Fatalf("unexpected removed doc %+v", removed)
	}
	if _, ok := s.Remove(doc.ID); ok {
		t.Fatal("second removal must report missing")
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("registry should be empty, has %d", len(got))
	}
}

func TestFindByServerFilename(t *testing.T) {
	s := newTestService()
	s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})

	if _, ok := s.FindByServerFilename("1_a.pdf"); !ok {
		t.Fatal("expected lookup by server filename to succeed")
	}
	if _, ok := s.FindByServerFilename("missing.pdf"); ok {
		t.Fatal("expected lookup of unknown filename to fail")
	}
}

func TestListReturnsSnapshot(t *testing.T) {
	s := newTestService()
	s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})

	snap := s.List()
	snap[0].Name = "mutated.pdf"

	if got := s.List()[0].Name; got != "a.pdf" {
		t.Fatalf("mutating a snapshot leaked into the registry: %q", got)
	}
}

func TestProcessingFlag(t *testing.T) {
	s := newTestService()
	doc := s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})

	if s.IsProcessing(doc.ID) {
		t.Fatal("new document must not be processing")
	}
	s.SetProcessing(doc.ID, true)
	if !s.IsProcessing(doc.ID) {
		t.Fatal("expected processing flag set")
	}
	s.SetProcessing(doc.ID, false)
	if s.IsProcessing(doc.ID) {
		t.Fatal("expected processing flag cleared")
	}
}

func TestMarkProcessed(t *testing.T) {
	s := newTestService()
	doc := s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})

	s.MarkProcessed(doc.ID)
	got, _ := s.FindByID(doc.ID)
	if !got.Processed {
		t.Fatal("expected Processed true after MarkProcessed")
	}
}

func TestSetMirrorURL(t *testing.T) {
	s := newTestService()
	s.Add(Document{Name: "a.pdf", ServerFilename: "1_a.pdf"})

	snap := s.List()
	s.SetMirrorURL("1_a.pdf", "https://cdn.example.com/1_a.pdf")

	got, _ := s.FindByServerFilename("1_a.pdf")
	if got.MirrorURL != "https://cdn.example.com/1_a.pdf" {
		t.Fatalf("mirror URL not recorded, got %q", got.MirrorURL)
	}
	if snap[0].MirrorURL != "" {
		t.Fatal("earlier snapshots must stay untouched")
	}

	// Unknown filenames are ignored.
	s.SetMirrorURL("missing.pdf", "https://cdn.example.com/missing.pdf")
	if len(s.List()) != 1 {
		t.Fatal("unknown filename must not change the registry")
	}
}

func TestDocsFromRows(t *testing.T) {
	uploaded := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := []models.DocumentModel{
		{
			Base:           models.Base{ID: "id-1", CreatedAt: uploaded},
			Name:           "a.pdf",
			ServerFilename: "1_a.pdf",
			SizeBytes:      2048,
			Processed:      true,
			MirrorURL:      "https://cdn.example.com/1_a.pdf",
		},
		{
			Base:           models.Base{ID: "id-2", CreatedAt: uploaded.Add(time.Hour)},
			Name:           "b.pdf",
			ServerFilename: "2_b.pdf",
		},
	}

	docs := docsFromRows(rows)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	first := docs[0]
	if first.ID != "id-1" || first.Name != "a.pdf" || first.ServerFilename != "1_a.pdf" {
		t.Fatalf("row identity lost: %+v", first)
	}
	if first.SizeBytes != 2048 || !first.Processed || first.MirrorURL == "" {
		t.Fatalf("row metadata lost: %+v", first)
	}
	if !first.UploadedAt.Equal(uploaded) {
		t.Fatalf("upload time must come from the row, got %v", first.UploadedAt)
	}
	if docs[1].Processed || docs[1].MirrorURL != "" {
		t.Fatalf("zero-value row fields must restore as zero: %+v", docs[1])
	}
}
