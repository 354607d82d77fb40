package upload

import (
	"testing"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/registry"
)

func TestResolvePagesMovesForwardOnly(t *testing.T) {
	pages := []pageText{
		{number: 1, text: "Cover page"},
		{number: 2, text: "Introduction\nsome text"},
		{number: 3, text: "Methods\nIntroduction is referenced here"},
		{number: 4, text: "Results"},
	}
	entries := []registry.OutlineEntry{
		{Level: "H1", Text: "Introduction"},
		{Level: "H1", Text: "Methods"},
		{Level: "H1", Text: "Results"},
	}

	resolvePages(entries, pages)

	if entries[0].Page != 2 {
		t.Fatalf("Introduction resolved to page %d, want 2", entries[0].Page)
	}
	if entries[1].Page != 3 {
		t.Fatalf("Methods resolved to page %d, want 3", entries[1].Page)
	}
	if entries[2].Page != 4 {
		t.Fatalf("Results resolved to page %d, want 4", entries[2].Page)
	}
}

func TestResolvePagesMissingHeadingStaysPut(t *testing.T) {
	pages := []pageText{
		{number: 1, text: "Alpha"},
		{number: 2, text: "Beta"},
	}
	entries := []registry.OutlineEntry{
		{Level: "H1", Text: "Alpha"},
		{Level: "H1", Text: "does not exist anywhere"},
	}
	resolvePages(entries, pages)
	if entries[1].Page != 1 {
		t.Fatalf("unresolvable heading must stay at the previous position, got page %d", entries[1].Page)
	}
}

func TestBuildSectionsSpansBetweenHeadings(t *testing.T) {
	pages := []pageText{
		{number: 1, text: "Introduction\nfirst paragraph", lines: []string{"Introduction", "first paragraph"}},
		{number: 2, text: "more intro", lines: []string{"more intro"}},
		{number: 3, text: "Conclusion\nclosing words", lines: []string{"Conclusion", "closing words"}},
	}
	entries := []registry.OutlineEntry{
		{Level: "H1", Text: "Introduction", Page: 1},
		{Level: "H1", Text: "Conclusion", Page: 3},
	}

	sections := buildSections(entries, pages, "doc")
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}

	intro := sections[0]
	if intro.Heading != "Introduction" || intro.StartPage != 1 || intro.EndPage != 3 {
		t.Fatalf("unexpected intro span: %+v", intro)
	}
	if intro.StartLine != 1 {
		t.Fatalf("intro must start at its heading line, got %d", intro.StartLine)
	}

	conclusion := sections[1]
	if conclusion.Page != 3 || conclusion.Text == "" {
		t.Fatalf("unexpected conclusion: %+v", conclusion)
	}
}

func TestBuildSectionsFallsBackWithoutOutline(t *testing.T) {
	pages := []pageText{
		{number: 1, text: "just text", lines: []string{"just text"}},
		{number: 2, text: "more text", lines: []string{"more text"}},
	}
	sections := buildSections(nil, pages, "report")
	if len(sections) != 1 {
		t.Fatalf("expected a single fallback section, got %d", len(sections))
	}
	if sections[0].Heading != "report" || sections[0].EndPage != 2 {
		t.Fatalf("unexpected fallback section: %+v", sections[0])
	}
}

func TestBuildSectionsEmptyDocument(t *testing.T) {
	if got := buildSections(nil, []pageText{{number: 1}}, "doc"); got != nil {
		t.Fatalf("empty document must yield no sections, got %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Future\tWORK  here "); got != "future work here" {
		t.Fatalf("normalize = %q", got)
	}
}
