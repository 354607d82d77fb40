package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/registry"
)

// Extractor pulls outline, sections and highlight rects out of a stored
// PDF. Extraction is CPU-bound and checks ctx between pages so a
// cancelled upload stops promptly.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Validate rejects files that are not well-formed PDFs and returns the
// page count of accepted ones.
func (e *Extractor) Validate(path string) (int, error) {
	if err := api.ValidateFile(path, nil); err != nil {
		return 0, fmt.Errorf("not a valid PDF: %w", err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return n, nil
}

// Extract builds the outline tree and section list for a stored PDF.
func (e *Extractor) Extract(ctx context.Context, path, title string) (*registry.Outline, []registry.Section, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	pages, err := readPages(ctx, r)
	if err != nil {
		return nil, nil, err
	}

	entries := flattenOutline(r.Outline(), 1)
	resolvePages(entries, pages)

	out := &registry.Outline{Title: title, Outline: entries}
	sections := buildSections(entries, pages, title)
	attachRects(ctx, r, sections)
	return out, sections, nil
}

type pageText struct {
	number int
	text   string
	lines  []string
}

func readPages(ctx context.Context, r *pdf.Reader) ([]pageText, error) {
	total := r.NumPage()
	pages := make([]pageText, 0, total)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, pageText{number: i})
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			// A single malformed page should not sink the document.
			pages = append(pages, pageText{number: i})
			continue
		}
		pages = append(pages, pageText{
			number: i,
			text:   text,
			lines:  strings.Split(text, "\n"),
		})
	}
	return pages, nil
}

func flattenOutline(node pdf.Outline, depth int) []registry.OutlineEntry {
	var entries []registry.OutlineEntry
	for _, child := range node.Child {
		title := strings.TrimSpace(child.Title)
		if title != "" {
			entries = append(entries, registry.OutlineEntry{
				Level: fmt.Sprintf("H%d", depth),
				Text:  title,
			})
		}
		entries = append(entries, flattenOutline(child, depth+1)...)
	}
	return entries
}

// resolvePages assigns a page number to each outline entry by scanning
// page text for the heading, starting from where the previous entry
// landed. Headings never move backwards.
func resolvePages(entries []registry.OutlineEntry, pages []pageText) {
	from := 0
	for i := range entries {
		needle := normalize(entries[i].Text)
		found := -1
		for p := from; p < len(pages); p++ {
			if strings.Contains(normalize(pages[p].text), needle) {
				found = p
				break
			}
		}
		if found < 0 {
			found = from
			if found >= len(pages) {
				found = len(pages) - 1
			}
		}
		entries[i].Page = pages[found].number
		from = found
	}
}

func buildSections(entries []registry.OutlineEntry, pages []pageText, title string) []registry.Section {
	if len(entries) == 0 {
		return fallbackSection(pages, title)
	}

	sections := make([]registry.Section, 0, len(entries))
	for i, entry := range entries {
		startPage := entry.Page
		endPage := lastPage(pages)
		if i+1 < len(entries) {
			endPage = entries[i+1].Page
		}

		var b strings.Builder
		startLine, endLine := -1, -1
		lineNo := 0
		for _, pg := range pages {
			if pg.number < startPage || pg.number > endPage {
				lineNo += len(pg.lines)
				continue
			}
			for _, line := range pg.lines {
				lineNo++
				if startLine < 0 && strings.Contains(normalize(line), normalize(entry.Text)) {
					startLine = lineNo
				}
				if startLine >= 0 {
					b.WriteString(line)
					b.WriteString("\n")
					endLine = lineNo
				}
			}
		}
		if startLine < 0 {
			startLine, endLine = 0, 0
		}
		sections = append(sections, registry.Section{
			Heading:   entry.Text,
			Text:      strings.TrimSpace(b.String()),
			Page:      startPage,
			StartLine: startLine,
			EndLine:   endLine,
			StartPage: startPage,
			EndPage:   endPage,
		})
	}
	return sections
}

func fallbackSection(pages []pageText, title string) []registry.Section {
	var b strings.Builder
	lines := 0
	for _, pg := range pages {
		b.WriteString(pg.text)
		lines += len(pg.lines)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil
	}
	return []registry.Section{{
		Heading:   title,
		Text:      text,
		Page:      1,
		StartLine: 1,
		EndLine:   lines,
		StartPage: 1,
		EndPage:   lastPage(pages),
	}}
}

// attachRects computes a bounding box for each section heading from the
// positioned text runs on its page.
func attachRects(ctx context.Context, r *pdf.Reader, sections []registry.Section) {
	byPage := make(map[int][]int)
	for i, sec := range sections {
		byPage[sec.Page] = append(byPage[sec.Page], i)
	}

	for pageNum, idxs := range byPage {
		if ctx.Err() != nil {
			return
		}
		if pageNum < 1 || pageNum > r.NumPage() {
			continue
		}
		p := r.Page(pageNum)
		if p.V.IsNull() {
			continue
		}
		content := p.Content()
		for _, i := range idxs {
			if rect, ok := headingRect(content.Text, sections[i].Heading, pageNum); ok {
				sections[i].Rects = []registry.Rect{rect}
			}
		}
	}
}

func headingRect(texts []pdf.Text, heading string, page int) (registry.Rect, bool) {
	words := strings.Fields(normalize(heading))
	if len(words) == 0 {
		return registry.Rect{}, false
	}

	var x0, y0, x1, y1 float64
	matched := 0
	for _, t := range texts {
		s := normalize(t.S)
		if s == "" {
			continue
		}
		hit := false
		for _, w := range words {
			if strings.Contains(w, s) || strings.Contains(s, w) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		if matched == 0 {
			x0, y0 = t.X, t.Y
			x1, y1 = t.X+t.W, t.Y+t.FontSize
		} else {
			x0 = min(x0, t.X)
			y0 = min(y0, t.Y)
			x1 = max(x1, t.X+t.W)
			y1 = max(y1, t.Y+t.FontSize)
		}
		matched++
		if matched >= len(words)*2 {
			break
		}
	}
	if matched == 0 {
		return registry.Rect{}, false
	}
	return registry.Rect{Page: page, BBox: [4]float64{x0, y0, x1, y1}}, true
}

func lastPage(pages []pageText) int {
	if len(pages) == 0 {
		return 1
	}
	return pages[len(pages)-1].number
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
