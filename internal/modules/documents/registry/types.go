package registry

import "time"

// Rect is one highlight rectangle on a page. BBox is [x0, y0, x1, y1]
// in page coordinates, the shape the embedded viewer consumes.
type Rect struct {
	Page int        `json:"page"`
	BBox [4]float64 `json:"bbox"`
}

// OutlineEntry is one heading in the extracted outline tree, flattened
// with its nesting level.
type OutlineEntry struct {
	Level string `json:"level"` // H1, H2, ...
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the document outline extracted at upload time.
type Outline struct {
	Title   string         `json:"title"`
	Outline []OutlineEntry `json:"outline"`
}

// Section is one extracted section with its page and line span.
type Section struct {
	Heading   string `json:"heading"`
	Text      string `json:"text"`
	Page      int    `json:"page"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Rects     []Rect `json:"rects"`
}

// Document is one uploaded PDF. Immutable after creation except the
// Processed flag. Identity is the opaque ID; ServerFilename is the join
// key the analysis backend and annotated variants use.
type Document struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SizeBytes      int64     `json:"sizeBytes"`
	UploadedAt     time.Time `json:"uploadedAt"`
	ServerFilename string    `json:"serverFilename"`
	Processed      bool      `json:"processed"`
	MirrorURL      string    `json:"mirrorUrl,omitempty"`
	Outline        *Outline  `json:"outline,omitempty"`
	Sections       []Section `json:"sections,omitempty"`
}
