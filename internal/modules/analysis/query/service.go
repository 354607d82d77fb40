package query

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/analysis/ai"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/registry"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/session"
)

const (
	defaultTopK = 5
	// Embedding inputs get clipped so one oversized section cannot
	// blow the request.
	embedTextLimit = 6000
	refineMaxChars = 1200
)

// Session keys the query flows persist so a page reload restores state.
const (
	keyLastQueryResult  = "lastQueryResult"
	keyPdfQueryResult   = "pdfQuery.result"
	keyPdfQueryNegative = "pdfQuery.negativeResult"
	keyPdfQuerySelected = "pdfQuery.selectedText"
	keyPdfQueryShow     = "pdfQuery.showResults"
)

// ErrNoSections is returned when none of the referenced documents carry
// extracted sections to rank.
var ErrNoSections = fmt.Errorf("no sections available for the given documents")

// DocumentRef names one registered document by its stored filename.
type DocumentRef struct {
	Filename string `json:"filename"`
}

// QueryMetadata describes one ranking run. AnnotatedFiles maps each
// stored filename to the annotated copy the viewer loads.
type QueryMetadata struct {
	InputDocuments      []string          `json:"input_documents"`
	Persona             string            `json:"persona,omitempty"`
	JobToBeDone         string            `json:"job_to_be_done,omitempty"`
	SelectedText        string            `json:"selected_text,omitempty"`
	ProcessingTimestamp string            `json:"processing_timestamp"`
	AnnotatedFiles      map[string]string `json:"annotated_files"`
}

// RankedSection is one ranked result entry with the position data the
// viewer needs to highlight it.
type RankedSection struct {
	Document       string          `json:"document"`
	SectionTitle   string          `json:"section_title"`
	ImportanceRank int             `json:"importance_rank"`
	PageNumber     int             `json:"page_number"`
	Rects          []registry.Rect `json:"rects"`
	StartLine      int             `json:"start_line"`
	EndLine        int             `json:"end_line"`
	StartPage      int             `json:"start_page"`
	EndPage        int             `json:"end_page"`
}

// RefinedSection carries the section text for a ranked entry, cleaned
// up by the LLM in role queries and raw in selected-text queries.
type RefinedSection struct {
	Document    string          `json:"document"`
	RefinedText string          `json:"refined_text"`
	PageNumber  int             `json:"page_number"`
	Rects       []registry.Rect `json:"rects"`
	StartLine   int             `json:"start_line"`
	EndLine     int             `json:"end_line"`
	StartPage   int             `json:"start_page"`
	EndPage     int             `json:"end_page"`
}

// QueryOutput is the common response shape of every ranking endpoint.
// SectionsFormatted is a plain-text digest in importance order, the
// input the insight generators consume.
type QueryOutput struct {
	Metadata           QueryMetadata    `json:"metadata"`
	ExtractedSections  []RankedSection  `json:"extracted_sections"`
	SubsectionAnalysis []RefinedSection `json:"subsection_analysis"`
	SectionsFormatted  string           `json:"sections_formatted"`
}

// PdfQueryResult pairs sections related to the selected text with
// sections contradicting it.
type PdfQueryResult struct {
	Positive *QueryOutput `json:"Positive"`
	Negative *QueryOutput `json:"Negative"`
}

// Service ranks extracted sections against persona tasks and selected
// text, writing results through to the session so reloads restore them.
type Service struct {
	ai        *ai.Service
	registry  *registry.Service
	sessions  *session.Store
	refine    *appcfg.AIModelAssignment
	uploadDir string
	logger    *zap.Logger
}

func NewService(aiSvc *ai.Service, reg *registry.Service, sessions *session.Store, refine *appcfg.AIModelAssignment, uploadDir string, logger *zap.Logger) *Service {
	return &Service{
		ai:        aiSvc,
		registry:  reg,
		sessions:  sessions,
		refine:    refine,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

type candidate struct {
	doc     registry.Document
	section registry.Section
}

// RoleQuery ranks all sections of the referenced documents against a
// persona and task, returning the top numRanks with refined text.
func (s *Service) RoleQuery(ctx context.Context, sessionID, persona, job string, numRanks int, docs []DocumentRef) (*QueryOutput, error) {
	candidates := s.collectSections(docs)
	if len(candidates) == 0 {
		return nil, ErrNoSections
	}

	queryText := fmt.Sprintf("Role: %s. Task: %s", persona, job)
	queryVec, sectionVecs, err := s.embedAll(ctx, queryText, candidates)
	if err != nil {
		return nil, err
	}

	k := numRanks
	if k <= 0 {
		k = defaultTopK
	}
	picks := MMR(queryVec, sectionVecs, k)

	out := s.buildOutput(QueryMetadata{
		InputDocuments:      uniqueDocuments(candidates),
		Persona:             persona,
		JobToBeDone:         job,
		ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
	}, candidates, picks, func(sec registry.Section) string {
		return s.refineText(ctx, sec)
	})

	if err := s.sessions.Put(ctx, sessionID, keyLastQueryResult, out); err != nil {
		s.logger.Warn("session write failed", zap.String("key", keyLastQueryResult), zap.Error(err))
	}
	return out, nil
}

// PdfQuery finds sections related to the selected text and sections
// that contradict it, in one pass over the same embeddings.
func (s *Service) PdfQuery(ctx context.Context, sessionID, selectedText string, docs []DocumentRef) (*PdfQueryResult, error) {
	candidates := s.collectSections(docs)
	if len(candidates) == 0 {
		return nil, ErrNoSections
	}

	queryVec, sectionVecs, err := s.embedAll(ctx, selectedText, candidates)
	if err != nil {
		return nil, err
	}

	k := defaultTopK
	if len(candidates) < k {
		k = len(candidates)
	}
	meta := func() QueryMetadata {
		return QueryMetadata{
			InputDocuments:      uniqueDocuments(candidates),
			SelectedText:        selectedText,
			ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
		}
	}
	raw := func(sec registry.Section) string { return sec.Text }

	result := &PdfQueryResult{
		Positive: s.buildOutput(meta(), candidates, MMR(queryVec, sectionVecs, k), raw),
		Negative: s.buildOutput(meta(), candidates, Contradictions(queryVec, sectionVecs, defaultTopK), raw),
	}

	s.persistPdfQuery(ctx, sessionID, selectedText, result.Positive, result.Negative)
	return result, nil
}

// PdfQueryNegative returns only the contradicting sections for the
// selected text.
func (s *Service) PdfQueryNegative(ctx context.Context, sessionID, selectedText string, docs []DocumentRef) (*QueryOutput, error) {
	candidates := s.collectSections(docs)
	if len(candidates) == 0 {
		return nil, ErrNoSections
	}

	queryVec, sectionVecs, err := s.embedAll(ctx, selectedText, candidates)
	if err != nil {
		return nil, err
	}

	out := s.buildOutput(QueryMetadata{
		InputDocuments:      uniqueDocuments(candidates),
		SelectedText:        selectedText,
		ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339),
	}, candidates, Contradictions(queryVec, sectionVecs, defaultTopK), func(sec registry.Section) string {
		return sec.Text
	})

	if err := s.sessions.Put(ctx, sessionID, keyPdfQueryNegative, out); err != nil {
		s.logger.Warn("session write failed", zap.String("key", keyPdfQueryNegative), zap.Error(err))
	}
	return out, nil
}

// buildOutput assembles the response for one set of picks, lays down
// annotated document copies and renders the plain-text digest.
func (s *Service) buildOutput(meta QueryMetadata, candidates []candidate, picks []int, refine func(registry.Section) string) *QueryOutput {
	out := &QueryOutput{
		Metadata:           meta,
		ExtractedSections:  make([]RankedSection, 0, len(picks)),
		SubsectionAnalysis: make([]RefinedSection, 0, len(picks)),
	}

	for rank, idx := range picks {
		c := candidates[idx]
		out.ExtractedSections = append(out.ExtractedSections, RankedSection{
			Document:       c.doc.ServerFilename,
			SectionTitle:   c.section.Heading,
			ImportanceRank: rank + 1,
			PageNumber:     c.section.Page,
			Rects:          c.section.Rects,
			StartLine:      c.section.StartLine,
			EndLine:        c.section.EndLine,
			StartPage:      c.section.StartPage,
			EndPage:        c.section.EndPage,
		})
		out.SubsectionAnalysis = append(out.SubsectionAnalysis, RefinedSection{
			Document:    c.doc.ServerFilename,
			RefinedText: refine(c.section),
			PageNumber:  c.section.Page,
			Rects:       c.section.Rects,
			StartLine:   c.section.StartLine,
			EndLine:     c.section.EndLine,
			StartPage:   c.section.StartPage,
			EndPage:     c.section.EndPage,
		})
	}

	out.Metadata.AnnotatedFiles = s.annotateDocuments(out.ExtractedSections)

	parts := make([]string, 0, len(out.SubsectionAnalysis))
	for i, sub := range out.SubsectionAnalysis {
		text := strings.TrimSpace(sub.RefinedText)
		if text == "" {
			continue
		}
		e := out.ExtractedSections[i]
		parts = append(parts, fmt.Sprintf("Section %d (Rank %d): %s\n%s", i+1, e.ImportanceRank, e.SectionTitle, text))
	}
	out.SectionsFormatted = strings.Join(parts, "\n\n")

	return out
}

func (s *Service) persistPdfQuery(ctx context.Context, sessionID, selectedText string, positive, negative *QueryOutput) {
	for key, value := range map[string]interface{}{
		keyPdfQueryResult:   positive,
		keyPdfQueryNegative: negative,
		keyPdfQuerySelected: selectedText,
		keyPdfQueryShow:     true,
	} {
		if err := s.sessions.Put(ctx, sessionID, key, value); err != nil {
			s.logger.Warn("session write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *Service) collectSections(docs []DocumentRef) []candidate {
	var out []candidate
	for _, ref := range docs {
		doc, ok := s.registry.FindByServerFilename(strings.TrimSpace(ref.Filename))
		if !ok {
			continue
		}
		for _, sec := range doc.Sections {
			if strings.TrimSpace(sec.Text) == "" {
				continue
			}
			out = append(out, candidate{doc: doc, section: sec})
		}
	}
	return out
}

// embedAll embeds every candidate section plus the query in one call.
func (s *Service) embedAll(ctx context.Context, queryText string, candidates []candidate) ([]float64, [][]float64, error) {
	inputs := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		inputs = append(inputs, clip(c.section.Heading+"\n"+c.section.Text, embedTextLimit))
	}
	inputs = append(inputs, clip(queryText, embedTextLimit))

	vectors, err := s.ai.Embed(ctx, inputs)
	if err != nil {
		return nil, nil, err
	}
	return vectors[len(vectors)-1], vectors[:len(vectors)-1], nil
}

// refineText asks the LLM to clean raw extraction output. On any
// failure the clipped raw text stands in, so ranking still answers.
func (s *Service) refineText(ctx context.Context, sec registry.Section) string {
	system, prompt := ai.RefinePrompt(sec.Heading, clip(sec.Text, refineMaxChars*2))
	refined, err := s.ai.Complete(ctx, s.refine, system, prompt, 400)
	if err != nil {
		s.logger.Debug("refine fallback", zap.String("section", sec.Heading), zap.Error(err))
		return clip(sec.Text, refineMaxChars)
	}
	return strings.TrimSpace(refined)
}

// annotateDocuments lays down an annotated_ copy of every document that
// appears in results, the file the viewer loads to paint highlights on.
// Returns the original → annotated filename map.
func (s *Service) annotateDocuments(entries []RankedSection) map[string]string {
	annotated := make(map[string]string)
	for _, e := range entries {
		name := e.Document
		if name == "" || name != filepath.Base(name) {
			continue
		}
		if _, done := annotated[name]; done {
			continue
		}
		if err := copyFile(
			filepath.Join(s.uploadDir, name),
			filepath.Join(s.uploadDir, "annotated_"+name),
		); err != nil {
			s.logger.Warn("annotated copy failed", zap.String("file", name), zap.Error(err))
			continue
		}
		annotated[name] = "annotated_" + name
	}
	return annotated
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func uniqueDocuments(candidates []candidate) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range candidates {
		if seen[c.doc.ServerFilename] {
			continue
		}
		seen[c.doc.ServerFilename] = true
		out = append(out, c.doc.ServerFilename)
	}
	return out
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
