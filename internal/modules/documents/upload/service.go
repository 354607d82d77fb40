package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/registry"
)

// Mirror copies a stored file to remote object storage and returns its
// public URL. Implementations must be safe for concurrent use.
type Mirror interface {
	MirrorFile(ctx context.Context, localPath, filename string) (string, error)
}

// Service runs the store-validate-extract pipeline for one upload.
type Service struct {
	tracker   *Tracker
	extractor *Extractor
	registry  *registry.Service
	mirror    Mirror // nil when mirroring is disabled

	uploadDir string
	maxBytes  int64
	logger    *zap.Logger
}

func NewService(tracker *Tracker, extractor *Extractor, reg *registry.Service, mirror Mirror, uploadDir string, maxBytes int64, logger *zap.Logger) *Service {
	return &Service{
		tracker:   tracker,
		extractor: extractor,
		registry:  reg,
		mirror:    mirror,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

type result struct {
	doc registry.Document
	err error
}

// ErrCancelled marks an upload aborted by the client.
var ErrCancelled = fmt.Errorf("upload cancelled")

// Process stores the multipart file, validates it, runs extraction when
// extract is true and registers the document. It blocks until the
// tracked task finishes so the handler can answer synchronously while
// progress still streams through the tracker.
func (s *Service) Process(file *multipart.FileHeader, extract bool) (registry.Document, error) {
	name := SanitizeFilename(file.Filename)
	if name == "" {
		return registry.Document{}, fmt.Errorf("invalid filename")
	}
	if file.Size > s.maxBytes {
		return registry.Document{}, fmt.Errorf("file exceeds %d MB limit", s.maxBytes/(1024*1024))
	}
	if err := validatePDFUpload(file, name); err != nil {
		return registry.Document{}, err
	}

	serverName := s.uniqueServerName(name, time.Now().Unix())
	ch := make(chan result, 1)

	ok := s.tracker.Submit(serverName, func(ctx context.Context, progress func(pct int)) error {
		doc, err := s.run(ctx, file, name, serverName, extract, progress)
		ch <- result{doc: doc, err: err}
		return err
	})
	if !ok {
		return registry.Document{}, fmt.Errorf("upload already in progress")
	}

	res := <-ch
	return res.doc, res.err
}

// validatePDFUpload rejects anything that is not a PDF before a task
// is created. The name must end in .pdf, a declared Content-Type has
// to agree and the stored bytes must open with the PDF magic.
func validatePDFUpload(file *multipart.FileHeader, name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("invalid file type, only PDF files are allowed")
	}
	if ct := file.Header.Get("Content-Type"); ct != "" {
		mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
		switch mediaType {
		case "application/pdf", "application/x-pdf", "application/octet-stream":
		default:
			return fmt.Errorf("invalid file type, only PDF files are allowed")
		}
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	magic := make([]byte, 5)
	if _, err := io.ReadFull(src, magic); err != nil || string(magic) != "%PDF-" {
		return fmt.Errorf("invalid file type, only PDF files are allowed")
	}
	return nil
}

// uniqueServerName prefixes the stored name with the upload timestamp.
// A second upload of the same name inside the same second gets a
// counter suffix so it starts its own task instead of colliding.
func (s *Service) uniqueServerName(name string, ts int64) string {
	candidate := fmt.Sprintf("%d_%s", ts, name)
	for i := 2; s.nameTaken(candidate); i++ {
		candidate = fmt.Sprintf("%d-%d_%s", ts, i, name)
	}
	return candidate
}

func (s *Service) nameTaken(serverName string) bool {
	if s.tracker.Has(serverName) {
		return true
	}
	_, err := os.Stat(filepath.Join(s.uploadDir, serverName))
	return err == nil
}

func (s *Service) run(ctx context.Context, file *multipart.FileHeader, name, serverName string, extract bool, progress func(pct int)) (registry.Document, error) {
	path := filepath.Join(s.uploadDir, serverName)
	if err := s.store(ctx, file, path, progress); err != nil {
		os.Remove(path)
		return registry.Document{}, err
	}

	if _, err := s.extractor.Validate(path); err != nil {
		os.Remove(path)
		return registry.Document{}, err
	}

	doc := registry.Document{
		Name:           name,
		ServerFilename: serverName,
		SizeBytes:      file.Size,
	}

	if extract {
		s.tracker.SetProcessing(serverName)
		outline, sections, err := s.extractor.Extract(ctx, path, strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			os.Remove(path)
			if ctx.Err() != nil {
				return registry.Document{}, ErrCancelled
			}
			return registry.Document{}, fmt.Errorf("extraction failed: %w", err)
		}
		doc.Outline = outline
		doc.Sections = sections
	}

	if err := ctx.Err(); err != nil {
		os.Remove(path)
		return registry.Document{}, ErrCancelled
	}

	doc = s.registry.Add(doc)
	if extract {
		s.registry.MarkProcessed(doc.ID)
		doc.Processed = true
	}

	if s.mirror != nil {
		go func() {
			mctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if url, err := s.mirror.MirrorFile(mctx, path, serverName); err != nil {
				s.logger.Warn("mirror upload failed", zap.String("file", serverName), zap.Error(err))
			} else {
				s.registry.SetMirrorURL(serverName, url)
				s.logger.Info("mirrored upload", zap.String("file", serverName), zap.String("url", url))
			}
		}()
	}
	return doc, nil
}

func (s *Service) store(ctx context.Context, file *multipart.FileHeader, path string, progress func(pct int)) error {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	pw := &progressWriter{total: file.Size, report: progress, ctx: ctx}
	if _, err := io.Copy(io.MultiWriter(dst, pw), src); err != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}

type progressWriter struct {
	ctx     context.Context
	total   int64
	written int64
	report  func(pct int)
}

func (w *progressWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	w.written += int64(len(p))
	if w.total > 0 {
		w.report(int(w.written * 100 / w.total))
	}
	return len(p), nil
}

// SanitizeFilename strips path components and collapses anything
// outside a safe character set, the way stored names must look before
// they are joined onto the upload directory.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return ""
	}
	return out
}
