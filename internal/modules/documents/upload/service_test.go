package upload

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/documents/registry"
)

func newTestService(t *testing.T) (*Service, *Tracker) {
	t.Helper()
	logger := zap.NewNop()
	tracker := NewTracker(logger)
	reg := registry.NewService(nil, logger)
	svc := NewService(tracker, NewExtractor(), reg, nil, t.TempDir(), 64<<20, logger)
	return svc, tracker
}

func newUploadRouter(t *testing.T) (*gin.Engine, *Tracker) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, tracker := newTestService(t)
	r := gin.New()
	NewHandler(svc, tracker, svc.uploadDir, zap.NewNop()).RegisterRoutes(r.Group("/"))
	return r, tracker
}

func multipartUpload(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadRejectsNonPDFWithoutTask(t *testing.T) {
	r, tracker := newUploadRouter(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	req := multipartUpload(t, "file", "image.png", "image/png", png)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("PNG upload: want 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "file type") {
		t.Fatalf("rejection must cite the file type, got %s", w.Body.String())
	}
	if snap := tracker.Snapshot(); len(snap) != 0 {
		t.Fatalf("a rejected file must not create a task, got %d entries", len(snap))
	}
}

func TestUploadRejectsPDFNameWithForeignBytes(t *testing.T) {
	r, tracker := newUploadRouter(t)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	req := multipartUpload(t, "file", "image.pdf", "application/pdf", png)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("renamed PNG upload: want 400, got %d: %s", w.Code, w.Body.String())
	}
	if snap := tracker.Snapshot(); len(snap) != 0 {
		t.Fatalf("a rejected file must not create a task, got %d entries", len(snap))
	}
}

func TestUploadRejectsWrongDeclaredContentType(t *testing.T) {
	r, tracker := newUploadRouter(t)

	req := multipartUpload(t, "file", "doc.pdf", "text/html", []byte("%PDF-1.7 ..."))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong declared type: want 400, got %d: %s", w.Code, w.Body.String())
	}
	if snap := tracker.Snapshot(); len(snap) != 0 {
		t.Fatalf("a rejected file must not create a task, got %d entries", len(snap))
	}
}

func TestUniqueServerNameAvoidsSameSecondCollision(t *testing.T) {
	svc, tracker := newTestService(t)

	first := svc.uniqueServerName("report.pdf", 1700000000)
	if first != "1700000000_report.pdf" {
		t.Fatalf("unexpected first name %q", first)
	}

	// First upload still holds its task slot.
	release := make(chan struct{})
	ok := tracker.Submit(first, func(ctx context.Context, _ func(int)) error {
		<-release
		return nil
	})
	if !ok {
		t.Fatal("submit must succeed")
	}
	defer close(release)

	second := svc.uniqueServerName("report.pdf", 1700000000)
	if second != "1700000000-2_report.pdf" {
		t.Fatalf("same-second upload must get its own name, got %q", second)
	}
}

func TestUniqueServerNameSkipsStoredFiles(t *testing.T) {
	svc, _ := newTestService(t)

	stored := filepath.Join(svc.uploadDir, "1700000001_report.pdf")
	if err := os.WriteFile(stored, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatalf("write stored file: %v", err)
	}

	got := svc.uniqueServerName("report.pdf", 1700000001)
	if got != "1700000001-2_report.pdf" {
		t.Fatalf("name already on disk must be skipped, got %q", got)
	}
}
