package registry

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShreyankGopal/Adobe-Hacks/internal/models"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/pagination"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/response"
)

// Service is the in-memory document registry. The live slice is the
// source of truth; the MySQL mirror is best-effort so a database outage
// never blocks uploads.
type Service struct {
	mu         sync.RWMutex
	docs       []Document // copy-on-write, newest first
	processing map[string]bool

	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		docs:       []Document{},
		processing: make(map[string]bool),
		db:         db,
		logger:     logger,
	}
}

// Restore loads the mirror rows into the in-memory registry so the
// file listing keeps answering across restarts. Outline and section
// data is not mirrored; restored entries carry metadata only until the
// file is uploaded again.
func (s *Service) Restore() int {
	if s.db == nil {
		return 0
	}
	var rows []models.DocumentModel
	if err := s.db.Order("created_at DESC").Find(&rows).Error; err != nil {
		s.logger.Warn("document restore failed", zap.Error(err))
		return 0
	}
	docs := docsFromRows(rows)

	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	return len(docs)
}

func docsFromRows(rows []models.DocumentModel) []Document {
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{
			ID:             row.ID,
			Name:           row.Name,
			SizeBytes:      row.SizeBytes,
			UploadedAt:     row.CreatedAt,
			ServerFilename: row.ServerFilename,
			Processed:      row.Processed,
			MirrorURL:      row.MirrorURL,
		})
	}
	return docs
}

// Add registers a freshly extracted document at the head of the list
// and returns it with its generated ID filled in.
func (s *Service) Add(doc Document) Document {
	if strings.TrimSpace(doc.ID) == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	s.mu.Lock()
	next := make([]Document, 0, len(s.docs)+1)
	next = append(next, doc)
	next = append(next, s.docs...)
	s.docs = next
	s.mu.Unlock()

	s.mirror(doc)
	return doc
}

// Remove drops a document by ID and reports whether it existed.
func (s *Service) Remove(id string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.docs {
		if d.ID != id {
			continue
		}
		next := make([]Document, 0, len(s.docs)-1)
		next = append(next, s.docs[:i]...)
		next = append(next, s.docs[i+1:]...)
		s.docs = next
		return d, true
	}
	return Document{}, false
}

// FindByID looks a document up by its opaque ID.
func (s *Service) FindByID(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

// FindByServerFilename looks a document up by the name it is stored
// under on disk.
func (s *Service) FindByServerFilename(name string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ServerFilename == name {
			return d, true
		}
	}
	return Document{}, false
}

// List returns a snapshot of all registered documents, newest first.
func (s *Service) List() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// SetProcessing flags a document as having background analysis running.
func (s *Service) SetProcessing(id string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.processing[id] = true
	} else {
		delete(s.processing, id)
	}
}

// IsProcessing reports whether background analysis is running for id.
func (s *Service) IsProcessing(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processing[id]
}

// MarkProcessed flips the Processed flag once extraction has finished.
func (s *Service) MarkProcessed(id string) {
	s.mu.Lock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			next := make([]Document, len(s.docs))
			copy(next, s.docs)
			next[i].Processed = true
			s.docs = next
			break
		}
	}
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Model(&models.DocumentModel{}).
			Where("id = ?", id).
			Update("processed", true).Error; err != nil {
			s.logger.Warn("document mirror update failed", zap.String("id", id), zap.Error(err))
		}
	}
}

// SetMirrorURL records where the object-store copy of a document ended
// up, in memory and on the mirror row.
func (s *Service) SetMirrorURL(serverFilename, url string) {
	s.mu.Lock()
	for i := range s.docs {
		if s.docs[i].ServerFilename == serverFilename {
			next := make([]Document, len(s.docs))
			copy(next, s.docs)
			next[i].MirrorURL = url
			s.docs = next
			break
		}
	}
	s.mu.Unlock()

	if s.db != nil {
		if err := s.db.Model(&models.DocumentModel{}).
			Where("server_filename = ?", serverFilename).
			Update("mirror_url", url).Error; err != nil {
			s.logger.Warn("document mirror update failed",
				zap.String("serverFilename", serverFilename), zap.Error(err))
		}
	}
}

// ArchivePage lists the MySQL mirror, which also covers documents from
// earlier runs that are no longer in memory.
func (s *Service) ArchivePage(q pagination.Query) ([]models.DocumentModel, response.Pagination, error) {
	if s.db == nil {
		return nil, response.Pagination{}, gorm.ErrInvalidDB
	}
	var rows []models.DocumentModel
	page, err := pagination.Paginate(
		s.db.Model(&models.DocumentModel{}).Order("created_at DESC"), q, &rows,
	)
	return rows, page, err
}

func (s *Service) mirror(doc Document) {
	if s.db == nil {
		return
	}
	row := models.DocumentModel{
		Name:           doc.Name,
		ServerFilename: doc.ServerFilename,
		SizeBytes:      doc.SizeBytes,
		Processed:      doc.Processed,
	}
	row.ID = doc.ID
	if doc.Outline != nil {
		row.PageCount = maxPage(doc.Sections)
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "server_filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "size_bytes", "processed"}),
	}).Create(&row).Error; err != nil {
		s.logger.Warn("document mirror insert failed",
			zap.String("serverFilename", doc.ServerFilename), zap.Error(err))
	}
}

func maxPage(sections []Section) int {
	max := 0
	for _, sec := range sections {
		if sec.EndPage > max {
			max = sec.EndPage
		}
	}
	return max
}
