package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appcfg "github.com/ShreyankGopal/Adobe-Hacks/internal/config"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/models"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/modules/analysis/ai"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/session"
	"github.com/ShreyankGopal/Adobe-Hacks/internal/pkg/taskqueue"
)

// Insight types, also the Type column of the content cache.
const (
	TypeSummary    = "summary"
	TypeDidYouKnow = "didYouKnow"
	TypePodcast    = "podcast"
)

// Session keys written through so a reload restores generated content.
const (
	keySummary          = "query_page_summary"
	keyDidYouKnow       = "query_page_didYouKnow"
	keyPodcast          = "query_page_podcast"
	keySectionInsights  = "sectionInsights"
	keyAnimatedSections = "animatedSections"
)

// ErrBusy is returned when a session already has a generation running.
var ErrBusy = fmt.Errorf("insight generation already in progress")

// Insight is one generated piece of content.
type Insight struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	AudioURL string `json:"audio_url,omitempty"`
	Cached   bool   `json:"cached"`
}

// Service generates summaries, facts and podcast scripts, caching by
// content hash so identical text never hits the provider twice.
type Service struct {
	ai       *ai.Service
	sessions *session.Store
	tasks    *taskqueue.Service
	db       *gorm.DB
	latch    *latch

	ttsCfg   appcfg.TTSConfig
	audioDir string

	summaryModel *appcfg.AIModelAssignment
	factModel    *appcfg.AIModelAssignment
	podcastModel *appcfg.AIModelAssignment

	logger *zap.Logger
}

func NewService(aiSvc *ai.Service, sessions *session.Store, tasks *taskqueue.Service, db *gorm.DB, aiCfg appcfg.AIConfig, ttsCfg appcfg.TTSConfig, audioDir string, logger *zap.Logger) *Service {
	return &Service{
		ai:           aiSvc,
		sessions:     sessions,
		tasks:        tasks,
		db:           db,
		latch:        newLatch(),
		ttsCfg:       ttsCfg,
		audioDir:     audioDir,
		summaryModel: aiCfg.SummaryModel,
		factModel:    aiCfg.FactModel,
		podcastModel: aiCfg.PodcastModel,
		logger:       logger,
	}
}

// GenerateSummary produces a summary of text for the session.
func (s *Service) GenerateSummary(ctx context.Context, sessionID, text string) (*Insight, error) {
	return s.generate(ctx, sessionID, TypeSummary, keySummary, s.summaryModel, ai.SummaryPrompt, text, 300)
}

// GenerateSummaryStream produces a summary like GenerateSummary but
// delivers it incrementally through onToken. Cached content arrives as
// one token.
func (s *Service) GenerateSummaryStream(ctx context.Context, sessionID, text string, onToken func(string)) (*Insight, error) {
	if !s.latch.Acquire(sessionID) {
		return nil, ErrBusy
	}
	defer s.latch.Release(sessionID)

	hash := contentHash(TypeSummary, text)
	if cached := s.lookup(hash); cached != nil {
		if onToken != nil && cached.Content != "" {
			onToken(cached.Content)
		}
		s.persistSession(ctx, sessionID, keySummary, cached)
		return cached, nil
	}

	content, err := s.ai.CompleteStream(ctx, s.summaryModel, "", ai.WrapTextPrompt(ai.SummaryPrompt, text), 300, onToken)
	if err != nil {
		return nil, err
	}
	out := &Insight{Type: TypeSummary, Content: strings.TrimSpace(content)}
	s.store(hash, out)
	s.persistSession(ctx, sessionID, keySummary, out)
	return out, nil
}

// GenerateDidYouKnow produces a single surprising fact from text.
func (s *Service) GenerateDidYouKnow(ctx context.Context, sessionID, text string) (*Insight, error) {
	return s.generate(ctx, sessionID, TypeDidYouKnow, keyDidYouKnow, s.factModel, ai.DidYouKnowPrompt, text, 300)
}

// GeneratePodcast produces a short podcast script and, when TTS is
// enabled, an MP3 rendering of it.
func (s *Service) GeneratePodcast(ctx context.Context, sessionID, text string) (*Insight, error) {
	if !s.latch.Acquire(sessionID) {
		return nil, ErrBusy
	}
	defer s.latch.Release(sessionID)

	hash := contentHash(TypePodcast, text)
	if cached := s.lookup(hash); cached != nil {
		s.persistSession(ctx, sessionID, keyPodcast, cached)
		return cached, nil
	}

	script, err := s.ai.Complete(ctx, s.podcastModel, "", ai.WrapTextPrompt(ai.PodcastPrompt, text), 1200)
	if err != nil {
		return nil, err
	}
	script = strings.TrimSpace(script)

	audioURL, err := synthesizeSpeech(ctx, s.ttsCfg, s.audioDir, script)
	if err != nil {
		// The script is still useful without audio.
		s.logger.Warn("podcast audio synthesis failed", zap.Error(err))
	}

	out := &Insight{Type: TypePodcast, Content: script, AudioURL: audioURL}
	s.store(hash, out)
	s.persistSession(ctx, sessionID, keyPodcast, out)
	return out, nil
}

// EnqueuePodcast schedules podcast generation as a background task and
// returns the task for polling. Duplicate text collapses onto the same
// task through the queue's dedup key.
func (s *Service) EnqueuePodcast(ctx context.Context, sessionID, text string) (*taskqueue.Task, error) {
	hash := contentHash(TypePodcast, text)
	task, err := s.tasks.Enqueue(ctx, "podcast", map[string]string{"session": sessionID}, hash)
	if err != nil {
		return nil, err
	}
	if task.Status != taskqueue.TaskPending {
		return task, nil
	}

	go func() {
		bctx := context.Background()
		if err := s.tasks.UpdateStatus(bctx, task.ID, taskqueue.TaskRunning, nil, ""); err != nil {
			s.logger.Warn("task status update failed", zap.String("task", task.ID), zap.Error(err))
		}
		insight, err := s.GeneratePodcast(bctx, sessionID, text)
		if err != nil {
			s.tasks.UpdateStatus(bctx, task.ID, taskqueue.TaskFailed, nil, err.Error())
			return
		}
		s.tasks.UpdateStatus(bctx, task.ID, taskqueue.TaskCompleted, insight, "")
	}()
	return task, nil
}

// GenerateFromPrompt serves the generic task endpoint. The task name
// selects an instruction appended to the caller's prompt; "generate"
// passes the prompt through untouched.
func (s *Service) GenerateFromPrompt(ctx context.Context, task, prompt string) (string, error) {
	var assignment *appcfg.AIModelAssignment
	switch task {
	case "summarize":
		prompt += " Summarize the mentioned relevant sections clearly and concisely. Format the result text well, leaving lines between paragraphs."
		assignment = s.summaryModel
	case "did-you-know":
		prompt += " Ignore the task, only give me a 'Did You Know?' fact about the given relevant sections. Do not write 'Did You Know?' in your response. Add an exclamation mark at the end of your fact."
		assignment = s.factModel
	case "generate":
		assignment = s.summaryModel
	default:
		return "", fmt.Errorf("unknown task %q", task)
	}
	result, err := s.ai.Complete(ctx, assignment, "", prompt, 300)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// GenerateSectionInsight produces a summary insight for one section and
// records it in the session's per-section map.
func (s *Service) GenerateSectionInsight(ctx context.Context, sessionID, document string, page int, title, text string) (string, string, error) {
	if !s.latch.Acquire(sessionID) {
		return "", "", ErrBusy
	}
	defer s.latch.Release(sessionID)

	key := SectionKey(document, page, title)
	hash := contentHash(TypeSummary, text)

	var content string
	if cached := s.lookup(hash); cached != nil {
		content = cached.Content
	} else {
		generated, err := s.ai.Complete(ctx, s.summaryModel, "", ai.WrapTextPrompt(ai.SummaryPrompt, text), 300)
		if err != nil {
			return "", "", err
		}
		content = strings.TrimSpace(generated)
		s.store(hash, &Insight{Type: TypeSummary, Content: content})
	}

	stored := s.sectionMap(ctx, sessionID, keySectionInsights)
	stored[key] = content
	if err := s.sessions.Put(ctx, sessionID, keySectionInsights, stored); err != nil {
		s.logger.Warn("session write failed", zap.String("key", keySectionInsights), zap.Error(err))
	}
	return key, content, nil
}

// SectionInsight returns the stored insight for a section key.
func (s *Service) SectionInsight(ctx context.Context, sessionID, key string) (string, bool) {
	stored := s.sectionMap(ctx, sessionID, keySectionInsights)
	content, ok := stored[key]
	return content, ok
}

// IsAnimated reports whether the reveal animation already ran for key.
func (s *Service) IsAnimated(ctx context.Context, sessionID, key string) bool {
	animated := s.animatedSet(ctx, sessionID)
	return animated[key]
}

// MarkAnimated records that the reveal animation ran for key.
func (s *Service) MarkAnimated(ctx context.Context, sessionID, key string) {
	animated := s.animatedSet(ctx, sessionID)
	animated[key] = true
	if err := s.sessions.Put(ctx, sessionID, keyAnimatedSections, animated); err != nil {
		s.logger.Warn("session write failed", zap.String("key", keyAnimatedSections), zap.Error(err))
	}
}

func (s *Service) generate(ctx context.Context, sessionID, insightType, sessionKey string, assignment *appcfg.AIModelAssignment, instruction, text string, maxTokens int) (*Insight, error) {
	if !s.latch.Acquire(sessionID) {
		return nil, ErrBusy
	}
	defer s.latch.Release(sessionID)

	hash := contentHash(insightType, text)
	if cached := s.lookup(hash); cached != nil {
		s.persistSession(ctx, sessionID, sessionKey, cached)
		return cached, nil
	}

	content, err := s.ai.Complete(ctx, assignment, "", ai.WrapTextPrompt(instruction, text), maxTokens)
	if err != nil {
		return nil, err
	}
	out := &Insight{Type: insightType, Content: strings.TrimSpace(content)}
	s.store(hash, out)
	s.persistSession(ctx, sessionID, sessionKey, out)
	return out, nil
}

// lookup checks the content cache. A nil database disables caching.
func (s *Service) lookup(hash string) *Insight {
	if s.db == nil {
		return nil
	}
	var row models.InsightModel
	if err := s.db.Where("hash = ?", hash).First(&row).Error; err != nil {
		return nil
	}
	return &Insight{Type: row.Type, Content: row.Content, AudioURL: row.AudioURL, Cached: true}
}

func (s *Service) store(hash string, in *Insight) {
	if s.db == nil {
		return
	}
	row := models.InsightModel{
		Hash:     hash,
		Type:     in.Type,
		Content:  in.Content,
		AudioURL: in.AudioURL,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "audio_url"}),
	}).Create(&row).Error; err != nil {
		s.logger.Warn("insight cache write failed", zap.String("hash", hash), zap.Error(err))
	}
}

func (s *Service) persistSession(ctx context.Context, sessionID, key string, in *Insight) {
	if err := s.sessions.Put(ctx, sessionID, key, in); err != nil {
		s.logger.Warn("session write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) sectionMap(ctx context.Context, sessionID, key string) map[string]string {
	stored := make(map[string]string)
	if _, err := s.sessions.Get(ctx, sessionID, key, &stored); err != nil {
		s.logger.Warn("session read failed", zap.String("key", key), zap.Error(err))
	}
	if stored == nil {
		stored = make(map[string]string)
	}
	return stored
}

func (s *Service) animatedSet(ctx context.Context, sessionID string) map[string]bool {
	animated := make(map[string]bool)
	if _, err := s.sessions.Get(ctx, sessionID, keyAnimatedSections, &animated); err != nil {
		s.logger.Warn("session read failed", zap.String("key", keyAnimatedSections), zap.Error(err))
	}
	if animated == nil {
		animated = make(map[string]bool)
	}
	return animated
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// SectionKey builds the stable identifier a section's insight and its
// reveal state are stored under.
func SectionKey(document string, page int, title string) string {
	key := fmt.Sprintf("%s_%d_%s", document, page, title)
	return whitespaceRe.ReplaceAllString(key, "_")
}

func contentHash(insightType, text string) string {
	sum := sha256.Sum256([]byte(insightType + "\n" + text))
	return hex.EncodeToString(sum[:])
}
