package models

// InsightModel caches generated insight content keyed by a hash of the
// input text and insight type, so identical requests skip the provider.
type InsightModel struct {
	Base
	Hash     string `json:"hash"      gorm:"uniqueIndex;not null"` // hash(type + text)
	Type     string `json:"type"      gorm:"index;not null"`       // summary | didYouKnow | podcast
	Content  string `json:"content"   gorm:"type:text;not null"`
	AudioURL string `json:"audio_url"` // podcast only
}

func (InsightModel) TableName() string { return "insights" }
