package models

// DocumentModel mirrors registry entries so stored-file metadata
// survives restarts. The in-memory registry stays authoritative for
// the running process; rows here back the /files listing.
type DocumentModel struct {
	Base
	Name           string `json:"name"            gorm:"not null"`
	ServerFilename string `json:"server_filename" gorm:"uniqueIndex;not null"`
	SizeBytes      int64  `json:"size_bytes"`
	PageCount      int    `json:"page_count"`
	Processed      bool   `json:"processed"`
	MirrorURL      string `json:"mirror_url,omitempty"`
}

func (DocumentModel) TableName() string { return "documents" }
