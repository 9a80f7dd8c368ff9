package upload

import "time"

// Source tells which surface stored the blob. Admin uploads accept documents.
type Source string

const (
	SourcePublic Source = "public"
	SourceAdmin  Source = "admin"
)

// Upload is the metadata row kept next to every blob written under a lead.
// The lead's attachments list stays the source of truth for what is shown.
type Upload struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	LeadID       string    `gorm:"column:lead_id;type:varchar(36);index" json:"lead_id"`
	Path         string    `gorm:"column:path;uniqueIndex" json:"path"`
	OriginalName string    `gorm:"column:original_name" json:"original_name"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	Source       Source    `gorm:"column:source;type:varchar(16)" json:"source"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Upload) TableName() string { return "uploads" }

// Attachment is one entry of a lead's attachment list with a temporary link.
type Attachment struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Name      string    `json:"name,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Size      int64     `json:"size,omitempty"`
}
