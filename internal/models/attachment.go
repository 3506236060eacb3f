package models

import "time"

// Attachment scopes.
const (
	AttachmentScopeDocument     = "document"
	AttachmentScopeOccurrence   = "occurrence"
	AttachmentScopeIntervention = "intervention"
)

// Attachment is an uploaded file stored on disk.
type Attachment struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by"`
	Scope      string    `db:"scope" json:"scope"`
	RefID      *string   `db:"ref_id" json:"ref_id,omitempty"`
	FileName   string    `db:"file_name" json:"file_name"`
	Path       string    `db:"path" json:"-"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
