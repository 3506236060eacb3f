package dto

import "time"

// UploadedAttachment is one stored file with its signed download link.
type UploadedAttachment struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	MimeType    string    `json:"mimeType"`
	SizeBytes   int64     `json:"size"`
	Scope       string    `json:"scope"`
	RefID       *string   `json:"refId,omitempty"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
