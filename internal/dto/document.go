package dto

import (
	"encoding/json"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// CreateDocumentRequest opens a new DRAFT document. Content may be omitted when a template is
// given, in which case the template body is rendered with Values.
type CreateDocumentRequest struct {
	TemplateID *string           `json:"templateId" validate:"omitempty,uuid"`
	Title      string            `json:"title" validate:"required,min=3,max=200"`
	Type       string            `json:"type" validate:"required,min=2,max=20,alphanum"`
	Content    string            `json:"content" validate:"required_without=TemplateID,omitempty,min=10"`
	Values     map[string]string `json:"values"`
	Metadata   json.RawMessage   `json:"metadata"`
}

// UpdateDocumentRequest replaces document content and records a revision.
type UpdateDocumentRequest struct {
	Title     *string         `json:"title" validate:"omitempty,min=3,max=200"`
	Content   string          `json:"content" validate:"required,min=10"`
	Metadata  json.RawMessage `json:"metadata"`
	Changelog string          `json:"changelog" validate:"max=500"`
}

// DocumentActionRequest drives the lifecycle through PATCH /documents/:id.
type DocumentActionRequest struct {
	Action string `json:"action" binding:"required,oneof=submit approve archive reopen"`
}

// DocumentActionResponse carries the document after a transition and, on approval, its number.
type DocumentActionResponse struct {
	Document *models.Document `json:"document"`
	Number   string           `json:"number,omitempty"`
}
