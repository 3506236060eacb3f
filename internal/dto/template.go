package dto

// CreateTemplateRequest stores a new template version for the school.
type CreateTemplateRequest struct {
	Code      string `json:"code" validate:"required,min=2,max=50"`
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Type      string `json:"type" validate:"required,min=2,max=20"`
	HTML      string `json:"html" validate:"required,min=10"`
	Changelog string `json:"changelog" validate:"max=500"`
}

// UpdateTemplateRequest replaces the body of a template.
type UpdateTemplateRequest struct {
	HTML      string `json:"html" validate:"required,min=10"`
	Changelog string `json:"changelog" validate:"max=500"`
}
