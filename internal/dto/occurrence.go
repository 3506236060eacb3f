package dto

import "time"

// CreateOccurrenceRequest records a new occurrence about a student.
type CreateOccurrenceRequest struct {
	StudentID      string    `json:"studentId" validate:"required,uuid"`
	ClassID        *string   `json:"classId" validate:"omitempty,uuid"`
	Category       string    `json:"category" validate:"required,oneof=INDISCIPLINA ATRASO_FALTA CONFLITO PEDAGOGICA PATRIMONIO SAUDE_BEM_ESTAR"`
	Subtype        string    `json:"subtype" validate:"required,min=2,max=100"`
	Severity       int       `json:"severity" validate:"required,min=1,max=5"`
	Description    string    `json:"description" validate:"required,min=5"`
	ActionsTaken   *string   `json:"actionsTaken"`
	HappenedAt     time.Time `json:"happenedAt" validate:"required"`
	IsConfidential bool      `json:"isConfidential"`
}

// UpdateOccurrenceRequest patches an occurrence.
type UpdateOccurrenceRequest struct {
	Severity       *int    `json:"severity" validate:"omitempty,min=1,max=5"`
	Description    *string `json:"description" validate:"omitempty,min=5"`
	ActionsTaken   *string `json:"actionsTaken"`
	Status         *string `json:"status" validate:"omitempty,oneof=OPEN IN_REVIEW CLOSED ARCHIVED"`
	IsConfidential *bool   `json:"isConfidential"`
}
