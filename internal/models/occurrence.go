package models

import "time"

// OccurrenceCategory classifies a behavioural or academic event.
type OccurrenceCategory string

const (
	OccurrenceIndiscipline  OccurrenceCategory = "INDISCIPLINA"
	OccurrenceLateAbsence   OccurrenceCategory = "ATRASO_FALTA"
	OccurrenceConflict      OccurrenceCategory = "CONFLITO"
	OccurrencePedagogical   OccurrenceCategory = "PEDAGOGICA"
	OccurrenceProperty      OccurrenceCategory = "PATRIMONIO"
	OccurrenceHealthWelfare OccurrenceCategory = "SAUDE_BEM_ESTAR"
)

// OccurrenceStatus tracks the handling of an occurrence.
type OccurrenceStatus string

const (
	OccurrenceOpen     OccurrenceStatus = "OPEN"
	OccurrenceInReview OccurrenceStatus = "IN_REVIEW"
	OccurrenceClosed   OccurrenceStatus = "CLOSED"
	OccurrenceArchived OccurrenceStatus = "ARCHIVED"
)

// SevereOccurrenceFloor is the minimum severity counted by occurrence risk conditions.
const SevereOccurrenceFloor = 4

// Occurrence is a single recorded event about a student.
type Occurrence struct {
	ID             string             `db:"id" json:"id"`
	SchoolID       string             `db:"school_id" json:"school_id"`
	StudentID      string             `db:"student_id" json:"student_id"`
	StudentName    *string            `db:"student_name" json:"student_name,omitempty"`
	ClassID        *string            `db:"class_id" json:"class_id,omitempty"`
	CreatedBy      string             `db:"created_by" json:"created_by"`
	Category       OccurrenceCategory `db:"category" json:"category"`
	Subtype        string             `db:"subtype" json:"subtype"`
	Severity       int                `db:"severity" json:"severity"`
	Description    string             `db:"description" json:"description"`
	ActionsTaken   *string            `db:"actions_taken" json:"actions_taken,omitempty"`
	Status         OccurrenceStatus   `db:"status" json:"status"`
	IsConfidential bool               `db:"is_confidential" json:"is_confidential"`
	HappenedAt     time.Time          `db:"happened_at" json:"happened_at"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
}

// OccurrenceFilter narrows occurrence listings.
type OccurrenceFilter struct {
	StudentID string
	Status    OccurrenceStatus
	Limit     int
}

// OccurrenceSignal is the slice of an occurrence the risk evaluator needs.
type OccurrenceSignal struct {
	StudentID  string    `db:"student_id"`
	Severity   int       `db:"severity"`
	HappenedAt time.Time `db:"happened_at"`
}
