package models

import "time"

// InterventionStatus tracks a pedagogical follow-up.
type InterventionStatus string

const (
	InterventionOpen       InterventionStatus = "OPEN"
	InterventionInProgress InterventionStatus = "IN_PROGRESS"
	InterventionCompleted  InterventionStatus = "COMPLETED"
	InterventionCancelled  InterventionStatus = "CANCELLED"
)

// Intervention is a follow-up action planned for a student.
type Intervention struct {
	ID          string             `db:"id" json:"id"`
	SchoolID    string             `db:"school_id" json:"school_id"`
	StudentID   string             `db:"student_id" json:"student_id"`
	StudentName *string            `db:"student_name" json:"student_name,omitempty"`
	ClassID     *string            `db:"class_id" json:"class_id,omitempty"`
	CreatedBy   *string            `db:"created_by" json:"created_by,omitempty"`
	AssignedTo  *string            `db:"assigned_to" json:"assigned_to,omitempty"`
	Status      InterventionStatus `db:"status" json:"status"`
	Title       string             `db:"title" json:"title"`
	Summary     *string            `db:"summary" json:"summary,omitempty"`
	Plan        *string            `db:"plan" json:"plan,omitempty"`
	FollowUpAt  *time.Time         `db:"follow_up_at" json:"follow_up_at,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// InterventionFilter narrows intervention listings.
type InterventionFilter struct {
	StudentID string
	Status    InterventionStatus
	Limit     int
}
