package dto

import "time"

// CreateInterventionRequest opens a manual intervention for a student.
type CreateInterventionRequest struct {
	StudentID  string     `json:"studentId" validate:"required,uuid"`
	ClassID    *string    `json:"classId" validate:"omitempty,uuid"`
	Title      string     `json:"title" validate:"required,min=5,max=200"`
	Summary    *string    `json:"summary"`
	Plan       *string    `json:"plan"`
	FollowUpAt *time.Time `json:"followUpAt"`
	Status     string     `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS COMPLETED CANCELLED"`
}

// UpdateInterventionRequest patches an intervention. Nil fields are left untouched; an empty
// assignedToId clears the assignee.
type UpdateInterventionRequest struct {
	Status       *string    `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS COMPLETED CANCELLED"`
	Plan         *string    `json:"plan"`
	Summary      *string    `json:"summary"`
	FollowUpAt   *time.Time `json:"followUpAt"`
	AssignedToID *string    `json:"assignedToId" validate:"omitempty,uuid|len=0"`
}
