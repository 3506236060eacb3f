package models

import "time"

// StudentStatusActive marks students considered by risk evaluation.
const StudentStatusActive = "ACTIVE"

// Student represents a learner registered in a school.
type Student struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	ClassID      *string   `db:"class_id" json:"class_id,omitempty"`
	ClassName    *string   `db:"class_name" json:"class_name,omitempty"`
	Registration string    `db:"registration" json:"registration"`
	Name         string    `db:"name" json:"name"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StudentMetric holds the latest computed indicators for one student and period.
type StudentMetric struct {
	ID              string    `db:"id" json:"id"`
	SchoolID        string    `db:"school_id" json:"school_id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Period          string    `db:"period" json:"period"`
	Average         *float64  `db:"average" json:"average,omitempty"`
	Attendance      *float64  `db:"attendance" json:"attendance,omitempty"`
	SevereOccurs30d int       `db:"severe_occurs_30d" json:"severe_occurs_30d"`
	LastComputedAt  time.Time `db:"last_computed_at" json:"last_computed_at"`
}

// StudentRiskSnapshot is an active student joined with their most recent metric row.
// Average and Attendance are nil when the student has no metric yet.
type StudentRiskSnapshot struct {
	StudentID  string   `db:"student_id"`
	Name       string   `db:"name"`
	ClassID    *string  `db:"class_id"`
	Period     *string  `db:"period"`
	Average    *float64 `db:"average"`
	Attendance *float64 `db:"attendance"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	ClassID string
	Search  string
	Limit   int
}
