package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ImportTypeGrades tags grade spreadsheet imports.
const ImportTypeGrades = "GRADES"

// CSVImportLog records the outcome of a spreadsheet import.
type CSVImportLog struct {
	ID             string         `db:"id" json:"id"`
	SchoolID       string         `db:"school_id" json:"school_id"`
	UserID         string         `db:"user_id" json:"user_id"`
	Type           string         `db:"type" json:"type"`
	FileName       string         `db:"file_name" json:"file_name"`
	RowCount       int            `db:"row_count" json:"row_count"`
	ProcessedCount int            `db:"processed_count" json:"processed_count"`
	ErrorCount     int            `db:"error_count" json:"error_count"`
	Log            types.JSONText `db:"log" json:"log,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
