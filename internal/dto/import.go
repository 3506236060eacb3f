package dto

import "github.com/noah-isme/sma-pedagogy-api/pkg/csvimport"

// GradeImportResponse summarises a grade spreadsheet import.
type GradeImportResponse struct {
	Processed int                  `json:"processed"`
	Skipped   []string             `json:"skipped"`
	Errors    []csvimport.RowError `json:"errors"`
	LogID     string               `json:"logId"`
}
