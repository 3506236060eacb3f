package models

import "time"

// CountByKey is a grouped count row.
type CountByKey struct {
	Key   string `db:"key" json:"key"`
	Total int    `db:"total" json:"total"`
}

// DashboardSummary aggregates the pedagogical overview of a school.
type DashboardSummary struct {
	SchoolID              string       `json:"school_id"`
	OpenAlertsBySeverity  []CountByKey `json:"open_alerts_by_severity"`
	InterventionsByStatus []CountByKey `json:"interventions_by_status"`
	RecentOccurrences     int          `json:"recent_occurrences"`
	DocumentsByStatus     []CountByKey `json:"documents_by_status"`
	GeneratedAt           time.Time    `json:"generated_at"`
}
