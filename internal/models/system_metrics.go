package models

import "time"

// SystemMetrics is a point-in-time digest of the process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	RiskRuns                 uint64    `json:"risk_runs"`
	RiskAlertsCreated        uint64    `json:"risk_alerts_created"`
	RiskAlertsResolved       uint64    `json:"risk_alerts_resolved"`
	DocumentNumbersIssued    uint64    `json:"document_numbers_issued"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
