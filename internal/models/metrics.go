package models

import "time"

// SystemMetrics is a point-in-time summary of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AssignmentsMade          uint64    `json:"assignments_made"`
	AssignmentsFailed        uint64    `json:"assignments_failed"`
	SyncRuns                 uint64    `json:"sync_runs"`
	SyncRowsImported         uint64    `json:"sync_rows_imported"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
