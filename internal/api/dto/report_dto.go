package dto

import "time"

// CreateReportRequest payload.
type CreateReportRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// ResolveReportRequest payload.
type ResolveReportRequest struct {
	Status          string  `json:"status"`
	ResolutionNotes *string `json:"resolution_notes"`
	Action          string  `json:"action"`
}

// ReportResponse is a moderation report.
type ReportResponse struct {
	ID              string     `json:"id"`
	ReporterID      string     `json:"reporter_id"`
	TargetKind      string     `json:"target_kind"`
	TargetID        string     `json:"target_id"`
	Reason          string     `json:"reason"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedByID    *string    `json:"resolved_by_id"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ResolutionNotes *string    `json:"resolution_notes"`
}

// ReportStatsResponse summarises the moderation queue.
type ReportStatsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Resolved  int `json:"resolved"`
	Dismissed int `json:"dismissed"`
}
