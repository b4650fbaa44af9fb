package dto

import "time"

// TickSummary records one coordinator pass over the due set.
type TickSummary struct {
	StartedAt      time.Time `json:"started_at"`
	DueCount       int       `json:"due_count"`
	PublishedCount int       `json:"published_count"`
	SkippedCount   int       `json:"skipped_count"`
}

// StatusActionRequest is the payload for POST /cms/lessons/:id/status.
type StatusActionRequest struct {
	Action    string `json:"action" validate:"required"`
	PublishAt string `json:"publish_at,omitempty"`
}
