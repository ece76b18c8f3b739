package store

import "time"

// Regulation is a monitored external document.
type Regulation struct {
	ID    string `json:"regulation_id"`
	Title string `json:"regulation_title"`
	URL   string `json:"regulation_url"`
}

// Snapshot is the text of a regulation captured at one point in time.
// Snapshots are append-only and never mutated after creation.
type Snapshot struct {
	ID            string
	RegulationID  string
	Content       string
	ContentDigest string
	CapturedAt    time.Time
}

// Change records a detected transition between two consecutive snapshots of
// one regulation. The content pair is immutable once created; only the
// reviewed flag is ever updated, and only from false to true.
type Change struct {
	ID           string
	RegulationID string
	DetectedAt   time.Time
	OldContent   string
	NewContent   string
	Reviewed     bool
}

// ChangeSummary is the list-view projection of a Change: metadata and the
// reviewed flag, no content bodies.
type ChangeSummary struct {
	ChangeID        string    `json:"change_id"`
	RegulationID    string    `json:"regulation_id"`
	RegulationTitle string    `json:"regulation_title"`
	RegulationURL   string    `json:"regulation_url"`
	DetectedAt      time.Time `json:"detected_at"`
	Reviewed        bool      `json:"reviewed"`
}

// ChangeDetail is the detail-view projection: the owning regulation's
// metadata plus the full old/new content pair.
type ChangeDetail struct {
	ChangeID        string    `json:"change_id"`
	RegulationTitle string    `json:"regulation_title"`
	RegulationURL   string    `json:"regulation_url"`
	DetectedAt      time.Time `json:"detected_at"`
	OldContent      string    `json:"old_content"`
	NewContent      string    `json:"new_content"`
}

// RegulationContent pairs a regulation with its current (latest snapshot)
// content, for search indexing.
type RegulationContent struct {
	Regulation
	Content string
}
