// Package ingest records regulation snapshots and turns digest mismatches
// into change records. It is the write path used by the external detection
// process; scheduling and crawling live outside this binary.
package ingest

import (
	"context"
	"crypto/md5"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/regwatch/regwatch/internal/log"
	"github.com/regwatch/regwatch/internal/search"
	"github.com/regwatch/regwatch/internal/store"
)

// Recorder writes snapshots to the change store and keeps the search index
// current. The index is optional; a nil index skips indexing.
type Recorder struct {
	db  *store.DB
	idx *search.Index
	now func() time.Time
}

// NewRecorder creates a recorder backed by the given store and index.
func NewRecorder(db *store.DB, idx *search.Index) *Recorder {
	return &Recorder{db: db, idx: idx, now: time.Now}
}

// SetClock overrides the time source used for snapshot and detection
// timestamps.
func (r *Recorder) SetClock(now func() time.Time) {
	r.now = now
}

// Result describes what one Record call did.
type Result struct {
	RegulationID  string
	Unchanged     bool
	FirstSnapshot bool
	ChangeID      string
}

// Record upserts the regulation, appends a snapshot of content, and creates a
// change when the content digest differs from the latest snapshot. Identical
// content is skipped without writing a snapshot. The first snapshot of a
// regulation produces a change with empty prior content.
func (r *Recorder) Record(ctx context.Context, reg *store.Regulation, content string) (*Result, error) {
	if err := r.db.UpsertRegulation(ctx, reg); err != nil {
		return nil, fmt.Errorf("upsert regulation: %w", err)
	}

	digest := fmt.Sprintf("%x", md5.Sum([]byte(content)))

	prev, err := r.db.LatestSnapshot(ctx, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	result := &Result{RegulationID: reg.ID}

	if prev != nil && prev.ContentDigest == digest {
		result.Unchanged = true
		log.Debugf("content unchanged for %s, skipping", reg.ID)
		return result, nil
	}

	now := r.now()
	snap := &store.Snapshot{
		ID:            uuid.NewString(),
		RegulationID:  reg.ID,
		Content:       content,
		ContentDigest: digest,
		CapturedAt:    now,
	}
	if err := r.db.InsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	oldContent := ""
	if prev != nil {
		oldContent = prev.Content
	} else {
		result.FirstSnapshot = true
	}

	change := &store.Change{
		ID:           uuid.NewString(),
		RegulationID: reg.ID,
		DetectedAt:   now,
		OldContent:   oldContent,
		NewContent:   content,
	}
	if err := r.db.InsertChange(ctx, change); err != nil {
		return nil, fmt.Errorf("insert change: %w", err)
	}
	result.ChangeID = change.ID

	if r.idx != nil {
		err := r.idx.IndexRegulation(&search.IndexedRegulation{
			ID:      reg.ID,
			Title:   reg.Title,
			Content: content,
			URL:     reg.URL,
		})
		if err != nil {
			return nil, fmt.Errorf("index regulation: %w", err)
		}
	}

	log.Infof("recorded change %s for %s", change.ID, reg.ID)
	return result, nil
}
