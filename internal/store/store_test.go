package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "regwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetClock(func() time.Time { return testNow })
	return db
}

func seedRegulation(t *testing.T, db *DB, id, title string) {
	t.Helper()
	err := db.UpsertRegulation(context.Background(), &Regulation{
		ID:    id,
		Title: title,
		URL:   "https://example.gov/" + id,
	})
	require.NoError(t, err)
}

func seedChange(t *testing.T, db *DB, id, regID string, detectedAt time.Time) {
	t.Helper()
	err := db.InsertChange(context.Background(), &Change{
		ID:           id,
		RegulationID: regID,
		DetectedAt:   detectedAt,
		OldContent:   "old text",
		NewContent:   "new text",
	})
	require.NoError(t, err)
}

func TestListRecentChangesWindowAndOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedRegulation(t, db, "reg-1", "Data Retention Rule")

	seedChange(t, db, "chg-old", "reg-1", testNow.Add(-8*24*time.Hour))
	seedChange(t, db, "chg-boundary", "reg-1", testNow.Add(-7*24*time.Hour))
	seedChange(t, db, "chg-mid", "reg-1", testNow.Add(-3*24*time.Hour))
	seedChange(t, db, "chg-new", "reg-1", testNow.Add(-time.Hour))

	summaries, err := db.ListRecentChanges(ctx)
	require.NoError(t, err)

	var ids []string
	for _, s := range summaries {
		ids = append(ids, s.ChangeID)
	}
	assert.Equal(t, []string{"chg-new", "chg-mid", "chg-boundary"}, ids,
		"most recent first, changes older than the window excluded")

	assert.Equal(t, "Data Retention Rule", summaries[0].RegulationTitle)
	assert.Equal(t, "https://example.gov/reg-1", summaries[0].RegulationURL)
	assert.False(t, summaries[0].Reviewed)
}

func TestListRecentChangesTieBreakByID(t *testing.T) {
	db := openTestDB(t)
	seedRegulation(t, db, "reg-1", "Rule")

	at := testNow.Add(-time.Hour)
	seedChange(t, db, "chg-a", "reg-1", at)
	seedChange(t, db, "chg-b", "reg-1", at)

	summaries, err := db.ListRecentChanges(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "chg-b", summaries[0].ChangeID)
	assert.Equal(t, "chg-a", summaries[1].ChangeID)
}

func TestListRecentChangesEmpty(t *testing.T) {
	db := openTestDB(t)

	summaries, err := db.ListRecentChanges(context.Background())
	require.NoError(t, err, "an empty window is a valid state, not an error")
	assert.Empty(t, summaries)
}

func TestGetChangeDetail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedRegulation(t, db, "reg-1", "Fee Schedule")

	detectedAt := testNow.Add(-2 * time.Hour)
	err := db.InsertChange(ctx, &Change{
		ID:           "chg-1",
		RegulationID: "reg-1",
		DetectedAt:   detectedAt,
		OldContent:   "The fee is 5 dollars.",
		NewContent:   "The fee is 10 dollars.",
	})
	require.NoError(t, err)

	detail, err := db.GetChangeDetail(ctx, "chg-1")
	require.NoError(t, err)
	assert.Equal(t, "Fee Schedule", detail.RegulationTitle)
	assert.Equal(t, "The fee is 5 dollars.", detail.OldContent)
	assert.Equal(t, "The fee is 10 dollars.", detail.NewContent)
	assert.True(t, detail.DetectedAt.Equal(detectedAt))
}

func TestGetChangeDetailNotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetChangeDetail(context.Background(), "no-such-change")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMarkReviewedIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedRegulation(t, db, "reg-1", "Rule")
	seedChange(t, db, "chg-1", "reg-1", testNow.Add(-time.Hour))

	require.NoError(t, db.MarkReviewed(ctx, "chg-1"))
	require.NoError(t, db.MarkReviewed(ctx, "chg-1"), "second mark is a no-op")

	summaries, err := db.ListRecentChanges(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Reviewed)
}

func TestMarkReviewedUnknownID(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.MarkReviewed(context.Background(), "no-such-change"))
}

func TestReviewedFlagMonotonic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedRegulation(t, db, "reg-1", "Rule")
	seedChange(t, db, "chg-1", "reg-1", testNow.Add(-time.Hour))

	require.NoError(t, db.MarkReviewed(ctx, "chg-1"))

	// Re-running every workflow mutation leaves the flag set.
	require.NoError(t, db.MarkReviewed(ctx, "chg-1"))
	summaries, err := db.ListRecentChanges(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Reviewed)
}

func TestSnapshotsAndCurrentContents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedRegulation(t, db, "reg-1", "Rule One")
	seedRegulation(t, db, "reg-2", "Rule Two")

	snaps := []*Snapshot{
		{ID: "snap-1", RegulationID: "reg-1", Content: "v1", ContentDigest: "d1", CapturedAt: testNow.Add(-2 * time.Hour)},
		{ID: "snap-2", RegulationID: "reg-1", Content: "v2", ContentDigest: "d2", CapturedAt: testNow.Add(-time.Hour)},
		{ID: "snap-3", RegulationID: "reg-2", Content: "only", ContentDigest: "d3", CapturedAt: testNow.Add(-time.Hour)},
	}
	for _, snap := range snaps {
		require.NoError(t, db.InsertSnapshot(ctx, snap))
	}

	latest, err := db.LatestSnapshot(ctx, "reg-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "snap-2", latest.ID)
	assert.Equal(t, "v2", latest.Content)

	missing, err := db.LatestSnapshot(ctx, "reg-none")
	require.NoError(t, err)
	assert.Nil(t, missing)

	contents, err := db.ListCurrentContents(ctx)
	require.NoError(t, err)
	require.Len(t, contents, 2)

	byID := map[string]string{}
	for _, rc := range contents {
		byID[rc.ID] = rc.Content
	}
	assert.Equal(t, map[string]string{"reg-1": "v2", "reg-2": "only"}, byID)
}

func TestCounts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedRegulation(t, db, "reg-1", "Rule")
	seedChange(t, db, "chg-1", "reg-1", testNow.Add(-time.Hour))
	seedChange(t, db, "chg-2", "reg-1", testNow.Add(-2*time.Hour))
	require.NoError(t, db.MarkReviewed(ctx, "chg-1"))

	regs, err := db.CountRegulations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, regs)

	total, unreviewed, err := db.CountChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, unreviewed)
}
