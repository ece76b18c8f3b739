// Package store is the authoritative record of regulations, their content
// snapshots, and the changes detected between them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound reports that a requested change id does not exist. It is
// distinct from retrieval errors: callers check it with errors.Is.
var ErrNotFound = errors.New("change not found")

// DefaultWindow is the trailing reporting window used by ListRecentChanges.
const DefaultWindow = 7 * 24 * time.Hour

// DB wraps SQLite database operations for the change store.
type DB struct {
	db     *sql.DB
	now    func() time.Time
	window time.Duration
}

// Open opens or creates a SQLite change store
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	store := &DB{db: db, now: time.Now, window: DefaultWindow}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// SetClock overrides the time source used to compute the reporting window
// boundary. Tests use this to pin "now".
func (d *DB) SetClock(now func() time.Time) {
	d.now = now
}

// SetWindow overrides the reporting window length.
func (d *DB) SetWindow(window time.Duration) {
	d.window = window
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates tables if they don't exist
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS regulations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		regulation_id TEXT NOT NULL REFERENCES regulations(id),
		content TEXT NOT NULL,
		content_digest TEXT NOT NULL,
		captured_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS changes (
		id TEXT PRIMARY KEY,
		regulation_id TEXT NOT NULL REFERENCES regulations(id),
		detected_at TIMESTAMP NOT NULL,
		old_content TEXT NOT NULL,
		new_content TEXT NOT NULL,
		reviewed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_regulation ON snapshots(regulation_id, captured_at);
	CREATE INDEX IF NOT EXISTS idx_changes_detected ON changes(detected_at);
	CREATE INDEX IF NOT EXISTS idx_changes_regulation ON changes(regulation_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// UpsertRegulation inserts or updates a regulation's title and URL.
func (d *DB) UpsertRegulation(ctx context.Context, reg *Regulation) error {
	query := `
	INSERT INTO regulations (id, title, url) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		url = excluded.url
	`
	_, err := d.db.ExecContext(ctx, query, reg.ID, reg.Title, reg.URL)
	return err
}

// GetRegulation retrieves a regulation by id, or nil if it does not exist.
func (d *DB) GetRegulation(ctx context.Context, id string) (*Regulation, error) {
	reg := &Regulation{}
	err := d.db.QueryRowContext(ctx,
		"SELECT id, title, url FROM regulations WHERE id = ?", id,
	).Scan(&reg.ID, &reg.Title, &reg.URL)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// LatestSnapshot retrieves the most recent snapshot for a regulation, or nil
// if none has been recorded yet.
func (d *DB) LatestSnapshot(ctx context.Context, regulationID string) (*Snapshot, error) {
	snap := &Snapshot{}
	query := `
	SELECT id, regulation_id, content, content_digest, captured_at
	FROM snapshots
	WHERE regulation_id = ?
	ORDER BY captured_at DESC, id DESC
	LIMIT 1
	`
	err := d.db.QueryRowContext(ctx, query, regulationID).Scan(
		&snap.ID, &snap.RegulationID, &snap.Content, &snap.ContentDigest, &snap.CapturedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// InsertSnapshot appends a snapshot. Snapshots are never updated or deleted.
func (d *DB) InsertSnapshot(ctx context.Context, snap *Snapshot) error {
	query := `
	INSERT INTO snapshots (id, regulation_id, content, content_digest, captured_at)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := d.db.ExecContext(ctx, query,
		snap.ID, snap.RegulationID, snap.Content, snap.ContentDigest, snap.CapturedAt,
	)
	return err
}

// InsertChange records a detected change. The content pair is immutable after
// this point.
func (d *DB) InsertChange(ctx context.Context, change *Change) error {
	query := `
	INSERT INTO changes (id, regulation_id, detected_at, old_content, new_content, reviewed)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.ExecContext(ctx, query,
		change.ID, change.RegulationID, change.DetectedAt,
		change.OldContent, change.NewContent, change.Reviewed,
	)
	return err
}

// ListRecentChanges retrieves summaries of all changes detected inside the
// reporting window, most recent first. Equal timestamps fall back to change
// id descending so the order is stable. An empty result is a valid state,
// not an error.
func (d *DB) ListRecentChanges(ctx context.Context) ([]ChangeSummary, error) {
	since := d.now().Add(-d.window)
	query := `
	SELECT c.id, c.regulation_id, r.title, r.url, c.detected_at, c.reviewed
	FROM changes c
	JOIN regulations r ON r.id = c.regulation_id
	WHERE c.detected_at >= ?
	ORDER BY c.detected_at DESC, c.id DESC
	`

	rows, err := d.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer rows.Close()

	var summaries []ChangeSummary
	for rows.Next() {
		var s ChangeSummary
		err := rows.Scan(
			&s.ChangeID, &s.RegulationID, &s.RegulationTitle,
			&s.RegulationURL, &s.DetectedAt, &s.Reviewed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetChangeDetail retrieves one change's full old/new content pair together
// with its regulation's metadata. Returns ErrNotFound for unknown ids.
func (d *DB) GetChangeDetail(ctx context.Context, changeID string) (*ChangeDetail, error) {
	detail := &ChangeDetail{}
	query := `
	SELECT c.id, r.title, r.url, c.detected_at, c.old_content, c.new_content
	FROM changes c
	JOIN regulations r ON r.id = c.regulation_id
	WHERE c.id = ?
	`
	err := d.db.QueryRowContext(ctx, query, changeID).Scan(
		&detail.ChangeID, &detail.RegulationTitle, &detail.RegulationURL,
		&detail.DetectedAt, &detail.OldContent, &detail.NewContent,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get change %s: %w", changeID, err)
	}
	return detail, nil
}

// MarkReviewed sets a change's reviewed flag to true. The transition is
// idempotent and monotonic: marking an already-reviewed change is a no-op,
// and nothing ever writes the flag back to false.
func (d *DB) MarkReviewed(ctx context.Context, changeID string) error {
	_, err := d.db.ExecContext(ctx,
		"UPDATE changes SET reviewed = 1 WHERE id = ?", changeID,
	)
	if err != nil {
		return fmt.Errorf("mark reviewed %s: %w", changeID, err)
	}
	return nil
}

// ListCurrentContents returns every regulation paired with its latest
// snapshot content, for search indexing.
func (d *DB) ListCurrentContents(ctx context.Context) ([]*RegulationContent, error) {
	query := `
	SELECT r.id, r.title, r.url, s.content
	FROM regulations r
	JOIN snapshots s ON s.id = (
		SELECT id FROM snapshots
		WHERE regulation_id = r.id
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	)
	`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list current contents: %w", err)
	}
	defer rows.Close()

	var contents []*RegulationContent
	for rows.Next() {
		rc := &RegulationContent{}
		if err := rows.Scan(&rc.ID, &rc.Title, &rc.URL, &rc.Content); err != nil {
			return nil, fmt.Errorf("scan regulation content: %w", err)
		}
		contents = append(contents, rc)
	}

	return contents, rows.Err()
}

// CountRegulations returns the number of tracked regulations.
func (d *DB) CountRegulations(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM regulations").Scan(&count)
	return count, err
}

// CountChanges returns total and unreviewed change counts.
func (d *DB) CountChanges(ctx context.Context) (total, unreviewed int, err error) {
	err = d.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE reviewed = 0) FROM changes",
	).Scan(&total, &unreviewed)
	return total, unreviewed, err
}
