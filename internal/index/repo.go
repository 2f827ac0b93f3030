package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Shawm69/fbigposter/internal/models"
)

// PostRow is the indexed projection of one post record.
type PostRow struct {
	ID             string
	Pipeline       models.Pipeline
	Caption        string
	Pillar         string
	PostedAt       time.Time
	HarvestCount   int
	Viewers        int
	EngagementRate float64
	AvgWatchTime   float64
	Distribution   *float64
}

// RowFromRecord projects a post record onto its indexed columns.
func RowFromRecord(r models.PostRecord) PostRow {
	return PostRow{
		ID:             r.ID,
		Pipeline:       r.Pipeline,
		Caption:        r.Caption,
		Pillar:         r.Pillar,
		PostedAt:       r.PostedAt,
		HarvestCount:   r.Metrics.HarvestCount,
		Viewers:        r.Metrics.Viewers,
		EngagementRate: r.Metrics.EngagementRate,
		AvgWatchTime:   r.Metrics.AvgWatchTime,
		Distribution:   r.Metrics.Distribution,
	}
}

// UpsertPost inserts or replaces one post row.
func (db *DB) UpsertPost(p PostRow) error {
	var dist sql.NullFloat64
	if p.Distribution != nil {
		dist = sql.NullFloat64{Float64: *p.Distribution, Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO posts (id, pipeline, caption, pillar, posted_at, harvest_count, viewers, engagement_rate, avg_watch_time, distribution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pipeline        = excluded.pipeline,
			caption         = excluded.caption,
			pillar          = excluded.pillar,
			posted_at       = excluded.posted_at,
			harvest_count   = excluded.harvest_count,
			viewers         = excluded.viewers,
			engagement_rate = excluded.engagement_rate,
			avg_watch_time  = excluded.avg_watch_time,
			distribution    = excluded.distribution
	`, p.ID, string(p.Pipeline), p.Caption, p.Pillar, p.PostedAt.UTC(), p.HarvestCount, p.Viewers, p.EngagementRate, p.AvgWatchTime, dist)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}
	return nil
}

// DeletePost removes a post row (only used by Sync when reconciling a
// rewritten log; history records themselves are never deleted).
func (db *DB) DeletePost(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}
	return nil
}

// RecentIDs returns the ids of the most recent posts for a pipeline,
// newest first.
func (db *DB) RecentIDs(p models.Pipeline, limit int) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT id FROM posts WHERE pipeline = ? ORDER BY posted_at DESC LIMIT ?
	`, string(p), limit)
	if err != nil {
		return nil, fmt.Errorf("index: recent ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// PillarCounts returns the full-history post count per pillar for a
// pipeline. Used as the observed-share denominator for pillar rotation.
func (db *DB) PillarCounts(p models.Pipeline) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT pillar, COUNT(*) FROM posts WHERE pipeline = ? GROUP BY pillar
	`, string(p))
	if err != nil {
		return nil, fmt.Errorf("index: pillar counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var pillar string
		var n int
		if err := rows.Scan(&pillar, &n); err != nil {
			return nil, err
		}
		out[pillar] = n
	}
	return out, rows.Err()
}

// CountSince returns how many posts a pipeline has made at or after the
// given instant. Used for the daily post-cap check.
func (db *DB) CountSince(p models.Pipeline, since time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM posts WHERE pipeline = ? AND posted_at >= ?
	`, string(p), since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: count since: %w", err)
	}
	return n, nil
}

// Captions returns (id, caption) candidate rows for ingestion matching.
func (db *DB) Captions(p models.Pipeline) ([]PostRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, caption, harvest_count FROM posts WHERE pipeline = ? ORDER BY posted_at DESC
	`, string(p))
	if err != nil {
		return nil, fmt.Errorf("index: captions: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		r := PostRow{Pipeline: p}
		if err := rows.Scan(&r.ID, &r.Caption, &r.HarvestCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllIDs returns every indexed post id.
func (db *DB) AllIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
