// Package history implements the append-only post record log. Records are
// appended at publish time, mutated in place (by id) when metrics are
// ingested, and never deleted. A SQLite index mirrors the log for keyed
// queries; the log itself is the source of truth.
package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// Store coordinates the JSONL log and the post index.
type Store struct {
	store storage.Provider
	idx   index.PostIndex

	// mu serializes read-modify-write cycles on the log file. Exactly one
	// orchestrator instance is expected per cycle, but the no-concurrent-
	// writers rule is still enforced here rather than assumed.
	mu sync.Mutex
}

// NewStore creates a history store over the given workspace and index.
func NewStore(store storage.Provider, idx index.PostIndex) *Store {
	return &Store{store: store, idx: idx}
}

// Append adds a new post record to the log and indexes it.
func (s *Store) Append(rec models.PostRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("history: %w: record id is required", apperr.ErrValidation)
	}
	if !rec.Pipeline.Valid() {
		return fmt.Errorf("history: %w: unknown pipeline %q", apperr.ErrValidation, rec.Pipeline)
	}
	if rec.Pillar == "" {
		rec.Pillar = models.PillarUncategorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: marshal record: %w", err)
	}
	if err := s.store.Append(storage.PostLogPath, line); err != nil {
		return err
	}
	return s.idx.UpsertPost(index.RowFromRecord(rec))
}

// All returns every record in log order (oldest first).
func (s *Store) All() ([]models.PostRecord, error) {
	lines, err := s.store.ReadLines(storage.PostLogPath)
	if err != nil {
		return nil, err
	}
	out := make([]models.PostRecord, 0, len(lines))
	for _, line := range lines {
		var rec models.PostRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // malformed lines are skipped, not fatal
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record by id.
func (s *Store) Get(id string) (*models.PostRecord, error) {
	recs, err := s.All()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i], nil
		}
	}
	return nil, fmt.Errorf("history: record %s: %w", id, apperr.ErrNotFound)
}

// List returns all records for a pipeline posted at or after since, in log
// order. A zero since returns the full pipeline history.
func (s *Store) List(p models.Pipeline, since time.Time) ([]models.PostRecord, error) {
	recs, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []models.PostRecord
	for _, r := range recs {
		if r.Pipeline != p {
			continue
		}
		if !since.IsZero() && r.PostedAt.Before(since) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Recent returns the most recent limit records for a pipeline, newest
// first, resolved through the index.
func (s *Store) Recent(p models.Pipeline, limit int) ([]models.PostRecord, error) {
	ids, err := s.idx.RecentIDs(p, limit)
	if err != nil {
		return nil, err
	}
	recs, err := s.All()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.PostRecord, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	out := make([]models.PostRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateMetrics applies mutate to the record with the given id and
// persists the whole log with a single atomic replace, so an interrupted
// update never leaves a partially written log visible.
func (s *Store) UpdateMetrics(id string, mutate func(*models.Metrics)) (*models.PostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.All()
	if err != nil {
		return nil, err
	}

	var updated *models.PostRecord
	for i := range recs {
		if recs[i].ID == id {
			mutate(&recs[i].Metrics)
			updated = &recs[i]
			break
		}
	}
	if updated == nil {
		return nil, fmt.Errorf("history: record %s: %w", id, apperr.ErrNotFound)
	}

	if err := s.rewrite(recs); err != nil {
		return nil, err
	}
	if err := s.idx.UpsertPost(index.RowFromRecord(*updated)); err != nil {
		return nil, err
	}
	return updated, nil
}

// rewrite replaces the full log file atomically.
func (s *Store) rewrite(recs []models.PostRecord) error {
	var buf []byte
	for _, r := range recs {
		line, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("history: marshal record: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return s.store.Write(storage.PostLogPath, buf)
}
