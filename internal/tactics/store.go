// Package tactics implements the versioned per-pipeline strategy store.
// Evidence-backed batch updates are the only autonomous mutation path;
// each applied batch bumps the version by exactly 1 and appends one
// learnings entry per field change.
package tactics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// Store persists one tactics document per pipeline.
type Store struct {
	store storage.Provider
	now   func() time.Time

	// mu enforces the no-concurrent-writers rule on the read-modify-write
	// version bump.
	mu sync.Mutex
}

// NewStore creates a tactics store over the workspace.
func NewStore(store storage.Provider) *Store {
	return &Store{store: store, now: time.Now}
}

func docPath(p models.Pipeline) string {
	return path.Join(storage.TacticsDir, string(p)+".json")
}

// Load returns the tactics document for a pipeline. A missing document is
// ErrNotFound: the workspace must have been bootstrapped first.
func (s *Store) Load(p models.Pipeline) (*models.TacticsDoc, error) {
	data, err := s.store.Read(docPath(p))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("tactics: %s: %w", p, apperr.ErrNotFound)
		}
		return nil, err
	}
	var doc models.TacticsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tactics: decode %s: %w", p, err)
	}
	return &doc, nil
}

// validateBatch rejects the whole batch when any update lacks a field,
// value, or evidence, or names an unknown field.
func validateBatch(updates []models.TacticsUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("tactics: %w: empty update batch", apperr.ErrValidation)
	}
	for i, u := range updates {
		err := validation.ValidateStruct(&u,
			validation.Field(&u.Field, validation.Required),
			validation.Field(&u.Evidence, validation.Required),
		)
		if err != nil {
			return fmt.Errorf("tactics: %w: update %d: %v", apperr.ErrValidation, i, err)
		}
		if u.Value == nil {
			return fmt.Errorf("tactics: %w: update %d: value is required", apperr.ErrValidation, i)
		}
		if !KnownField(u.Field) {
			return fmt.Errorf("tactics: %w: update %d: unknown field %q", apperr.ErrValidation, i, u.Field)
		}
	}
	return nil
}

// ApplyUpdates applies an evidence-backed batch to one pipeline's document:
// fields set in batch order, one learnings entry per update (list trimmed
// to the most recent 20), version incremented by exactly 1 for the whole
// batch, document persisted with a single atomic replace. Returns the new
// version and the field paths changed.
func (s *Store) ApplyUpdates(p models.Pipeline, updates []models.TacticsUpdate) (int, []string, error) {
	if err := validateBatch(updates); err != nil {
		return 0, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(p)
	if err != nil {
		return 0, nil, err
	}

	now := s.now()
	fields := make([]string, 0, len(updates))
	for i, u := range updates {
		if err := setters[u.Field](doc, u.Value); err != nil {
			return 0, nil, fmt.Errorf("tactics: %w: update %d (%s): %v", apperr.ErrValidation, i, u.Field, err)
		}
		insight := u.Insight
		if insight == "" {
			insight = fmt.Sprintf("updated %s", u.Field)
		}
		doc.Learnings = append(doc.Learnings, models.Learning{
			Date:     now,
			Insight:  insight,
			Evidence: u.Evidence,
			Field:    u.Field,
		})
		fields = append(fields, u.Field)
	}
	if excess := len(doc.Learnings) - models.MaxLearnings; excess > 0 {
		doc.Learnings = doc.Learnings[excess:]
	}

	doc.Version++
	doc.UpdatedAt = now

	if err := s.save(p, doc); err != nil {
		return 0, nil, err
	}
	return doc.Version, fields, nil
}

// Bootstrap writes an initial document for a pipeline if none exists.
// This is the operator calibration path, distinct from evidence-driven
// learning; it is a no-op when the document is already present.
func (s *Store) Bootstrap(p models.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Exists(docPath(p)) {
		return nil
	}
	doc := &models.TacticsDoc{
		Pipeline:  p,
		Version:   1,
		UpdatedAt: s.now(),
	}
	return s.save(p, doc)
}

func (s *Store) save(p models.Pipeline, doc *models.TacticsDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("tactics: encode %s: %w", p, err)
	}
	return s.store.Write(docPath(p), data)
}
