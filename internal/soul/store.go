// Package soul implements the versioned brand-identity store. The system
// never mutates identity on its own: changes arrive either through the
// operator edit path or by an operator approving a pending proposal.
package soul

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// Store persists the soul document and its change proposals.
type Store struct {
	store storage.Provider
	now   func() time.Time

	mu sync.Mutex
}

// NewStore creates a soul store over the workspace.
func NewStore(store storage.Provider) *Store {
	return &Store{store: store, now: time.Now}
}

// Load returns the soul document. Missing document is ErrNotFound.
func (s *Store) Load() (*models.SoulDoc, error) {
	data, err := s.store.Read(storage.SoulPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("soul: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	var doc models.SoulDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("soul: decode: %w", err)
	}
	return &doc, nil
}

// soulSetter applies one identity field edit and returns the old value.
type soulSetter func(*models.SoulDoc, string) (old string, err error)

// soulSetters is the closed set of identity fields the proposal and
// operator paths may touch.
var soulSetters = map[string]soulSetter{
	"voice": func(d *models.SoulDoc, v string) (string, error) {
		old := d.Voice
		d.Voice = v
		return old, nil
	},
	"audience": func(d *models.SoulDoc, v string) (string, error) {
		old := d.Audience
		d.Audience = v
		return old, nil
	},
	"visual_identity": func(d *models.SoulDoc, v string) (string, error) {
		old := d.VisualIdentity
		d.VisualIdentity = v
		return old, nil
	},
	"creative.video_pacing": func(d *models.SoulDoc, v string) (string, error) {
		if d.Creative == nil {
			d.Creative = &models.CreativeDirection{}
		}
		old := d.Creative.VideoPacing
		d.Creative.VideoPacing = v
		return old, nil
	},
	"creative.video_duration_secs": func(d *models.SoulDoc, v string) (string, error) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", fmt.Errorf("expected integer seconds: %w", err)
		}
		if d.Creative == nil {
			d.Creative = &models.CreativeDirection{}
		}
		old := strconv.Itoa(d.Creative.VideoDurationSecs)
		d.Creative.VideoDurationSecs = n
		return old, nil
	},
}

// KnownField reports whether the identity field is editable.
func KnownField(field string) bool {
	_, ok := soulSetters[field]
	return ok
}

// ApplyChange mutates one identity field, bumps the version, and appends
// exactly one change-log entry. Reached only from operator surfaces and
// proposal approval.
func (s *Store) ApplyChange(field, value, reason string) (*models.SoulDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyChange(field, value, reason)
}

// applyChange is ApplyChange without the lock; the caller must hold s.mu.
func (s *Store) applyChange(field, value, reason string) (*models.SoulDoc, error) {
	setter, ok := soulSetters[field]
	if !ok {
		return nil, fmt.Errorf("soul: %w: unknown field %q", apperr.ErrValidation, field)
	}
	if reason == "" {
		return nil, fmt.Errorf("soul: %w: reason is required", apperr.ErrValidation)
	}

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	old, err := setter(doc, value)
	if err != nil {
		return nil, fmt.Errorf("soul: %w: %s: %v", apperr.ErrValidation, field, err)
	}

	now := s.now()
	doc.Version++
	doc.ModifiedAt = now
	doc.ChangeLog = append(doc.ChangeLog, models.SoulChange{
		Date:     now,
		Field:    field,
		OldValue: old,
		NewValue: value,
		Reason:   reason,
	})

	if err := s.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Bootstrap writes an initial soul document if none exists (operator init
// path).
func (s *Store) Bootstrap(doc *models.SoulDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Exists(storage.SoulPath) {
		return nil
	}
	if doc.Version < 1 {
		doc.Version = 1
	}
	doc.ModifiedAt = s.now()
	return s.save(doc)
}

func (s *Store) save(doc *models.SoulDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("soul: encode: %w", err)
	}
	return s.store.Write(storage.SoulPath, data)
}
