// Package constitution implements the rules document store. The document
// is read-only to every automated component; only the operator replace
// path may change it.
package constitution

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// Store reads and (operator-only) replaces the constitution document.
type Store struct {
	store storage.Provider
	idx   index.PostIndex
	loc   *time.Location
	now   func() time.Time
}

// NewStore creates a constitution store. loc is the workspace timezone
// used for the calendar-day post-cap window.
func NewStore(store storage.Provider, idx index.PostIndex, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{store: store, idx: idx, loc: loc, now: time.Now}
}

// Load returns the constitution. Missing document is ErrNotFound.
func (s *Store) Load() (*models.ConstitutionDoc, error) {
	data, err := s.store.Read(storage.ConstitutionPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("constitution: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	var doc models.ConstitutionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("constitution: decode: %w", err)
	}
	return &doc, nil
}

// OperatorReplace atomically replaces the constitution. This is the only
// write path; it is wired exclusively to operator-authenticated surfaces
// and is never called by the orchestrator or analyzers.
func (s *Store) OperatorReplace(doc *models.ConstitutionDoc) error {
	if doc == nil {
		return fmt.Errorf("constitution: %w: document is required", apperr.ErrValidation)
	}
	if doc.Version < 1 {
		doc.Version = 1
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("constitution: encode: %w", err)
	}
	return s.store.Write(storage.ConstitutionPath, data)
}

// Bootstrap writes an initial constitution if none exists (operator init
// path).
func (s *Store) Bootstrap(doc *models.ConstitutionDoc) error {
	if s.store.Exists(storage.ConstitutionPath) {
		return nil
	}
	return s.OperatorReplace(doc)
}

// Violation is one constitution breach found during a pre-publish check.
type Violation struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// Check validates a candidate caption and hashtag set for a pipeline
// against the constitution: banned topics, red lines, forbidden hashtags,
// required disclosures, and the per-pipeline daily post cap.
func (s *Store) Check(p models.Pipeline, caption string, hashtags []string) ([]Violation, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}

	var out []Violation
	lower := strings.ToLower(caption)

	for _, topic := range doc.BannedTopics {
		if topic != "" && strings.Contains(lower, strings.ToLower(topic)) {
			out = append(out, Violation{Rule: "banned_topic", Detail: topic})
		}
	}
	for _, line := range doc.RedLines {
		if line != "" && strings.Contains(lower, strings.ToLower(line)) {
			out = append(out, Violation{Rule: "red_line", Detail: line})
		}
	}

	policy := doc.PolicyFor(p)

	tagSet := make(map[string]struct{}, len(hashtags))
	for _, t := range hashtags {
		tagSet[strings.ToLower(strings.TrimPrefix(t, "#"))] = struct{}{}
	}
	for _, forbidden := range policy.ForbiddenHashtags {
		if _, hit := tagSet[strings.ToLower(strings.TrimPrefix(forbidden, "#"))]; hit {
			out = append(out, Violation{Rule: "forbidden_hashtag", Detail: forbidden})
		}
	}

	for _, disclosure := range policy.RequiredDisclosures {
		if disclosure != "" && !strings.Contains(lower, strings.ToLower(disclosure)) {
			out = append(out, Violation{Rule: "missing_disclosure", Detail: disclosure})
		}
	}

	if policy.DailyPostCap > 0 {
		dayStart := s.dayStart()
		n, err := s.idx.CountSince(p, dayStart)
		if err != nil {
			return nil, err
		}
		if n >= policy.DailyPostCap {
			out = append(out, Violation{
				Rule:   "daily_post_cap",
				Detail: fmt.Sprintf("%d of %d posts already published today", n, policy.DailyPostCap),
			})
		}
	}

	return out, nil
}

func (s *Store) dayStart() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
