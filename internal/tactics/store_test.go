package tactics

import (
	"errors"
	"testing"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
	"github.com/Shawm69/fbigposter/internal/testutil"
)

func bootstrapped(t *testing.T) (*Store, storage.Provider) {
	t.Helper()
	_, store := testutil.TestWorkspace(t)
	s := NewStore(store)
	for _, p := range models.AllPipelines {
		if err := s.Bootstrap(p); err != nil {
			t.Fatalf("Bootstrap %s: %v", p, err)
		}
	}
	return s, store
}

func update(field string, value any) models.TacticsUpdate {
	return models.TacticsUpdate{Field: field, Value: value, Evidence: "n=12 posts over 30 days"}
}

func TestLoadMissingDoc(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	s := NewStore(store)
	_, err := s.Load(models.PipelineReel)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestApplyUpdatesBumpsVersionOnce(t *testing.T) {
	s, _ := bootstrapped(t)

	version, fields, err := s.ApplyUpdates(models.PipelineReel, []models.TacticsUpdate{
		update("caption.tone", "warm"),
		update("hashtags.optimal_count", 5),
		update("posting.best_slots", []int{9, 21}),
	})
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2 (one bump per batch)", version)
	}
	if len(fields) != 3 {
		t.Errorf("fields = %v", fields)
	}

	doc, _ := s.Load(models.PipelineReel)
	if doc.Caption.Tone != "warm" || doc.Hashtags.OptimalCount != 5 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Posting.BestSlots) != 2 || doc.Posting.BestSlots[0] != 9 {
		t.Errorf("best slots = %v", doc.Posting.BestSlots)
	}
	if len(doc.Learnings) != 3 {
		t.Errorf("learnings = %d, want one per update", len(doc.Learnings))
	}
}

func TestApplyUpdatesMonotonicVersions(t *testing.T) {
	s, _ := bootstrapped(t)

	prev := 1
	for i := 0; i < 4; i++ {
		version, _, err := s.ApplyUpdates(models.PipelineImage, []models.TacticsUpdate{
			update("caption.tone", "warm"),
		})
		if err != nil {
			t.Fatalf("ApplyUpdates: %v", err)
		}
		if version != prev+1 {
			t.Fatalf("version = %d after %d, want %d", version, prev, prev+1)
		}
		prev = version
	}
}

func TestApplyUpdatesRejectsBatch(t *testing.T) {
	s, store := bootstrapped(t)
	before, _ := store.Read("tactics/reel.json")

	cases := []struct {
		name  string
		batch []models.TacticsUpdate
	}{
		{"empty batch", nil},
		{"missing evidence", []models.TacticsUpdate{{Field: "caption.tone", Value: "warm"}}},
		{"missing value", []models.TacticsUpdate{{Field: "caption.tone", Evidence: "n=12"}}},
		{"unknown field", []models.TacticsUpdate{update("caption.emoji_density", "high")}},
		{"one bad entry rejects all", []models.TacticsUpdate{
			update("caption.tone", "warm"),
			{Field: "caption.cta", Value: "follow"},
		}},
		{"type mismatch", []models.TacticsUpdate{update("hashtags.optimal_count", "five")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.ApplyUpdates(models.PipelineReel, tc.batch)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	// Nothing was applied: the document bytes are untouched.
	after, _ := store.Read("tactics/reel.json")
	if string(before) != string(after) {
		t.Error("rejected batches must not change the document")
	}
	doc, _ := s.Load(models.PipelineReel)
	if doc.Version != 1 {
		t.Errorf("version = %d, want 1", doc.Version)
	}
}

func TestLearningsCapped(t *testing.T) {
	s, _ := bootstrapped(t)

	for i := 0; i < models.MaxLearnings+10; i++ {
		if _, _, err := s.ApplyUpdates(models.PipelineReel, []models.TacticsUpdate{
			update("caption.tone", "warm"),
		}); err != nil {
			t.Fatalf("ApplyUpdates: %v", err)
		}
	}

	doc, _ := s.Load(models.PipelineReel)
	if len(doc.Learnings) != models.MaxLearnings {
		t.Errorf("learnings = %d, want %d", len(doc.Learnings), models.MaxLearnings)
	}
}

func TestPipelineIsolation(t *testing.T) {
	s, store := bootstrapped(t)
	imageBefore, _ := store.Read("tactics/image.json")
	storyBefore, _ := store.Read("tactics/story.json")

	if _, _, err := s.ApplyUpdates(models.PipelineReel, []models.TacticsUpdate{
		update("visual.pacing", "loop_friendly"),
	}); err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}

	imageAfter, _ := store.Read("tactics/image.json")
	storyAfter, _ := store.Read("tactics/story.json")
	if string(imageBefore) != string(imageAfter) {
		t.Error("image tactics changed by a reel update")
	}
	if string(storyBefore) != string(storyAfter) {
		t.Error("story tactics changed by a reel update")
	}
}

func TestBootstrapIdempotent(t *testing.T) {
	s, store := bootstrapped(t)
	_, _, _ = s.ApplyUpdates(models.PipelineReel, []models.TacticsUpdate{update("caption.tone", "warm")})
	before, _ := store.Read("tactics/reel.json")

	if err := s.Bootstrap(models.PipelineReel); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	after, _ := store.Read("tactics/reel.json")
	if string(before) != string(after) {
		t.Error("second bootstrap overwrote a live document")
	}
}

func TestMutableFieldsClosedSet(t *testing.T) {
	fields := MutableFields()
	if len(fields) != len(setters) {
		t.Fatalf("len = %d, want %d", len(fields), len(setters))
	}
	for _, f := range fields {
		if !KnownField(f) {
			t.Errorf("listed field %q not known", f)
		}
	}
	if KnownField("soul.voice") {
		t.Error("identity fields must not be reachable through tactics setters")
	}
}

func TestSettersAcceptGenericJSON(t *testing.T) {
	s, _ := bootstrapped(t)

	// Tool surfaces deliver JSON-decoded values: []any and float64.
	_, _, err := s.ApplyUpdates(models.PipelineReel, []models.TacticsUpdate{
		update("posting.best_slots", []any{float64(9), float64(21)}),
		update("visual.prompt_keywords", []any{"sunrise", "macro"}),
		update("visual.duration_secs", float64(34)),
		update("pillars", []any{map[string]any{"name": "recipes", "post_count": float64(4)}}),
	})
	if err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}

	doc, _ := s.Load(models.PipelineReel)
	if doc.Visual.DurationSecs != 34 {
		t.Errorf("duration = %d", doc.Visual.DurationSecs)
	}
	if len(doc.Pillars) != 1 || doc.Pillars[0].Name != "recipes" {
		t.Errorf("pillars = %+v", doc.Pillars)
	}
}
