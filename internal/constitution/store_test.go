package constitution

import (
	"errors"
	"testing"
	"time"

	"github.com/Shawm69/fbigposter/internal/apperr"
	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/testutil"
)

func testDoc() *models.ConstitutionDoc {
	return &models.ConstitutionDoc{
		Version:      1,
		BannedTopics: []string{"politics"},
		RedLines:     []string{"miracle cure"},
		Policies: map[models.Pipeline]models.ContentPolicy{
			models.PipelineReel: {
				DailyPostCap:        2,
				RequiredDisclosures: []string{"#ad"},
				ForbiddenHashtags:   []string{"#gambling"},
			},
		},
	}
}

func newStore(t *testing.T) (*Store, *index.DB) {
	t.Helper()
	_, store := testutil.TestWorkspace(t)
	db := testutil.TestDB(t)
	s := NewStore(store, db, time.UTC)
	if err := s.OperatorReplace(testDoc()); err != nil {
		t.Fatalf("OperatorReplace: %v", err)
	}
	return s, db
}

func TestLoadMissing(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	s := NewStore(store, testutil.TestDB(t), time.UTC)
	if _, err := s.Load(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckViolations(t *testing.T) {
	s, _ := newStore(t)

	cases := []struct {
		name     string
		caption  string
		hashtags []string
		want     []string // expected rules, in order
	}{
		{"clean", "A calm sunday #ad", nil, nil},
		{"banned topic", "my take on politics today #ad", nil, []string{"banned_topic"}},
		{"red line", "this Miracle Cure works #ad", nil, []string{"red_line"}},
		{"forbidden hashtag", "fine text #ad", []string{"#Gambling"}, []string{"forbidden_hashtag"}},
		{"missing disclosure", "fine text", nil, []string{"missing_disclosure"}},
		{"stacked", "politics and a miracle cure", []string{"gambling"}, []string{"banned_topic", "red_line", "forbidden_hashtag", "missing_disclosure"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Check(models.PipelineReel, tc.caption, tc.hashtags)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("violations = %+v, want rules %v", got, tc.want)
			}
			for i, rule := range tc.want {
				if got[i].Rule != rule {
					t.Errorf("violation %d = %q, want %q", i, got[i].Rule, rule)
				}
			}
		})
	}
}

func TestCheckDailyPostCap(t *testing.T) {
	s, db := newStore(t)
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		rec := testutil.Post(models.PipelineReel, i, now, nil)
		if err := db.UpsertPost(index.RowFromRecord(rec)); err != nil {
			t.Fatalf("UpsertPost: %v", err)
		}
	}

	got, err := s.Check(models.PipelineReel, "another one #ad", nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	found := false
	for _, v := range got {
		if v.Rule == "daily_post_cap" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected daily_post_cap violation, got %+v", got)
	}
}

func TestCheckUnconfiguredPipeline(t *testing.T) {
	s, _ := newStore(t)
	// No image policy: only the global rules apply.
	got, err := s.Check(models.PipelineImage, "a fine caption", []string{"#gambling"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("violations = %+v, want none", got)
	}
}

func TestOperatorReplaceIsOnlyWritePath(t *testing.T) {
	s, _ := newStore(t)

	next := testDoc()
	next.Version = 2
	next.BannedTopics = append(next.BannedTopics, "crypto")
	if err := s.OperatorReplace(next); err != nil {
		t.Fatalf("OperatorReplace: %v", err)
	}

	doc, _ := s.Load()
	if doc.Version != 2 || len(doc.BannedTopics) != 2 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestBootstrapDoesNotOverwrite(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Bootstrap(&models.ConstitutionDoc{Version: 9}); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	doc, _ := s.Load()
	if doc.Version != 1 {
		t.Errorf("bootstrap overwrote existing document: version = %d", doc.Version)
	}
}
