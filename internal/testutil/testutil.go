// Package testutil provides shared test helpers for setting up workspaces
// and databases.
package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Shawm69/fbigposter/internal/index"
	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "fbig-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory with a storage.Provider.
func TestWorkspace(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Post builds an analyzable post record with raw counters filled in. n
// seeds the id and caption so records stay distinct. Callers that need
// derived rates normalize after mutating.
func Post(p models.Pipeline, n int, postedAt time.Time, mutate func(*models.PostRecord)) models.PostRecord {
	rec := models.PostRecord{
		ID:        fmt.Sprintf("post-%s-%03d", p, n),
		Platform:  "facebook",
		Pipeline:  p,
		CreatedAt: postedAt,
		PostedAt:  postedAt,
		Caption:   fmt.Sprintf("caption %03d", n),
		Pillar:    models.PillarUncategorized,
		Metrics: models.Metrics{
			Views:        1200,
			Viewers:      1000,
			Engagement:   50,
			Comments:     10,
			Impressions:  2000,
			WatchTimeMs:  12_000_000,
			HarvestCount: 1,
		},
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}
