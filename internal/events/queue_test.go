package events

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
	"github.com/Shawm69/fbigposter/internal/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishAndConsume(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	q := NewQueue(store, discard(), 10)

	q.Publish(TypeCycleStarted, "", "nightly cycle started")
	q.Publish(TypeTacticsUpdated, models.PipelineReel, "reel tactics v2")

	if q.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", q.Pending())
	}
	got := q.Consume()
	if len(got) != 2 {
		t.Fatalf("consumed = %d", len(got))
	}
	if got[0].Type != TypeCycleStarted || got[1].Pipeline != models.PipelineReel {
		t.Errorf("events = %+v", got)
	}

	// Consume drains.
	if again := q.Consume(); len(again) != 0 {
		t.Errorf("second consume = %d events, want 0", len(again))
	}
	if again := q.Consume(); again == nil {
		t.Error("consume must return an empty slice, not nil")
	}
}

func TestPublishDropsOldestAtCapacity(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	q := NewQueue(store, discard(), 3)

	for i := 0; i < 5; i++ {
		q.Publish(TypePostRecorded, models.PipelineImage, fmt.Sprintf("post %d", i))
	}

	if q.Pending() != 3 {
		t.Fatalf("pending = %d, want capacity 3", q.Pending())
	}
	got := q.Consume()
	if got[0].Message != "post 2" || got[2].Message != "post 4" {
		t.Errorf("kept window = %+v, want the newest three", got)
	}
}

func TestReplayTailFromDurableLog(t *testing.T) {
	_, store := testutil.TestWorkspace(t)

	q := NewQueue(store, discard(), 3)
	for i := 0; i < 5; i++ {
		q.Publish(TypeIngestApplied, "", fmt.Sprintf("batch %d", i))
	}

	// A fresh queue over the same workspace sees the log tail, bounded by
	// its own capacity.
	q2 := NewQueue(store, discard(), 3)
	got := q2.Consume()
	if len(got) != 3 {
		t.Fatalf("replayed = %d, want 3", len(got))
	}
	if got[0].Message != "batch 2" || got[2].Message != "batch 4" {
		t.Errorf("replayed tail = %+v", got)
	}
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	q := NewQueue(store, discard(), 10)
	q.Publish(TypeDocChanged, "", "soul.json")

	if err := store.Append(storage.EventLogPath, []byte("{not json")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	q2 := NewQueue(store, discard(), 10)
	if got := q2.Consume(); len(got) != 1 {
		t.Errorf("replayed = %d, want 1", len(got))
	}
}

func TestMissingLogIsEmptyQueue(t *testing.T) {
	_, store := testutil.TestWorkspace(t)
	q := NewQueue(store, discard(), 10)
	if q.Pending() != 0 {
		t.Errorf("pending = %d, want 0", q.Pending())
	}
}
