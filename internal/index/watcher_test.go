package index

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_PostLogResync(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// The log exists before the watcher starts, as after any recorded post.
	if err := os.MkdirAll(filepath.Join(root, filepath.Dir(storage.PostLogPath)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, storage.PostLogPath), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Watch(ctx, db, store, root, logger, nil) }()
	time.Sleep(100 * time.Millisecond)

	rec := models.PostRecord{
		ID: "watched-1", Pipeline: models.PipelineReel,
		Caption: "watched post", Pillar: "recipes", PostedAt: time.Now(),
	}
	line, _ := json.Marshal(rec)
	if err := store.Append(storage.PostLogPath, line); err != nil {
		t.Fatalf("Append: %v", err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		ids, err := db.AllIDs()
		if err != nil {
			return false
		}
		_, ok := ids["watched-1"]
		return ok
	}, "appended post not resynced into the index")
}

func TestWatcher_DocumentChangeCallback(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var changed []string
	go func() {
		_ = Watch(ctx, db, store, root, logger, func(name string) {
			mu.Lock()
			changed = append(changed, name)
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, storage.ConstitutionPath), []byte(`{"version":2}`), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, name := range changed {
			if name == storage.ConstitutionPath {
				return true
			}
		}
		return false
	}, "constitution edit did not invoke the document callback")
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, db, store, root, logger, nil) }()
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
