package index

import (
	"encoding/json"
	"log/slog"

	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// Sync replays the post history log and brings the index up to date:
//   - every log record is upserted (the log line is authoritative)
//   - index rows whose ids no longer appear in the log are removed
func Sync(db PostIndex, store storage.Provider, logger *slog.Logger) error {
	lines, err := store.ReadLines(storage.PostLogPath)
	if err != nil {
		return err
	}

	indexed, err := db.AllIDs()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		var rec models.PostRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			logger.Warn("sync: skip malformed log line", slog.String("error", err.Error()))
			continue
		}
		if rec.ID == "" {
			continue
		}
		seen[rec.ID] = struct{}{}
		if err := db.UpsertPost(RowFromRecord(rec)); err != nil {
			logger.Warn("sync: upsert failed", slog.String("id", rec.ID), slog.String("error", err.Error()))
		}
	}

	// Remove stale rows.
	for id := range indexed {
		if _, ok := seen[id]; !ok {
			if err := db.DeletePost(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
