// Package events implements the background notification feed: a bounded
// in-memory queue over an append-only durable log. The tail of the log is
// replayed at startup so unconsumed events survive restarts.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Shawm69/fbigposter/internal/models"
	"github.com/Shawm69/fbigposter/internal/storage"
)

// DefaultCapacity bounds the in-memory queue when config does not say
// otherwise.
const DefaultCapacity = 100

// Event is one notification record.
type Event struct {
	Time     time.Time       `json:"time"`
	Type     string          `json:"type"`
	Pipeline models.Pipeline `json:"pipeline,omitempty"`
	Message  string          `json:"message"`
}

// Event types.
const (
	TypeCycleStarted   = "cycle.started"
	TypeCycleFinished  = "cycle.finished"
	TypePipelineFailed = "pipeline.failed"
	TypeTacticsUpdated = "tactics.updated"
	TypeIngestApplied  = "ingest.applied"
	TypePostRecorded   = "post.recorded"
	TypeDocChanged     = "doc.changed"
	TypeProposalRaised = "proposal.raised"
)

// Queue is the bounded event queue. Publish never blocks: when the queue
// is full the oldest unconsumed event is dropped from memory (it remains
// in the durable log).
type Queue struct {
	store    storage.Provider
	logger   *slog.Logger
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	pending []Event
}

// NewQueue creates a queue and replays the tail of the durable log into
// memory.
func NewQueue(store storage.Provider, logger *slog.Logger, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{store: store, logger: logger, capacity: capacity, now: time.Now}
	q.replay()
	return q
}

// replay loads the last capacity events from the log.
func (q *Queue) replay() {
	lines, err := q.store.ReadLines(storage.EventLogPath)
	if err != nil {
		q.logger.Warn("events: replay failed", slog.String("error", err.Error()))
		return
	}
	if len(lines) > q.capacity {
		lines = lines[len(lines)-q.capacity:]
	}
	for _, line := range lines {
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		q.pending = append(q.pending, ev)
	}
}

// Publish appends the event to the durable log and the in-memory queue.
func (q *Queue) Publish(typ string, pipeline models.Pipeline, message string) {
	ev := Event{Time: q.now(), Type: typ, Pipeline: pipeline, Message: message}

	line, err := json.Marshal(ev)
	if err == nil {
		if err := q.store.Append(storage.EventLogPath, line); err != nil {
			q.logger.Warn("events: append failed", slog.String("error", err.Error()))
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, ev)
	if len(q.pending) > q.capacity {
		q.pending = q.pending[len(q.pending)-q.capacity:]
	}
}

// Consume returns all pending events and marks them consumed.
func (q *Queue) Consume() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

// Pending returns the number of unconsumed events.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
