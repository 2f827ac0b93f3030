package index

import (
	"time"

	"github.com/Shawm69/fbigposter/internal/models"
)

// PostIndex defines the interface for post indexing operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type PostIndex interface {
	UpsertPost(p PostRow) error
	DeletePost(id string) error
	RecentIDs(p models.Pipeline, limit int) ([]string, error)
	PillarCounts(p models.Pipeline) (map[string]int, error)
	CountSince(p models.Pipeline, since time.Time) (int, error)
	Captions(p models.Pipeline) ([]PostRow, error)
	AllIDs() (map[string]struct{}, error)
	Close() error
}

// Verify *DB satisfies PostIndex at compile time.
var _ PostIndex = (*DB)(nil)
