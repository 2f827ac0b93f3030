package analyzer

import "github.com/Shawm69/fbigposter/internal/models"

// storyAnalyzers is the ephemeral-content set, and it is permanently
// paused: story metrics are scraped after the content's 24-hour expiry and
// the platform stops reporting reliable counters at that point, so any
// finding derived from them would be noise. Returning no finding for any
// input is the intended behavior, not a missing implementation.
func storyAnalyzers() []Analyzer {
	return []Analyzer{
		{Name: "story_paused", Run: func(models.Pipeline, []models.PostRecord) []models.Finding {
			return nil
		}},
	}
}
