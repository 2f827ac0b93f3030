package models

// QualifyingConfidence is the floor below which a finding is informational
// only and never becomes a tactics update.
const QualifyingConfidence = 0.5

// Finding is a statistically gated observation produced by one analyzer.
type Finding struct {
	Category   string  `json:"category"`
	Insight    string  `json:"insight"`
	Evidence   string  `json:"evidence"` // cites sample size and a concrete comparison
	Confidence float64 `json:"confidence"`

	// Optional suggested tactics mutation. Empty Field means informational.
	Field string `json:"field,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Qualifies reports whether the finding clears the bar to become a tactics
// update: a suggested field plus confidence at or above the floor.
func (f Finding) Qualifies() bool {
	return f.Field != "" && f.Value != nil && f.Confidence >= QualifyingConfidence
}
