package tactics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/Shawm69/fbigposter/internal/models"
)

// setter applies one typed field mutation to a tactics document.
type setter func(*models.TacticsDoc, any) error

// setters is the closed set of mutable tactics fields. Updates naming any
// other path are rejected at batch validation time, so a typo can never
// become a silent no-op.
var setters = map[string]setter{
	"posting.best_slots": func(d *models.TacticsDoc, v any) error {
		slots, err := asIntSlice(v)
		if err != nil {
			return err
		}
		d.Posting.BestSlots = slots
		return nil
	},
	"posting.confidence": func(d *models.TacticsDoc, v any) error {
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		d.Posting.Confidence = f
		return nil
	},
	"visual.style":      func(d *models.TacticsDoc, v any) error { return asString(v, &d.Visual.Style) },
	"visual.hook_style": func(d *models.TacticsDoc, v any) error { return asString(v, &d.Visual.HookStyle) },
	"visual.pacing":     func(d *models.TacticsDoc, v any) error { return asString(v, &d.Visual.Pacing) },
	"visual.duration_secs": func(d *models.TacticsDoc, v any) error {
		n, err := asInt(v)
		if err != nil {
			return err
		}
		d.Visual.DurationSecs = n
		return nil
	},
	"visual.prompt_keywords": func(d *models.TacticsDoc, v any) error {
		ss, err := asStringSlice(v)
		if err != nil {
			return err
		}
		d.Visual.PromptKeywords = ss
		return nil
	},
	"caption.length_preference": func(d *models.TacticsDoc, v any) error { return asString(v, &d.Caption.LengthPreference) },
	"caption.tone":              func(d *models.TacticsDoc, v any) error { return asString(v, &d.Caption.Tone) },
	"caption.opening_style":     func(d *models.TacticsDoc, v any) error { return asString(v, &d.Caption.OpeningStyle) },
	"caption.cta":               func(d *models.TacticsDoc, v any) error { return asString(v, &d.Caption.CTA) },
	"hashtags.optimal_count": func(d *models.TacticsDoc, v any) error {
		n, err := asInt(v)
		if err != nil {
			return err
		}
		d.Hashtags.OptimalCount = n
		return nil
	},
	"hashtags.proven_tags": func(d *models.TacticsDoc, v any) error {
		ss, err := asStringSlice(v)
		if err != nil {
			return err
		}
		d.Hashtags.ProvenTags = ss
		return nil
	},
	"hashtags.avoid_tags": func(d *models.TacticsDoc, v any) error {
		ss, err := asStringSlice(v)
		if err != nil {
			return err
		}
		d.Hashtags.AvoidTags = ss
		return nil
	},
	"pillars": func(d *models.TacticsDoc, v any) error {
		var table []models.PillarStat
		if err := roundTrip(v, &table); err != nil {
			return err
		}
		d.Pillars = table
		return nil
	},
	"profile": func(d *models.TacticsDoc, v any) error {
		var profile models.EngagementProfile
		if err := roundTrip(v, &profile); err != nil {
			return err
		}
		d.Profile = profile
		return nil
	},
}

// KnownField reports whether the dot-path is in the mutable field set.
func KnownField(path string) bool {
	_, ok := setters[path]
	return ok
}

// MutableFields lists the closed setter set, sorted. Used by the tool
// surfaces to document the update contract.
func MutableFields() []string {
	out := make([]string, 0, len(setters))
	for f := range setters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func asString(v any, dst *string) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	*dst = s
	return nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asInt(v any) (int, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

func asIntSlice(v any) ([]int, error) {
	switch xs := v.(type) {
	case []int:
		return xs, nil
	case []any:
		out := make([]int, len(xs))
		for i, x := range xs {
			n, err := asInt(x)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected int list, got %T", v)
}

func asStringSlice(v any) ([]string, error) {
	switch xs := v.(type) {
	case []string:
		return xs, nil
	case []any:
		out := make([]string, len(xs))
		for i, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("expected string list, got %T element", x)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected string list, got %T", v)
}

// roundTrip decodes v into dst through JSON, accepting both typed values
// (from analyzers) and generic maps (from the tool surfaces).
func roundTrip(v, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
