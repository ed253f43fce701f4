// Package analyzer adapts the external food-recognition provider. It turns
// images and/or free text into a raw payload plus a normalized Suggestion.
// The raw payload is never inspected outside this package.
package analyzer

import (
	"context"
	"strings"

	"github.com/and161185/nutrikeeper/internal/model"
)

// Image is one uploaded photo.
type Image struct {
	Data        []byte
	ContentType string // detected from Data when empty
}

// Input is what the user submitted for recognition.
type Input struct {
	Images []Image
	Text   string
}

// Empty reports whether there is nothing to analyze.
func (in Input) Empty() bool {
	for _, img := range in.Images {
		if len(img.Data) > 0 {
			return false
		}
	}
	return strings.TrimSpace(in.Text) == ""
}

// Analysis is the gateway result. Raw is persisted as-is.
type Analysis struct {
	Raw        model.Document
	Suggestion model.Suggestion
	Parsed     bool // false when the provider answered with non-JSON text
}

// Empty reports whether the provider produced nothing usable.
func (a Analysis) Empty() bool { return len(a.Raw) == 0 }

// Analyzer estimates nutrition from media and text.
type Analyzer interface {
	// Analyze fails with errs.ErrNoInputProvided or errs.ErrAnalyzerUnavailable.
	Analyze(ctx context.Context, in Input) (Analysis, error)
}

// Project derives the draft's visible data: a fixed subset of the suggestion,
// absent fields stay nil.
func Project(s model.Suggestion) model.VisibleData {
	v := model.VisibleData{
		TotalKcal:          s.TotalKcal,
		PortionWeightGrams: s.PortionWeightGrams,
		PortionWeightOz:    s.PortionWeightOz,
		CookingMethod:      s.CookingMethod,
		SatietyHours:       s.SatietyHours,
	}
	if hasMacros(s.Macros) {
		m := s.Macros
		v.Macros = &m
	}
	return v
}

func hasMacros(m model.MacroValues) bool {
	return m.ProteinG != nil || m.FatG != nil || m.CarbsG != nil || m.SugarG != nil ||
		m.FiberG != nil || m.SaltG != nil || m.WaterG != nil
}
