package grading

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// NotAvailable is returned by Classify when no band of the scale holds the percentage.
var NotAvailable = Grade{Label: "N/A"}

type (
	// Band is one labeled range of a Scale; both bounds are inclusive.
	Band struct {
		Label      string  `json:"label" yaml:"label" validate:"notblank"`
		MinPercent float64 `json:"min_percent" yaml:"min" validate:"gte=0,lte=100"`
		MaxPercent float64 `json:"max_percent" yaml:"max" validate:"gte=0,lte=100"`
		GPAPoints  float64 `json:"gpa_points" yaml:"gpa" validate:"gte=0"`
	}

	// Scale partitions [0,100] into labeled bands.
	// Consecutive bands share their boundary: a percentage sitting on it belongs to the higher band.
	Scale struct {
		ID         string `json:"id" yaml:"id" validate:"required,alphanum_,max=32"`
		Name       string `json:"name" yaml:"name" validate:"notblank"`
		Predefined bool   `json:"predefined" yaml:"-"`
		Bands      []Band `json:"bands" yaml:"bands" validate:"required,min=1,dive"`
	}

	Grade struct {
		Label     string  `json:"label"`
		GPAPoints float64 `json:"gpa_points"`
	}
)

// Normalize sorts the bands by descending MinPercent.
func (s *Scale) Normalize() {
	sort.SliceStable(s.Bands, func(i, j int) bool {
		if s.Bands[i].MinPercent == s.Bands[j].MinPercent {
			return s.Bands[i].MaxPercent > s.Bands[j].MaxPercent
		}
		return s.Bands[i].MinPercent > s.Bands[j].MinPercent
	})
}

// Labels returns the band labels, highest band first.
func (s Scale) Labels() []string {
	bands := sortedBands(s.Bands)
	labels := make([]string, 0, len(bands))
	for _, b := range bands {
		labels = append(labels, b.Label)
	}
	return labels
}

// Validate cleans the scale, normalizes its bands and checks that they cover [0,100] without overlaps or gaps.
func (s *Scale) Validate(validate *validator.Validate) error {
	s.ID = core.CleanString(s.ID, true /* lower */)
	s.Name = core.CleanString(s.Name)
	for i := range s.Bands {
		s.Bands[i].Label = core.CleanString(s.Bands[i].Label)
	}
	if err := validate.Struct(s); err != nil {
		return err
	}
	return s.CheckBands()
}

// CheckBands normalizes the bands and reports the first partition defect found.
func (s *Scale) CheckBands() error {
	bandsErr := func(format string, args ...interface{}) error {
		msg := fmt.Sprintf(format, args...)
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "bands", Error: msg})
	}

	if len(s.Bands) == 0 {
		return bandsErr("a grading scale needs at least one band")
	}
	s.Normalize()

	labels := make(map[string]bool, len(s.Bands))
	for _, b := range s.Bands {
		label := core.CleanString(b.Label)
		if label == "" {
			return bandsErr("every band needs a label")
		}
		if labels[label] {
			return bandsErr("duplicate band label %q", label)
		}
		labels[label] = true

		if !inRange(b.MinPercent) || !inRange(b.MaxPercent) {
			return bandsErr("band %q must lie within [0, 100]", label)
		}
		if b.MinPercent > b.MaxPercent {
			return bandsErr("band %q has a minimum greater than its maximum", label)
		}
	}

	if top := s.Bands[0]; top.MaxPercent != 100 {
		return bandsErr("band %q must reach 100", top.Label)
	}
	if bottom := s.Bands[len(s.Bands)-1]; bottom.MinPercent != 0 {
		return bandsErr("band %q must start at 0", bottom.Label)
	}
	for i := 0; i < len(s.Bands)-1; i++ {
		higher, lower := s.Bands[i], s.Bands[i+1]
		switch {
		case lower.MaxPercent > higher.MinPercent:
			return bandsErr("bands %q and %q overlap", lower.Label, higher.Label)
		case lower.MaxPercent < higher.MinPercent:
			return bandsErr("gap between bands %q and %q", lower.Label, higher.Label)
		}
	}
	return nil
}

// Classify maps a percentage to its grade under `scale`.
// Percentages outside [0,100] are clamped; NotAvailable is returned when no band matches.
func Classify(percentage float64, scale Scale) Grade {
	if math.IsNaN(percentage) {
		return NotAvailable
	}
	p := math.Max(0, math.Min(100, percentage))
	for _, b := range sortedBands(scale.Bands) {
		if b.MinPercent <= p && p <= b.MaxPercent {
			return Grade{Label: b.Label, GPAPoints: b.GPAPoints}
		}
	}
	return NotAvailable
}

func sortedBands(bands []Band) []Band {
	s := Scale{Bands: make([]Band, len(bands))}
	copy(s.Bands, bands)
	s.Normalize()
	return s.Bands
}

func inRange(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 100
}
