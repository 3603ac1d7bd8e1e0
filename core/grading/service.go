package grading

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("grading scale")
	ErrScaleReadOnly   = errors.New("built-in grading scales cannot be modified")
	ErrUnknownDefault  = errors.New("default grading scale is not defined")
	ErrClassScaleUnset = errors.New("class has no grading scale")
)

type (
	// Repository persists custom scales and the scale selected by each class.
	Repository interface {
		QueryScales(ctx context.Context) ([]Scale, error)
		// GetScale returns ErrNotFound when no custom scale has the ID.
		GetScale(ctx context.Context, id string) (Scale, error)
		SaveScale(ctx context.Context, scale Scale) (Scale, error)
		// GetClassScaleID returns ErrClassScaleUnset when the class never selected a scale.
		GetClassScaleID(ctx context.Context, classID string) (string, error)
		SetClassScaleID(ctx context.Context, classID, scaleID string) error
	}

	Service struct {
		repo      Repository
		builtin   map[string]Scale
		defaultID string
	}
)

// NewService returns a Service serving the predefined scales, plus `extra` read-only scales (e.g. loaded from a file),
// falling back on `defaultID` for classes that did not select a scale.
func NewService(repo Repository, defaultID string, extra ...Scale) (*Service, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.StringNotEmpty(defaultID, "defaultID"),
	).Check()
	if err != nil {
		return nil, err
	}

	builtin := Predefined()
	for _, s := range extra {
		s.Predefined = true
		s.Normalize()
		builtin[s.ID] = s
	}
	if _, ok := builtin[defaultID]; !ok {
		return nil, errors.Wrap(ErrUnknownDefault, defaultID)
	}
	return &Service{repo: repo, builtin: builtin, defaultID: defaultID}, nil
}

// Default returns the scale used by classes without a selection.
func (svc *Service) Default() Scale {
	return svc.builtin[svc.defaultID]
}

// Scales lists the built-in scales followed by the custom ones, each group sorted by ID.
func (svc *Service) Scales(ctx context.Context) ([]Scale, error) {
	custom, err := svc.repo.QueryScales(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying scales")
	}

	builtin := make([]Scale, 0, len(svc.builtin))
	for _, s := range svc.builtin {
		builtin = append(builtin, s)
	}
	sort.Slice(builtin, func(i, j int) bool { return builtin[i].ID < builtin[j].ID })
	sort.Slice(custom, func(i, j int) bool { return custom[i].ID < custom[j].ID })
	return append(builtin, custom...), nil
}

func (svc *Service) Scale(ctx context.Context, id string) (Scale, error) {
	id = core.CleanString(id, true /* lower */)
	if s, ok := svc.builtin[id]; ok {
		return s, nil
	}
	return svc.repo.GetScale(ctx, id)
}

// SaveScale validates, normalizes and stores a custom scale. Malformed scales are rejected here, never at classification.
func (svc *Service) SaveScale(ctx context.Context, scale Scale, validate *validator.Validate) (Scale, error) {
	if err := scale.Validate(validate); err != nil {
		return Scale{}, err
	}
	if _, ok := svc.builtin[scale.ID]; ok {
		return Scale{}, core.NewValidationError(ErrScaleReadOnly, core.FieldError{Field: "id", Error: ErrScaleReadOnly.Error()})
	}
	scale.Predefined = false
	return svc.repo.SaveScale(ctx, scale)
}

// ClassScale returns the scale selected for the class, or the default one.
func (svc *Service) ClassScale(ctx context.Context, classID string) (Scale, error) {
	id, err := svc.repo.GetClassScaleID(ctx, classID)
	if err != nil {
		if errors.Cause(err) == ErrClassScaleUnset {
			return svc.Default(), nil
		}
		return Scale{}, errors.Wrap(err, "getting class scale")
	}

	s, err := svc.Scale(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return svc.Default(), nil
		}
		return Scale{}, errors.Wrap(err, "getting scale")
	}
	return s, nil
}

func (svc *Service) SetClassScale(ctx context.Context, classID, scaleID string) (Scale, error) {
	classID = core.CleanString(classID)
	if classID == "" {
		return Scale{}, core.NewValidationError(nil, core.FieldError{Field: "class", Error: "this field is required"})
	}
	s, err := svc.Scale(ctx, scaleID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Scale{}, core.NewValidationError(err, core.FieldError{Field: "scale_id", Error: err.Error()})
		}
		return Scale{}, errors.Wrap(err, "getting scale")
	}
	if err = svc.repo.SetClassScaleID(ctx, classID, s.ID); err != nil {
		return Scale{}, errors.Wrap(err, "setting class scale")
	}
	return s, nil
}
