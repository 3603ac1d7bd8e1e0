package gradebook

import (
	"fmt"
	"math"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	categoryTag  = "assignment_category"
	categoryText = "must be one of: homework, quiz, test, project, participation"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	category := fl.Field().String()
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

func checkPoints(points float64, assignment Assignment) error {
	if math.IsNaN(points) || points < 0 || points > assignment.TotalPoints {
		msg := fmt.Sprintf("points must be between 0 and %s", formatPoints(assignment.TotalPoints))
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "points_earned", Error: msg})
	}
	return nil
}

func formatPoints(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.0f", p)
	}
	return fmt.Sprintf("%g", p)
}
