package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	weekdayTag  = "weekday"
	weekdayText = "must be a day of the week (monday to sunday)"

	clockTag  = "clock"
	clockText = "must be a time formatted as HH:MM"

	errEndBeforeStart = errors.New("end must be after start")
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	_ = validate.RegisterValidation(clockTag, clockValidation)
	core.RegisterCustomTranslation(validate, translator, clockTag, clockText)
}

func weekdayValidation(fl validator.FieldLevel) bool {
	return dayIndex(fl.Field().String()) < len(Days)
}

func clockValidation(fl validator.FieldLevel) bool {
	_, err := ParseClock(fl.Field().String())
	return err == nil
}

// ParsePolicy accepts "warn" or "block"; anything else is an error.
func ParsePolicy(s string) (string, error) {
	switch p := core.CleanString(s, true /* lower */); p {
	case PolicyWarn, PolicyBlock:
		return p, nil
	default:
		return "", errors.Errorf("unknown conflict policy %q", s)
	}
}
