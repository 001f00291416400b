package timetable

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
)

var (
	hhmmTag  = "hhmm"
	hhmmText = "{0} must be a time in the HH:MM format"

	weekdayTag  = "weekday"
	weekdayText = "{0} must be a day between 1 (Monday) and 6 (Saturday)"
)

// InitValidators registers the timetable validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(hhmmTag, hhmmValidation)
	core.RegisterCustomTranslation(validate, translator, hhmmTag, hhmmText)

	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)
}

// hhmmValidation accepts "HH:MM" and "HH:MM:SS" times of day.
func hhmmValidation(fl validator.FieldLevel) bool {
	return ValidTime(fl.Field().String())
}

func weekdayValidation(fl validator.FieldLevel) bool {
	day := fl.Field().Int()
	return day >= Monday && day <= Saturday
}
