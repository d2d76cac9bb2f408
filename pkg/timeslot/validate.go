package timeslot

import "github.com/go-playground/validator/v10"

// RegisterValidations installs the hhmm and weekday_vi tags on v.
func RegisterValidations(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsHHMM(fl.Field().String())
	})
	_ = v.RegisterValidation("weekday_vi", func(fl validator.FieldLevel) bool {
		return IsWeekday(fl.Field().String())
	})
	return v
}

// NewValidator returns a validator with the schedule tags registered.
func NewValidator() *validator.Validate {
	return RegisterValidations(validator.New())
}
