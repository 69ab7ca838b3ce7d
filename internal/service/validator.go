package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campus-scheduler-api/internal/schedule"
)

// NewValidator returns a validator with the schedule tags registered:
// "daytokens" for space separated day lists and "timerange" for
// "H:MM AM - H:MM PM" ranges. With strictDays unknown day tokens fail
// validation; otherwise any non-empty token list passes.
func NewValidator(strictDays bool) *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("daytokens", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseDays(strings.ToUpper(fl.Field().String()), strictDays)
		return err == nil
	})
	_ = v.RegisterValidation("timerange", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseTimeRange(fl.Field().String())
		return err == nil
	})
	return v
}
