package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/care-records/internal/care"
)

// RequestValidator plugs validator/v10 into echo's c.Validate with the care
// record tags registered:
//
//	date       YYYY-MM-DD
//	clock      H:MM, HH:MM or HH:MM:SS
//	diaperslot one of care.DiaperSlots
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		return care.ValidDate(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, _, ok := care.ParseClock(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("diaperslot", func(fl validator.FieldLevel) bool {
		return care.IsDiaperSlot(fl.Field().String())
	})
	return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (r *RequestValidator) Validate(i interface{}) error {
	return r.v.Struct(i)
}

// jsonFieldName reports fields by their JSON key so error messages match the
// request body.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
