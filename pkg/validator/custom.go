package validator

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

func RegisterCustomValidations(validate *validator.Validate) {
	_ = validate.RegisterValidation("lat", coordinate(90))
	_ = validate.RegisterValidation("lng", coordinate(180))
	_ = validate.RegisterValidation("notblank", notBlank)
}

// coordinate accepts finite values in [-limit, limit].
func coordinate(limit float64) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		return v >= -limit && v <= limit
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
