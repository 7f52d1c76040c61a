package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/spatial-summarize/internal/domain"
	"github.com/spatial-summarize/internal/pkg/projection"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("crs", func(fl validator.FieldLevel) bool {
		return projection.IsSupported(fl.Field().String())
	})
	_ = validate.RegisterValidation("statistic", func(fl validator.FieldLevel) bool {
		return domain.Statistic(fl.Field().String()).IsValid()
	})
	_ = validate.RegisterValidation("jointype", func(fl validator.FieldLevel) bool {
		return domain.JoinType(fl.Field().String()).IsValid()
	})
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// Var - валидация отдельного значения по тегу
func Var(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
