package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Dan9191/credit-service/internal/credit"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// newValidator returns a validator that compares decimal fields numerically
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateStruct runs struct validation and flattens the field errors into
// one credit.ErrInvalidInput
func (s *Service) validateStruct(dto interface{}) error {
	err := s.validator.Struct(dto)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", credit.ErrInvalidInput, err)
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, "field "+e.Field()+" is required")
		case "gt":
			messages = append(messages, "field "+e.Field()+" must be greater than "+e.Param())
		case "gte":
			messages = append(messages, "field "+e.Field()+" must be at least "+e.Param())
		case "lte":
			messages = append(messages, "field "+e.Field()+" must be at most "+e.Param())
		case "max":
			messages = append(messages, "field "+e.Field()+" must be at most "+e.Param()+" characters")
		default:
			messages = append(messages, "field "+e.Field()+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", credit.ErrInvalidInput, strings.Join(messages, "; "))
}
