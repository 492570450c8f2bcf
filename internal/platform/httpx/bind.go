package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Binder decodes JSON bodies and validates struct tags.
type Binder struct {
	validate *validator.Validate
}

// NewBinder constructs a Binder that reports json field names in messages.
func NewBinder() *Binder {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Binder{validate: v}
}

// Bind decodes the request body into target and validates it. Every failure
// wraps ErrValidation.
func (b *Binder) Bind(r *http.Request, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return fmt.Errorf("%w: corpo da requisição inválido", ErrValidation)
	}
	return b.Validate(target)
}

// Validate runs struct tag validation only.
func (b *Binder) Validate(target any) error {
	if err := b.validate.Struct(target); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrValidation, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("campo %s é obrigatório", field)
	case "min":
		return fmt.Sprintf("campo %s deve ter no mínimo %s", field, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("campo %s deve ser maior ou igual a %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("campo %s deve ser no máximo %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("campo %s deve ser um de: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("campo %s deve ser um e-mail válido", field)
	default:
		return fmt.Sprintf("campo %s inválido", field)
	}
}
