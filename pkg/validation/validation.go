package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fabriciogeog/controle-doc-medica/pkg/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report wire-level field names, not Go field names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	// Document-type enum membership
	v.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
		return types.IsValidDocumentType(fl.Field().String())
	})

	// ISO-8601 date, with or without time component
	v.RegisterValidation("dateiso", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	return v
}

// ParseDate parses an ISO-8601 date as sent by the SPA or an API client
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", value)
}

// Check runs the declarative field validators on a request payload and
// adapts failures into the per-field error list carried by the response
// envelope. It never performs business validation of its own.
func Check(payload interface{}) []types.FieldError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []types.FieldError{{Field: "body", Message: err.Error()}}
	}

	fields := make([]types.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, types.FieldError{
			Field:   fieldPath(fe),
			Message: messageFor(fe),
		})
	}
	return fields
}

// fieldPath strips the top-level struct name, leaving the wire-level dotted
// field path
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if dot := strings.IndexByte(ns, '.'); dot >= 0 {
		return ns[dot+1:]
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "max":
		return fmt.Sprintf("deve ter no máximo %s caracteres", fe.Param())
	case "min":
		return fmt.Sprintf("deve ter no mínimo %s caracteres", fe.Param())
	case "email":
		return "email inválido"
	case "doctype":
		return "tipo de documento inválido"
	case "dateiso":
		return "data inválida"
	default:
		return fmt.Sprintf("valor inválido (%s)", fe.Tag())
	}
}
