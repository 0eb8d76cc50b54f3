package lib

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var goValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by the name users write in env vars or yaml files.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"yaml", "env"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors struct {
	Errors []string `json:"errors"`
}

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "no validation errors"
	}

	return strings.Join(ve.Errors, "; ")
}

// ValidateStruct validates a struct using go-playground/validator.
// When validation passes, it returns nil.
func ValidateStruct(s any) error {
	if err := goValidator.Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			out := ValidationErrors{}
			for _, e := range ve {
				out.Errors = append(out.Errors, fmt.Sprintf("%s failed on %s", e.Namespace(), describeTag(e)))
			}
			return out
		}
		return err
	}
	return nil
}

func describeTag(e validator.FieldError) string {
	if e.Param() == "" {
		return e.ActualTag()
	}
	return fmt.Sprintf("%s=%s", e.ActualTag(), e.Param())
}
