package helpers

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var ErrInvalidJSON = errors.New("invalid json body")

var validate = newValidator()

// piIDPattern matches Pi payment ids and txids. Empty values are left to
// the required rules.
var piIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("pi_id", func(fl validator.FieldLevel) bool {
		return piIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Bind parses the request body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return ErrInvalidJSON
	}
	return validate.Struct(dst)
}

func Validate(v any) error {
	return validate.Struct(v)
}

// FieldErrors keys each failed rule by the field's json name.
func FieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "numeric":
		return "must be numeric"
	case "pi_id":
		return "may only contain letters, digits, '-' and '_'"
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return "is invalid"
}
