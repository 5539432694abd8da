// Package request decodes and validates tool requests.
package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/apperr"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals
	validate = newValidator()                               //nolint:gochecknoglobals
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Unset prices validate as missing. Set ones validate as a pointer to
	// their float value so an explicit zero still counts as present.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.NullDecimal); ok && d.Valid {
			f := d.Decimal.InexactFloat64()
			return &f
		}
		return nil
	}, decimal.NullDecimal{})

	return v
}

// Decode unmarshals raw into dest and validates its struct tags. Empty input
// decodes as an empty object. All failures are ValidationError.
func Decode(ctx context.Context, raw []byte, dest any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return apperr.Wrap(err, apperr.ValidationError, "invalid JSON request")
	}

	if err := validate.StructCtx(ctx, dest); err != nil {
		return describe(err)
	}
	return nil
}

func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Wrap(err, apperr.ValidationError, "invalid request")
	}

	var missing, problems []string
	for _, fe := range fieldErrs {
		name := fieldPath(fe)
		switch fe.Tag() {
		case "required":
			missing = append(missing, name)
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "gt":
			problems = append(problems, fmt.Sprintf("%s must be greater than %s", name, fe.Param()))
		case "gte", "min":
			problems = append(problems, fmt.Sprintf("%s must be at least %s", name, fe.Param()))
		case "ltefield":
			problems = append(problems, fmt.Sprintf("%s must not exceed %s", name, strings.ToLower(fe.Param())))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid (%s)", name, fe.Tag()))
		}
	}

	if len(missing) > 0 {
		problems = append([]string{"missing required fields: " + strings.Join(missing, ", ")}, problems...)
	}
	return apperr.New(apperr.ValidationError, strings.Join(problems, "; "))
}

// fieldPath drops the top-level struct name: "Alert.item.title" -> "item.title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
