// Package validation provides boundary validation for API and service inputs
// using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

// Custom tags understood by the validator.
const (
	TagCategory  = "category"
	TagRefKind   = "ref_kind"
	TagEventType = "event_type"
	TagSortKey   = "sort_key"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation(TagCategory, func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation(TagRefKind, func(fl validator.FieldLevel) bool {
		return domain.RefKind(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation(TagEventType, func(fl validator.FieldLevel) bool {
		return domain.EventType(fl.Field().String()).IsValid()
	})
	v.RegisterStructValidation(validateSortKey, domain.SortKey{})

	return &Validator{v: v}
}

// validateSortKey rejects order modes the dimension does not accept.
func validateSortKey(sl validator.StructLevel) {
	k, ok := sl.Current().Interface().(domain.SortKey)
	if !ok {
		return
	}
	orders := domain.OrdersFor(k.Dimension)
	if len(orders) == 0 {
		sl.ReportError(k.Dimension, "dimension", "Dimension", TagSortKey, string(k.Dimension))
		return
	}
	for _, o := range orders {
		if o == k.Order {
			return
		}
	}
	sl.ReportError(k.Order, "order", "Order", TagSortKey, string(k.Dimension))
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.v.Var(value, tag); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return domainerrors.ValidationWithDetails("validation failed",
				map[string]string{field: v.friendlyMessage(validationErrs[0])})
		}
		return err
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

// fieldPath drops the top-level struct name from the namespace,
// e.g. "QueryInput.filter.rating.min" becomes "filter.rating.min".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "datetime":
		return "must be a date formatted as " + e.Param()
	case TagCategory:
		return "must be a vote category"
	case TagRefKind:
		return "must be one of: brand tag concentration outlet purchase_type"
	case TagEventType:
		return "must be one of: smell skin buy sell"
	case TagSortKey:
		return "is not a valid order for dimension " + e.Param()
	default:
		return "is invalid"
	}
}
