package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/onexcrm/onexcrm/internal/masterdata/shared"
)

// ValidationError reports the first invalid input of a form.
type ValidationError struct {
	// Field is the column whose input should receive focus.
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return shared.ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate

	optionsMu sync.RWMutex
	options   = map[string][]string{}

	namePattern    = regexp.MustCompile(shared.NamePattern)
	contactPattern = regexp.MustCompile(shared.ContactPattern)
)

// RegisterOptions makes a named choice list available to the "option" tag,
// e.g. `validate:"option=supplier_type"`.
func RegisterOptions(name string, values []string) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	options[name] = slices.Clone(values)
}

// Options returns a registered choice list.
func Options(name string) []string {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return slices.Clone(options[name])
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("entityname", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
			return contactPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("option", func(fl validator.FieldLevel) bool {
			optionsMu.RLock()
			defer optionsMu.RUnlock()
			return slices.Contains(options[fl.Param()], fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks input against its `validate` tags. Fields carry a `label`
// tag for messages and a `col` tag naming the column to focus.
func Validate(input any) error {
	err := validatorInstance().Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]

	typ := reflect.TypeOf(input)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	label, col := fe.Field(), ""
	if sf, ok := typ.FieldByName(fe.StructField()); ok {
		if l := sf.Tag.Get("label"); l != "" {
			label = l
		}
		col = sf.Tag.Get("col")
	}
	return Invalid(col, message(fe.Tag(), label, fe.Param()))
}

func message(tag, label, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s cannot be empty.", label)
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s.", label, param)
	case "entityname", "contact":
		return fmt.Sprintf("%s contains invalid characters.", label)
	case "option":
		return fmt.Sprintf("%s selection is invalid.", label)
	case "datetime":
		return fmt.Sprintf("Please enter a valid %s.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
