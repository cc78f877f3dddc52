package validator

import (
	stderrors "errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/frontdesk/pkg/errors"
)

// MaxAge is the inclusive upper bound accepted by the "age" rule.
const MaxAge = 150

// Validator checks `validate` struct tags and reports the first violated
// field as a validation error. The message comes from the field's `msg` tag.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("age", validateAge); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// Struct validates obj, which must be a struct or a pointer to one.
func (v *Validator) Struct(obj interface{}) error {
	return v.translate(obj, v.v.Struct(obj))
}

// Partial validates only the named struct fields (Go field names), still
// reporting the first violation in declaration order.
func (v *Validator) Partial(obj interface{}, fields ...string) error {
	return v.translate(obj, v.v.StructPartial(obj, fields...))
}

func (v *Validator) translate(obj interface{}, err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Validation(err.Error())
	}
	return errors.Invalid(fieldErrs[0].Field(), messageFor(obj, fieldErrs[0]))
}

func messageFor(obj interface{}, fe validator.FieldError) string {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return fe.Field() + " is invalid"
}

// validateAge accepts a string of digits denoting a whole number in [0, MaxAge].
func validateAge(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && n <= MaxAge
}
