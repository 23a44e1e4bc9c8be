package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validatable is a request payload that checks its own fields, usually
// through Struct and the `validate` tags. Checks that tags cannot express
// return CustomValidationErrors.
type Validatable interface {
	Validate() error
}

// Binder is implemented by payloads that populate themselves from the
// request instead of going through echo's default binder.
type Binder interface {
	Bind(c echo.Context) error
}

// CustomValidationError is one field problem found outside the validator tags.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

// BindAndValidate fills payload from the request, through its own Bind when
// it is a Binder and echo's binder otherwise, then validates it. Either
// failure is returned as a 400 *errs.HTTPError. payload must be a pointer.
func BindAndValidate(c echo.Context, payload Validatable) error {
	var err error
	if b, ok := payload.(Binder); ok {
		err = b.Bind(c)
	} else {
		err = c.Bind(payload)
	}
	if err != nil {
		return bindError(err)
	}

	if msg, fieldErrors := validateStruct(payload); fieldErrors != nil {
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}

	return nil
}

func bindError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		msg, fieldErrors := extractValidationError(custom)
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}

	// Query and path binders report the offending parameter by name.
	var bindingErr *echo.BindingError
	if errors.As(err, &bindingErr) {
		return errs.NewBadRequestError("Validation failed", true, nil, []errs.FieldError{{
			Field: bindingErr.Field,
			Error: "has an invalid value",
		}})
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) && echoErr.Code == http.StatusBadRequest {
		return errs.NewBadRequestError(fmt.Sprint(echoErr.Message), false, nil, nil)
	}

	return errs.NewBadRequestError("Invalid request", false, nil, nil)
}

// validateStruct runs v.Validate and flattens the result into field errors.
func validateStruct(v Validatable) (string, []errs.FieldError) {
	if err := v.Validate(); err != nil {
		return extractValidationError(err)
	}
	return "", nil
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var (
		custom   CustomValidationErrors
		tagged   validator.ValidationErrors
		reported []errs.FieldError
	)

	switch {
	case errors.As(err, &custom):
		for _, e := range custom {
			reported = append(reported, errs.FieldError{Field: e.Field, Error: e.Message})
		}
	case errors.As(err, &tagged):
		for _, e := range tagged {
			reported = append(reported, errs.FieldError{Field: e.Field(), Error: messageFor(e)})
		}
	default:
		reported = []errs.FieldError{{Field: "body", Error: err.Error()}}
	}

	return "Validation failed", reported
}

// tagMessage holds the message for a validator tag. Tags whose meaning
// depends on the field kind (length for strings, value for numbers) set
// forString as well.
type tagMessage struct {
	format    string
	forString string
}

var tagMessages = map[string]tagMessage{
	"required": {format: "is required"},
	"min":      {format: "must be at least %s", forString: "must be at least %s characters"},
	"max":      {format: "must not exceed %s", forString: "must not exceed %s characters"},
	"len":      {format: "must have exactly %s items", forString: "must be exactly %s characters"},
	"gt":       {format: "must be greater than %s"},
	"gte":      {format: "must be at least %s"},
	"lte":      {format: "must not exceed %s"},
	"number":   {format: "must contain only digits"},
	"numeric":  {format: "must contain only digits"},
	"datetime": {format: "must be a valid date in the format YYYY-MM-DD"},
	"oneof":    {format: "must be one of: %s"},
	"dive":     {format: "some items are invalid"},
}

func messageFor(err validator.FieldError) string {
	m, ok := tagMessages[err.Tag()]
	if !ok {
		if err.Param() != "" {
			return fmt.Sprintf("%s: %s:%s", err.Field(), err.Tag(), err.Param())
		}
		return fmt.Sprintf("%s: %s", err.Field(), err.Tag())
	}

	format := m.format
	if m.forString != "" && err.Kind() == reflect.String {
		format = m.forString
	}
	if !strings.Contains(format, "%s") {
		return format
	}
	return fmt.Sprintf(format, err.Param())
}
