package util

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Status returns the envelope status word for the error: "fail" for client errors and
// "error" for server side failures.
func (e *DomainError) Status() string {
	if e.HTTPStatus >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// FromValidation flattens ozzo validation errors into the details of a validation error.
// A nil err yields nil.
func FromValidation(message string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for field, ferr := range verrs {
		details[field] = ferr.Error()
	}
	return NewValidationError(message, details)
}

// MaxBytes checks that a string value is at most n bytes long. Unlike validation.Length it
// counts bytes, not runes.
func MaxBytes(n int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, err := validation.EnsureString(value)
		if err != nil {
			return err
		}
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes", n)
		}
		return nil
	})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStoreUnavailable reports a retryable backing-store failure.
func NewStoreUnavailable(message string, err error) error {
	return &DomainError{
		Code:       "STORE_UNAVAILABLE",
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       http.StatusText(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
