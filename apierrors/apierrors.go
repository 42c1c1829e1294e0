package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindBusinessRule Kind = "business_rule"
	KindValidation   Kind = "validation"
	KindInternal     Kind = "internal"
)

// APIError is the structured error surfaced to API clients. Details carries
// machine-readable context such as available/requested stock counts.
type APIError struct {
	Kind    Kind                   `json:"-"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NotFound(entity string, id uint) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with id %d not found", entity, id),
		Details: map[string]interface{}{"id": id},
	}
}

func Conflict(message string) *APIError {
	return &APIError{Kind: KindConflict, Message: message}
}

func BusinessRule(message string, details map[string]interface{}) *APIError {
	return &APIError{Kind: KindBusinessRule, Message: message, Details: details}
}

func Validation(message string, details map[string]interface{}) *APIError {
	return &APIError{Kind: KindValidation, Message: message, Details: details}
}

// Status maps an error kind to its HTTP status code.
func (e *APIError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBusinessRule, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FieldViolation is one failed validation rule on a request field.
type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// FromBinding converts a gin binding failure into a validation APIError with a
// structured violation list instead of the validator's single error string.
func FromBinding(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Validation(err.Error(), nil)
	}

	violations := make([]FieldViolation, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, FieldViolation{
			Field:   strings.ToLower(fe.Field()),
			Rule:    fe.Tag(),
			Message: fmt.Sprintf("field %q failed rule %q", strings.ToLower(fe.Field()), fe.Tag()),
		})
	}
	return Validation("request validation failed", map[string]interface{}{"violations": violations})
}

// Respond writes err as a JSON response. Unexpected errors are logged with
// request context and reported as an opaque internal error.
func Respond(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status(), apiErr)
		return
	}

	zlog.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("unexpected error")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}
