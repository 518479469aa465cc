package wizard

import (
	stderrors "errors"
	"net/http"
	"strings"

	apperrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-wizard/validation"
)

const (
	ErrCodeValidation        = validation.TextCodeValidationFailed
	ErrCodeInvalidTransition = "WIZARD_INVALID_TRANSITION"
	ErrCodeStepNotReachable  = "WIZARD_STEP_NOT_REACHABLE"
	ErrCodeUnknownStep       = "WIZARD_UNKNOWN_STEP"
	ErrCodeBusy              = "WIZARD_BUSY"
	ErrCodeSessionClosed     = "WIZARD_SESSION_CLOSED"
	ErrCodeNotStarted        = "WIZARD_NOT_STARTED"
	ErrCodeForbidden         = "WIZARD_FORBIDDEN"
	ErrCodeSubmission        = "WIZARD_SUBMISSION_FAILED"
	ErrCodeDraft             = "WIZARD_DRAFT_FAILED"
	ErrCodeInvalidDefinition = "WIZARD_INVALID_DEFINITION"
)

var (
	ErrValidation        = apperrors.New("step validation failed", apperrors.CategoryValidation).WithTextCode(ErrCodeValidation)
	ErrInvalidTransition = apperrors.New("invalid transition", apperrors.CategoryBadInput).WithTextCode(ErrCodeInvalidTransition)
	ErrStepNotReachable  = apperrors.New("step not reachable", apperrors.CategoryBadInput).WithTextCode(ErrCodeStepNotReachable)
	ErrUnknownStep       = apperrors.New("unknown step", apperrors.CategoryNotFound).WithTextCode(ErrCodeUnknownStep)
	ErrBusy              = apperrors.New("wizard is submitting", apperrors.CategoryConflict).WithTextCode(ErrCodeBusy)
	ErrSessionClosed     = apperrors.New("wizard session closed", apperrors.CategoryConflict).WithTextCode(ErrCodeSessionClosed)
	ErrNotStarted        = apperrors.New("wizard not started", apperrors.CategoryBadInput).WithTextCode(ErrCodeNotStarted)
	ErrForbidden         = apperrors.New("actor not allowed", apperrors.CategoryAuthz).WithTextCode(ErrCodeForbidden)
	ErrSubmission        = apperrors.New("submission failed", apperrors.CategoryExternal).WithTextCode(ErrCodeSubmission)
	ErrDraft             = apperrors.New("draft operation failed", apperrors.CategoryExternal).WithTextCode(ErrCodeDraft)
	ErrInvalidDefinition = apperrors.New("invalid wizard definition", apperrors.CategoryBadInput).WithTextCode(ErrCodeInvalidDefinition)
)

func cloneError(base *apperrors.Error, message string, source error, metadata map[string]any) *apperrors.Error {
	if base == nil {
		base = ErrInvalidTransition
	}
	err := base.Clone()
	if text := strings.TrimSpace(message); text != "" {
		err.Message = text
	}
	if source != nil {
		err.Source = source
	}
	if len(metadata) > 0 {
		err = err.WithMetadata(metadata)
	}
	return err
}

func validationError(step string, res validation.Result) *apperrors.Error {
	err := apperrors.NewValidation("step "+step+" has invalid fields", res.Errors...).
		WithTextCode(ErrCodeValidation)
	return err.WithMetadata(map[string]any{"step": step})
}

// ErrorCode returns the text code of an engine error, or "".
func ErrorCode(err error) string {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

// IsCode reports whether err carries the given text code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}

// HTTPStatusForError maps engine errors to HTTP status codes for callers
// that expose a session behind an API.
func HTTPStatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch ErrorCode(err) {
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidTransition, ErrCodeBusy, ErrCodeSessionClosed:
		return http.StatusConflict
	case ErrCodeStepNotReachable, ErrCodeNotStarted:
		return http.StatusPreconditionFailed
	case ErrCodeUnknownStep:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeSubmission, ErrCodeDraft:
		return http.StatusBadGateway
	case ErrCodeInvalidDefinition:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
