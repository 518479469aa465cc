package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeTransport = "API_TRANSPORT"
	ErrCodeDecode    = "API_DECODE"
	ErrCodeRequest   = "API_REQUEST"
)

// errorBody covers the error shapes the backend uses.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

// statusError converts a non-2xx response into a categorised error
// carrying the status code and the backend message.
func statusError(method, path string, status int, body []byte) *apperrors.Error {
	msg := strings.TrimSpace(http.StatusText(status))
	var eb errorBody
	var fields []apperrors.FieldError
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		switch {
		case strings.TrimSpace(eb.Message) != "":
			msg = strings.TrimSpace(eb.Message)
		case strings.TrimSpace(eb.Error) != "":
			msg = strings.TrimSpace(eb.Error)
		}
		for _, d := range eb.Details {
			fields = append(fields, apperrors.FieldError{Field: d.Field, Message: d.Message})
		}
	}

	var err *apperrors.Error
	if len(fields) > 0 {
		err = apperrors.NewValidation(msg, fields...)
	} else {
		err = apperrors.New(msg, apperrors.HTTPStatusToCategory(status))
	}
	return err.
		WithCode(status).
		WithTextCode(apperrors.HTTPStatusToTextCode(status)).
		WithMetadata(map[string]any{
			"method": method,
			"path":   path,
			"status": status,
		})
}

func transportError(method, path string, err error) *apperrors.Error {
	return apperrors.Wrap(err, apperrors.CategoryExternal, fmt.Sprintf("%s %s failed", method, path)).
		WithTextCode(ErrCodeTransport)
}

func decodeError(path string, err error) *apperrors.Error {
	return apperrors.Wrap(err, apperrors.CategoryExternal, "unexpected response from "+path).
		WithTextCode(ErrCodeDecode)
}

func requestError(msg string) *apperrors.Error {
	return apperrors.New(msg, apperrors.CategoryBadInput).WithTextCode(ErrCodeRequest)
}

// StatusCode returns the HTTP status carried by an API error, or 0.
func StatusCode(err error) int {
	var ge *apperrors.Error
	if stderrors.As(err, &ge) {
		return ge.Code
	}
	return 0
}

// retryable reports whether a GET should be tried again.
func retryable(err error) bool {
	var ge *apperrors.Error
	if !stderrors.As(err, &ge) {
		return false
	}
	if ge.TextCode == ErrCodeTransport {
		return true
	}
	return ge.Code == http.StatusTooManyRequests || ge.Code >= 500
}
