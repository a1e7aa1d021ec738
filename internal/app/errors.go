package app

import (
	"errors"
	"fmt"
	"net/http"

	"inkwell/api/internal/gitremote"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func notFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func invalidArgument(message string) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_ARGUMENT", message, nil)
}

// remoteFailed maps a failed remote Git call onto the user-facing message;
// the original response stays in the log, not the payload.
func remoteFailed(err error) *DomainError {
	wrapped := domainError(http.StatusBadGateway, "REMOTE_GIT_FAILED", "The remote Git service rejected the operation. Please try again later.", nil)
	var remote *gitremote.RemoteError
	if errors.As(err, &remote) {
		wrapped.Details = map[string]any{"operation": remote.Op}
	}
	return wrapped
}
