package service

import (
	"errors"
	"fmt"

	"github.com/taskstream/taskstream-api/internal/domain"
)

// TaskServiceError wraps infrastructure failures from the task service
// with operation context. Domain errors are never wrapped in this type;
// they pass through unchanged so callers can classify them with
// errors.Is against the domain sentinels.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError wraps err with operation context. Domain errors
// are returned unchanged.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
