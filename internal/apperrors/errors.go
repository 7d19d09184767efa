package apperrors

import "fmt"

// ConfigError means the task catalog or runtime configuration is unusable.
// The process must not start serving when one is returned.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ValidationError is malformed input or an operation on the wrong task type.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ConflictError is a write against state that can no longer change.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func Config(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}
