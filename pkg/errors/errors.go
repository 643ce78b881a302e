package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrNotADirectory     = errors.New("not a directory")
	ErrNotFound          = errors.New("not found")
	ErrIndexNotFound     = errors.New("index not found")
	ErrIndexNotLoaded    = errors.New("index not loaded")
	ErrCorruptIndex      = errors.New("corrupt index file")
	ErrUnknownDocument   = errors.New("unknown document")
	ErrMergeCollision    = errors.New("merge collision")
	ErrWorkerFailed      = errors.New("shard worker failed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTimeout           = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUnknownDocument), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrIndexNotFound), errors.Is(err, ErrDirectoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotADirectory):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
