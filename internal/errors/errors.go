package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeNotFound    ErrCode = "NOT_FOUND"
	ErrCodeRateLimited ErrCode = "RATE_LIMITED"
	ErrCodeFetch       ErrCode = "FETCH_FAILED"
	ErrCodeStore       ErrCode = "STORE_FAILED"
	ErrCodeInternal    ErrCode = "INTERNAL_ERROR"
	ErrCodeBadRequest  ErrCode = "BAD_REQUEST"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewFetchError creates a new upstream fetch error
func NewFetchError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeFetch,
		Message: message,
		Err:     err,
	}
}

// NewStoreError creates a new store write error
func NewStoreError(store, message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeStore,
		Message: fmt.Sprintf("%s: %s", store, message),
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeNotFound
	}
	return false
}
