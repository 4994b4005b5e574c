package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeFrozenState       ErrorCode = "FROZEN_STATE"
	ErrCodeDatabase          ErrorCode = "DATABASE_ERROR"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError типизированная ошибка ядра. State и Event заполняются только
// для ошибок переходов жизненного цикла.
type AppError struct {
	Code    ErrorCode
	Message string
	State   string
	Event   string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

// Validation ошибка входных данных: отрицательные числа, пустые поля, неверное окно времени.
func Validation(format string, args ...any) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf(format, args...))
}

func NotFound(entity, id string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %q not found", entity, id))
}

func Conflict(format string, args ...any) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf(format, args...))
}

// InvalidTransition сообщает текущее состояние и запрошенное событие.
func InvalidTransition(state, event string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("event %q is not allowed in state %q", event, state),
		State:   state,
		Event:   event,
	}
}

func Frozen(entity, id string) *AppError {
	return &AppError{
		Code:    ErrCodeFrozenState,
		Message: fmt.Sprintf("%s %q is awarded and read-only", entity, id),
		State:   "awarded",
	}
}

// CodeOf возвращает код ошибки или ErrCodeInternal для нетипизированных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeFrozenState:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsValidation(err error) bool        { return is(err, ErrCodeValidation) }
func IsNotFound(err error) bool          { return is(err, ErrCodeNotFound) }
func IsConflict(err error) bool          { return is(err, ErrCodeConflict) }
func IsInvalidTransition(err error) bool { return is(err, ErrCodeInvalidTransition) }
func IsFrozen(err error) bool            { return is(err, ErrCodeFrozenState) }
