package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeLimitExceeded ErrorCode = "LIMIT_EXCEEDED"
	ErrCodeSettlement    ErrorCode = "SETTLEMENT_ERROR"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
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
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeLimitExceeded:
		return http.StatusUnprocessableEntity
	case ErrCodeSettlement:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

func IsNotFound(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeForbidden
}

func IsValidation(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeValidation
}

func IsConflict(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeConflict
}

func IsLimitExceeded(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeLimitExceeded
}

func IsSettlement(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeSettlement
}

func IsUnauthorized(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeUnauthorized
}

var (
	ErrJobNotFound        = New(ErrCodeNotFound, "задание не найдено")
	ErrBidNotFound        = New(ErrCodeNotFound, "отклик не найден")
	ErrDisputeNotFound    = New(ErrCodeNotFound, "спор не найден")
	ErrSettlementNotFound = New(ErrCodeNotFound, "выплата не найдена")
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")
)
