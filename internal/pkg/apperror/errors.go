package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodePersistence  ErrorCode = "PERSISTENCE_ERROR"
)

// AppError ошибка приложения с кодом и HTTP статусом.
// Fields заполняется только для ошибок валидации: поле -> сообщение.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Fields     map[string]string
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

// Validation собирает ошибки по полям в одну ошибку.
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Code:       ErrCodeValidation,
		Message:    "Données invalides",
		HTTPStatus: http.StatusBadRequest,
		Fields:     fields,
	}
}

// Persistence оборачивает сбой хранилища.
func Persistence(err error, message string) *AppError {
	return Wrap(err, ErrCodePersistence, message)
}

// NotFound сообщает об отсутствующей сущности.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodePersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}

func IsPersistence(err error) bool {
	return hasCode(err, ErrCodePersistence)
}

// FieldsOf возвращает ошибки по полям, если err является ошибкой валидации.
func FieldsOf(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

var (
	ErrRequestNotFound = NotFound("Demande introuvable")
	// Одно сообщение на любой сбой входа, чтобы не раскрывать существование аккаунта.
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "Email ou mot de passe incorrect")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "Authentification requise")
	ErrSessionExpired     = New(ErrCodeUnauthorized, "Session expirée, veuillez vous reconnecter")
)
