package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError представляет ошибку сервиса с HTTP-статусом
type ServiceError struct {
	Code    int    // HTTP-статус
	Message string // Сообщение для клиента
	Err     error  // Исходная ошибка
}

// NewServiceError создает новую ошибку сервиса
func NewServiceError(code int, message string, err error) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(resourceType string, id interface{}) *ServiceError {
	message := fmt.Sprintf("%s с ID=%v не найден", resourceType, id)
	return NewServiceError(http.StatusNotFound, message, ErrNotFound)
}

func NewAlreadyExistsError(resourceType string, field string, value interface{}) *ServiceError {
	message := fmt.Sprintf("%s с %s=%v уже существует", resourceType, field, value)
	return NewServiceError(http.StatusConflict, message, ErrAlreadyExists)
}

// NewConflictError сообщает о нарушении уникальности, не сводящемся к одному полю
func NewConflictError(reason string) *ServiceError {
	return NewServiceError(http.StatusConflict, fmt.Sprintf("Конфликт: %s", reason), ErrAlreadyExists)
}

func NewUnauthorizedError(reason string) *ServiceError {
	message := "Требуется авторизация"
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return NewServiceError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func NewForbiddenError(reason string) *ServiceError {
	message := "Доступ запрещен"
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return NewServiceError(http.StatusForbidden, message, ErrForbidden)
}

func NewInternalServerError(err error) *ServiceError {
	return NewServiceError(http.StatusInternalServerError, "Внутренняя ошибка сервера", err)
}

func NewBadRequestError(reason string) *ServiceError {
	message := "Некорректный запрос"
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return NewServiceError(http.StatusBadRequest, message, ErrBadRequest)
}

func NewValidationError(field, reason string) *ServiceError {
	message := fmt.Sprintf("Ошибка валидации поля '%s': %s", field, reason)
	return NewServiceError(http.StatusBadRequest, message, ErrBadRequest)
}

// NewInvalidStateError сообщает, что операция недопустима в текущем состоянии сущности
func NewInvalidStateError(resourceType string, id interface{}, state interface{}, operation string) *ServiceError {
	message := fmt.Sprintf("%s с ID=%v: операция '%s' недопустима в состоянии %v", resourceType, id, operation, state)
	return NewServiceError(http.StatusUnprocessableEntity, message, ErrInvalidState)
}

func NewPreconditionFailedError(reason string) *ServiceError {
	message := "Не выполнено предварительное условие"
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return NewServiceError(http.StatusPreconditionFailed, message, ErrPreconditionFailed)
}

// StatusCode определяет HTTP-статус для ошибки
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// ToHTTPResponse преобразует ошибку в HTTP-ответ
func ToHTTPResponse(err error) (int, interface{}) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		return code, ErrorResponse("Внутренняя ошибка сервера", nil)
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return code, ErrorResponse(se.Message, nil)
	}
	return code, ErrorResponse(err.Error(), nil)
}

// HandleServiceError логирует ошибку и приводит ее к ServiceError
func HandleServiceError(err error, context string) *ServiceError {
	LogError(err, context)

	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		return NewInternalServerError(err)
	}
	return NewServiceError(code, err.Error(), err)
}
