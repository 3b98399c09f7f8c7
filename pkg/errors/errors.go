package errors

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Базовые ошибки предметной области
var (
	ErrNotFound           = errors.New("ресурс не найден")
	ErrAlreadyExists      = errors.New("ресурс уже существует")
	ErrUnauthorized       = errors.New("не авторизован")
	ErrForbidden          = errors.New("доступ запрещен")
	ErrInternalServer     = errors.New("внутренняя ошибка сервера")
	ErrBadRequest         = errors.New("некорректный запрос")
	ErrInvalidState       = errors.New("операция недопустима в текущем состоянии")
	ErrPreconditionFailed = errors.New("не выполнено предварительное условие")
)

// AppendPrefix добавляет префикс к сообщению об ошибке
func AppendPrefix(err error, prefix string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// LogError логирует ошибку с контекстом
func LogError(err error, context string) {
	if err == nil {
		return
	}
	log.Printf("ОШИБКА [%s]: %v", context, err)
}

// LogErrorWithDetails логирует ошибку с контекстом и дополнительными деталями
func LogErrorWithDetails(err error, context string, details map[string]interface{}) {
	if err == nil {
		return
	}
	log.Printf("ОШИБКА [%s]: %v | Детали: %s", context, err, formatDetails(details))
}

// IsDomainError проверяет, относится ли ошибка к таксономии предметной области.
// Все остальные ошибки считаются внутренними (сбой хранилища и т.п.)
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrAlreadyExists, ErrForbidden, ErrBadRequest,
		ErrInvalidState, ErrPreconditionFailed, ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ErrorGroup представляет группу ошибок, собранных из разных операций
type ErrorGroup struct {
	errors []error
}

// NewErrorGroup создает новую группу ошибок
func NewErrorGroup() *ErrorGroup {
	return &ErrorGroup{
		errors: make([]error, 0),
	}
}

// Add добавляет ошибку в группу (игнорирует nil)
func (g *ErrorGroup) Add(err error) {
	if err != nil {
		g.errors = append(g.errors, err)
	}
}

// AddPrefix добавляет ошибку с префиксом в группу
func (g *ErrorGroup) AddPrefix(err error, prefix string) {
	if err != nil {
		g.errors = append(g.errors, AppendPrefix(err, prefix))
	}
}

// HasErrors проверяет, есть ли ошибки в группе
func (g *ErrorGroup) HasErrors() bool {
	return len(g.errors) > 0
}

func (g *ErrorGroup) Error() string {
	parts := make([]string, 0, len(g.errors))
	for _, err := range g.errors {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// ErrorWithDetails представляет ошибку с дополнительными деталями
type ErrorWithDetails struct {
	Err     error
	Details map[string]interface{}
}

// NewErrorWithDetails создает новую ошибку с деталями
func NewErrorWithDetails(err error, details map[string]interface{}) *ErrorWithDetails {
	return &ErrorWithDetails{
		Err:     err,
		Details: details,
	}
}

func (e *ErrorWithDetails) Error() string {
	if len(e.Details) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Err.Error(), formatDetails(e.Details))
}

func (e *ErrorWithDetails) Unwrap() error {
	return e.Err
}

// formatDetails формирует строку key=value в стабильном порядке ключей
func formatDetails(details map[string]interface{}) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, ", ")
}
