package usecase

import (
	"errors"

	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

// Названия ресурсов в сообщениях об ошибках
const (
	resourceClient    = "Клиент"
	resourceContainer = "Контейнер"
	resourceRequest   = "Заявка"
	resourceRoute     = "Маршрут"
	resourceSegment   = "Участок"
)

// wrapNotFound превращает ошибку "не найдено" хранилища в ServiceError с id ресурса.
// Прочие ошибки возвращаются как есть
func wrapNotFound(err error, resource string, id interface{}) error {
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return pkgerrors.NewNotFoundError(resource, id)
	}
	return err
}

// wrapDuplicate превращает нарушение уникальности в ошибку конфликта
func wrapDuplicate(err error, reason string) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return pkgerrors.NewConflictError(reason)
	}
	return err
}

// wrapAlreadyExists превращает нарушение уникальности поля в ошибку конфликта
func wrapAlreadyExists(err error, resource, field string, value interface{}) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return pkgerrors.NewAlreadyExistsError(resource, field, value)
	}
	return err
}
