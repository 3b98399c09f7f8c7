package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

// ContainerUseCase операции с контейнерами
type ContainerUseCase struct {
	store  repo.Store
	logger *log.Logger
}

func NewContainerUseCase(store repo.Store) *ContainerUseCase {
	return &ContainerUseCase{
		store:  store,
		logger: log.New(log.Writer(), "[ContainerUseCase] ", log.LstdFlags),
	}
}

func (u *ContainerUseCase) Get(ctx context.Context, id uint) (*entity.Container, error) {
	container, err := u.store.Containers().GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, resourceContainer, id)
	}
	return container, nil
}

func (u *ContainerUseCase) GetBySerial(ctx context.Context, serial string) (*entity.Container, error) {
	container, err := u.store.Containers().GetBySerial(ctx, serial)
	if err != nil {
		return nil, wrapNotFound(err, resourceContainer, serial)
	}
	return container, nil
}

func (u *ContainerUseCase) ListByClient(ctx context.Context, clientID uint) ([]entity.Container, error) {
	if _, err := u.store.Clients().GetByID(ctx, clientID); err != nil {
		return nil, wrapNotFound(err, resourceClient, clientID)
	}
	return u.store.Containers().ListByClient(ctx, clientID)
}

func (u *ContainerUseCase) ListByStatus(ctx context.Context, status entity.ContainerStatus) ([]entity.Container, error) {
	if !status.IsValid() {
		return nil, pkgerrors.NewValidationError("status", fmt.Sprintf("неизвестное состояние %q", status))
	}
	return u.store.Containers().ListByStatus(ctx, status)
}

// Update изменяет данные контейнера, пока он не в пути и не доставлен
func (u *ContainerUseCase) Update(ctx context.Context, id uint, input entity.UpdateContainerRequest) (*entity.Container, error) {
	if input.WeightKg != nil && *input.WeightKg <= 0 {
		return nil, pkgerrors.NewValidationError("weight_kg", "вес должен быть положительным")
	}
	if input.VolumeM3 != nil && *input.VolumeM3 <= 0 {
		return nil, pkgerrors.NewValidationError("volume_m3", "объем должен быть положительным")
	}
	if input.SerialNumber != nil && *input.SerialNumber == "" {
		return nil, pkgerrors.NewValidationError("serial_number", "серийный номер не может быть пустым")
	}

	var container *entity.Container
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		container, err = tx.Containers().GetByIDForUpdate(ctx, id)
		if err != nil {
			return wrapNotFound(err, resourceContainer, id)
		}
		if !container.IsEditable() {
			return pkgerrors.NewInvalidStateError(resourceContainer, id, container.Status, "update")
		}

		if input.SerialNumber != nil {
			container.SerialNumber = *input.SerialNumber
		}
		if input.Type != nil {
			container.Type = *input.Type
		}
		if input.WeightKg != nil {
			container.WeightKg = *input.WeightKg
		}
		if input.VolumeM3 != nil {
			container.VolumeM3 = *input.VolumeM3
		}

		return wrapAlreadyExists(tx.Containers().Update(ctx, container), resourceContainer, "serial_number", container.SerialNumber)
	})
	if err != nil {
		return nil, err
	}
	return container, nil
}

// ChangeStatus переводит контейнер в новое состояние по таблице переходов.
// Переход в текущее состояние ничего не меняет
func (u *ContainerUseCase) ChangeStatus(ctx context.Context, id uint, status entity.ContainerStatus) (*entity.Container, error) {
	if !status.IsValid() {
		return nil, pkgerrors.NewValidationError("status", fmt.Sprintf("неизвестное состояние %q", status))
	}

	var container *entity.Container
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		container, err = tx.Containers().GetByIDForUpdate(ctx, id)
		if err != nil {
			return wrapNotFound(err, resourceContainer, id)
		}
		if container.Status == status {
			return nil
		}
		if !container.Status.CanTransitionTo(status) {
			return pkgerrors.NewInvalidStateError(resourceContainer, id, container.Status, fmt.Sprintf("переход в %s", status))
		}

		previous := container.Status
		container.Status = status
		if err := tx.Containers().Update(ctx, container); err != nil {
			return err
		}
		u.logger.Printf("Контейнер ID=%d: %s -> %s", id, previous, status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return container, nil
}

// Delete удаляет зарегистрированный контейнер без активной заявки
func (u *ContainerUseCase) Delete(ctx context.Context, id uint) error {
	return u.store.Transaction(ctx, func(tx repo.Store) error {
		container, err := tx.Containers().GetByIDForUpdate(ctx, id)
		if err != nil {
			return wrapNotFound(err, resourceContainer, id)
		}
		if !container.IsDeletable() {
			return pkgerrors.NewInvalidStateError(resourceContainer, id, container.Status, "delete")
		}

		active, err := tx.Requests().FindActiveByContainer(ctx, id)
		if err == nil {
			return pkgerrors.NewInvalidStateError(resourceContainer, id, fmt.Sprintf("активная заявка ID=%d", active.ID), "delete")
		}
		if !errors.Is(err, repo.ErrRequestNotFound) {
			return err
		}

		return wrapNotFound(tx.Containers().Delete(ctx, id), resourceContainer, id)
	})
}
