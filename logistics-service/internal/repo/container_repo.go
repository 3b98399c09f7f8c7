package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// ContainerRepositoryImpl реализация репозитория контейнеров на GORM
type ContainerRepositoryImpl struct {
	db *gorm.DB
}

func (r *ContainerRepositoryImpl) Create(ctx context.Context, container *entity.Container) error {
	return translate(r.db.WithContext(ctx).Create(container).Error, ErrContainerNotFound)
}

func (r *ContainerRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Container, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *ContainerRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Container, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *ContainerRepositoryImpl) get(db *gorm.DB, id uint) (*entity.Container, error) {
	var container entity.Container
	if err := db.First(&container, id).Error; err != nil {
		return nil, translate(err, ErrContainerNotFound)
	}
	return &container, nil
}

func (r *ContainerRepositoryImpl) GetBySerial(ctx context.Context, serial string) (*entity.Container, error) {
	var container entity.Container
	if err := r.db.WithContext(ctx).Where("serial_number = ?", serial).First(&container).Error; err != nil {
		return nil, translate(err, ErrContainerNotFound)
	}
	return &container, nil
}

func (r *ContainerRepositoryImpl) Update(ctx context.Context, container *entity.Container) error {
	return translate(r.db.WithContext(ctx).Save(container).Error, ErrContainerNotFound)
}

func (r *ContainerRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Container{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContainerNotFound
	}
	return nil
}

func (r *ContainerRepositoryImpl) ListByClient(ctx context.Context, clientID uint) ([]entity.Container, error) {
	var containers []entity.Container
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("id").Find(&containers).Error
	return containers, err
}

func (r *ContainerRepositoryImpl) ListByStatus(ctx context.Context, status entity.ContainerStatus) ([]entity.Container, error) {
	var containers []entity.Container
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("id").Find(&containers).Error
	return containers, err
}
