package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// RequestRepositoryImpl реализация репозитория заявок на GORM
type RequestRepositoryImpl struct {
	db *gorm.DB
}

func (r *RequestRepositoryImpl) Create(ctx context.Context, request *entity.Request) error {
	return translate(r.db.WithContext(ctx).Create(request).Error, ErrRequestNotFound)
}

func (r *RequestRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Request, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *RequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Request, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

func (r *RequestRepositoryImpl) GetByRouteID(ctx context.Context, routeID uint) (*entity.Request, error) {
	return r.first(r.db.WithContext(ctx).Where("route_id = ?", routeID))
}

func (r *RequestRepositoryImpl) FindActiveByContainer(ctx context.Context, containerID uint) (*entity.Request, error) {
	return r.first(r.db.WithContext(ctx).
		Where("container_id = ? AND status <> ?", containerID, entity.RequestStatusDelivered))
}

func (r *RequestRepositoryImpl) first(db *gorm.DB) (*entity.Request, error) {
	var request entity.Request
	if err := db.First(&request).Error; err != nil {
		return nil, translate(err, ErrRequestNotFound)
	}
	return &request, nil
}

func (r *RequestRepositoryImpl) Update(ctx context.Context, request *entity.Request) error {
	return translate(r.db.WithContext(ctx).Save(request).Error, ErrRequestNotFound)
}

func (r *RequestRepositoryImpl) List(ctx context.Context) ([]entity.Request, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *RequestRepositoryImpl) ListByClient(ctx context.Context, clientID uint) ([]entity.Request, error) {
	return r.find(r.db.WithContext(ctx).Where("client_id = ?", clientID))
}

func (r *RequestRepositoryImpl) ListByStatus(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", status))
}

func (r *RequestRepositoryImpl) ListActive(ctx context.Context) ([]entity.Request, error) {
	return r.find(r.db.WithContext(ctx).Where("status <> ?", entity.RequestStatusDelivered))
}

func (r *RequestRepositoryImpl) find(db *gorm.DB) ([]entity.Request, error) {
	var requests []entity.Request
	if err := db.Order("id").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
