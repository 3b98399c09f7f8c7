package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// RouteRepositoryImpl реализация репозитория маршрутов на GORM
type RouteRepositoryImpl struct {
	db *gorm.DB
}

func (r *RouteRepositoryImpl) Create(ctx context.Context, route *entity.Route) error {
	return translate(r.db.WithContext(ctx).Create(route).Error, ErrRouteNotFound)
}

func (r *RouteRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Route, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *RouteRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Route, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *RouteRepositoryImpl) get(db *gorm.DB, id uint) (*entity.Route, error) {
	var route entity.Route
	if err := db.First(&route, id).Error; err != nil {
		return nil, translate(err, ErrRouteNotFound)
	}
	return &route, nil
}

func (r *RouteRepositoryImpl) Update(ctx context.Context, route *entity.Route) error {
	return translate(r.db.WithContext(ctx).Save(route).Error, ErrRouteNotFound)
}

func (r *RouteRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Route{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRouteNotFound
	}
	return nil
}

func (r *RouteRepositoryImpl) List(ctx context.Context) ([]entity.Route, error) {
	var routes []entity.Route
	if err := r.db.WithContext(ctx).Order("id").Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}
