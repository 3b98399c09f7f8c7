package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// SegmentRepositoryImpl реализация репозитория участков на GORM
type SegmentRepositoryImpl struct {
	db *gorm.DB
}

func (r *SegmentRepositoryImpl) Create(ctx context.Context, segment *entity.Segment) error {
	return translate(r.db.WithContext(ctx).Create(segment).Error, ErrSegmentNotFound)
}

func (r *SegmentRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Segment, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *SegmentRepositoryImpl) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Segment, error) {
	return r.get(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *SegmentRepositoryImpl) get(db *gorm.DB, id uint) (*entity.Segment, error) {
	var segment entity.Segment
	if err := db.First(&segment, id).Error; err != nil {
		return nil, translate(err, ErrSegmentNotFound)
	}
	return &segment, nil
}

func (r *SegmentRepositoryImpl) Update(ctx context.Context, segment *entity.Segment) error {
	return translate(r.db.WithContext(ctx).Save(segment).Error, ErrSegmentNotFound)
}

func (r *SegmentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Segment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSegmentNotFound
	}
	return nil
}

func (r *SegmentRepositoryImpl) DeleteByRoute(ctx context.Context, routeID uint) error {
	return r.db.WithContext(ctx).Where("route_id = ?", routeID).Delete(&entity.Segment{}).Error
}

func (r *SegmentRepositoryImpl) ListByRoute(ctx context.Context, routeID uint) ([]entity.Segment, error) {
	var segments []entity.Segment
	err := r.db.WithContext(ctx).Where("route_id = ?", routeID).Order("position").Find(&segments).Error
	return segments, err
}

func (r *SegmentRepositoryImpl) ListByStatus(ctx context.Context, status entity.SegmentStatus) ([]entity.Segment, error) {
	var segments []entity.Segment
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("route_id, position").Find(&segments).Error
	return segments, err
}

func (r *SegmentRepositoryImpl) ListByTruck(ctx context.Context, truckID uint) ([]entity.Segment, error) {
	var segments []entity.Segment
	err := r.db.WithContext(ctx).Where("truck_id = ?", truckID).Order("route_id, position").Find(&segments).Error
	return segments, err
}
