package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// GormStore реализация Store на PostgreSQL через GORM
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models модели для автомиграции
func Models() []interface{} {
	return []interface{}{
		&entity.Client{},
		&entity.Container{},
		&entity.Route{},
		&entity.Segment{},
		&entity.Request{},
	}
}

func (s *GormStore) Clients() ClientRepository {
	return &ClientRepositoryImpl{db: s.db}
}

func (s *GormStore) Containers() ContainerRepository {
	return &ContainerRepositoryImpl{db: s.db}
}

func (s *GormStore) Requests() RequestRepository {
	return &RequestRepositoryImpl{db: s.db}
}

func (s *GormStore) Routes() RouteRepository {
	return &RouteRepositoryImpl{db: s.db}
}

func (s *GormStore) Segments() SegmentRepository {
	return &SegmentRepositoryImpl{db: s.db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// forUpdate добавляет SELECT ... FOR UPDATE
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translate приводит ошибки GORM к ошибкам хранилища
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
