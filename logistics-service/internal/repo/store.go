package repo

import (
	"context"
	"fmt"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/pkg/errors"
)

// Ошибки хранилища. Оборачивают общие ошибки pkg/errors, чтобы HTTP слой
// мог определить статус без знания о конкретном репозитории
var (
	ErrClientNotFound    = fmt.Errorf("клиент: %w", errors.ErrNotFound)
	ErrContainerNotFound = fmt.Errorf("контейнер: %w", errors.ErrNotFound)
	ErrRequestNotFound   = fmt.Errorf("заявка: %w", errors.ErrNotFound)
	ErrRouteNotFound     = fmt.Errorf("маршрут: %w", errors.ErrNotFound)
	ErrSegmentNotFound   = fmt.Errorf("участок: %w", errors.ErrNotFound)
	ErrDuplicate         = fmt.Errorf("нарушение уникальности: %w", errors.ErrAlreadyExists)
)

// Store доступ ко всем агрегатам. Связи между агрегатами хранятся как идентификаторы
type Store interface {
	Clients() ClientRepository
	Containers() ContainerRepository
	Requests() RequestRepository
	Routes() RouteRepository
	Segments() SegmentRepository

	// Transaction выполняет fn атомарно: все изменения применяются, только если fn вернула nil.
	// Методы *ForUpdate внутри транзакции блокируют запись до ее завершения
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id uint) (*entity.Client, error)
	GetByEmail(ctx context.Context, email string) (*entity.Client, error)
	List(ctx context.Context) ([]entity.Client, error)
}

type ContainerRepository interface {
	Create(ctx context.Context, container *entity.Container) error
	GetByID(ctx context.Context, id uint) (*entity.Container, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.Container, error)
	GetBySerial(ctx context.Context, serial string) (*entity.Container, error)
	Update(ctx context.Context, container *entity.Container) error
	Delete(ctx context.Context, id uint) error
	ListByClient(ctx context.Context, clientID uint) ([]entity.Container, error)
	ListByStatus(ctx context.Context, status entity.ContainerStatus) ([]entity.Container, error)
}

type RequestRepository interface {
	Create(ctx context.Context, request *entity.Request) error
	GetByID(ctx context.Context, id uint) (*entity.Request, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.Request, error)
	GetByRouteID(ctx context.Context, routeID uint) (*entity.Request, error)
	// FindActiveByContainer возвращает недоставленную заявку контейнера или ErrRequestNotFound
	FindActiveByContainer(ctx context.Context, containerID uint) (*entity.Request, error)
	Update(ctx context.Context, request *entity.Request) error
	List(ctx context.Context) ([]entity.Request, error)
	ListByClient(ctx context.Context, clientID uint) ([]entity.Request, error)
	ListByStatus(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error)
	ListActive(ctx context.Context) ([]entity.Request, error)
}

type RouteRepository interface {
	Create(ctx context.Context, route *entity.Route) error
	GetByID(ctx context.Context, id uint) (*entity.Route, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.Route, error)
	Update(ctx context.Context, route *entity.Route) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]entity.Route, error)
}

type SegmentRepository interface {
	Create(ctx context.Context, segment *entity.Segment) error
	GetByID(ctx context.Context, id uint) (*entity.Segment, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.Segment, error)
	Update(ctx context.Context, segment *entity.Segment) error
	Delete(ctx context.Context, id uint) error
	DeleteByRoute(ctx context.Context, routeID uint) error
	// ListByRoute возвращает участки в порядке выполнения
	ListByRoute(ctx context.Context, routeID uint) ([]entity.Segment, error)
	ListByStatus(ctx context.Context, status entity.SegmentStatus) ([]entity.Segment, error)
	ListByTruck(ctx context.Context, truckID uint) ([]entity.Segment, error)
}
