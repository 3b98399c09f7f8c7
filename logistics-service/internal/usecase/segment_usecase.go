package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

// SegmentUseCase жизненный цикл участка маршрута
type SegmentUseCase struct {
	store    repo.Store
	requests *RequestUseCase
	fleet    FleetService
	events   *EventPublisher
	now      func() time.Time
	logger   *log.Logger
}

func NewSegmentUseCase(store repo.Store, requests *RequestUseCase, fleet FleetService, events *EventPublisher) *SegmentUseCase {
	return &SegmentUseCase{
		store:    store,
		requests: requests,
		fleet:    fleet,
		events:   events,
		now:      time.Now,
		logger:   log.New(log.Writer(), "[SegmentUseCase] ", log.LstdFlags),
	}
}

func invalidSegmentState(seg *entity.Segment, action entity.SegmentAction) error {
	return pkgerrors.NewInvalidStateError(resourceSegment, seg.ID, seg.Status, string(action))
}

// lockSegment блокирует маршрут участка, затем сам участок. Блокировка маршрута
// сериализует операции над участками одного маршрута, поэтому проверка
// "все участки завершены" видит согласованное состояние
func lockSegment(ctx context.Context, tx repo.Store, segmentID uint) (*entity.Segment, error) {
	seg, err := tx.Segments().GetByID(ctx, segmentID)
	if err != nil {
		return nil, wrapNotFound(err, resourceSegment, segmentID)
	}
	if _, err := tx.Routes().GetByIDForUpdate(ctx, seg.RouteID); err != nil {
		return nil, wrapNotFound(err, resourceRoute, seg.RouteID)
	}
	seg, err = tx.Segments().GetByIDForUpdate(ctx, segmentID)
	if err != nil {
		return nil, wrapNotFound(err, resourceSegment, segmentID)
	}
	return seg, nil
}

// AssignTruck назначает грузовик участку. Проверка грузовика во внешнем сервисе
// выполняется до транзакции, затем состояние участка перепроверяется под блокировкой
func (u *SegmentUseCase) AssignTruck(ctx context.Context, segmentID, truckID uint) (*entity.Segment, error) {
	if truckID == 0 {
		return nil, pkgerrors.NewValidationError("truck_id", "идентификатор грузовика обязателен")
	}

	seg, err := u.store.Segments().GetByID(ctx, segmentID)
	if err != nil {
		return nil, wrapNotFound(err, resourceSegment, segmentID)
	}
	if _, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionAssignTruck); !ok {
		return nil, invalidSegmentState(seg, entity.SegmentActionAssignTruck)
	}

	container, err := u.containerForRoute(ctx, seg.RouteID)
	if err != nil {
		return nil, err
	}

	if err := u.fleet.ValidateAndReserve(ctx, truckID, container.WeightKg, container.VolumeM3); err != nil {
		return nil, pkgerrors.HandleServiceError(err, fmt.Sprintf("резервирование грузовика ID=%d для участка ID=%d", truckID, segmentID))
	}

	err = u.store.Transaction(ctx, func(tx repo.Store) error {
		seg, err = lockSegment(ctx, tx, segmentID)
		if err != nil {
			return err
		}
		next, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionAssignTruck)
		if !ok {
			return invalidSegmentState(seg, entity.SegmentActionAssignTruck)
		}

		seg.TruckID = &truckID
		seg.Status = next
		return tx.Segments().Update(ctx, seg)
	})
	if err != nil {
		return nil, err
	}

	u.logger.Printf("Участку ID=%d назначен грузовик ID=%d", seg.ID, truckID)
	u.events.SegmentChanged(ctx, entity.EventSegmentAssigned, seg)
	return seg, nil
}

// containerForRoute контейнер заявки, которой назначен маршрут
func (u *SegmentUseCase) containerForRoute(ctx context.Context, routeID uint) (*entity.Container, error) {
	request, err := u.store.Requests().GetByRouteID(ctx, routeID)
	if errors.Is(err, repo.ErrRequestNotFound) {
		return nil, pkgerrors.NewPreconditionFailedError(fmt.Sprintf("маршрут ID=%d не назначен ни одной заявке", routeID))
	}
	if err != nil {
		return nil, err
	}

	container, err := u.store.Containers().GetByID(ctx, request.ContainerID)
	if err != nil {
		return nil, wrapNotFound(err, resourceContainer, request.ContainerID)
	}
	return container, nil
}

// Start начинает участок. Первый начатый участок переводит заявку в IN_TRANSIT
func (u *SegmentUseCase) Start(ctx context.Context, segmentID uint) (*entity.Segment, error) {
	var seg *entity.Segment
	var changed *entity.Request

	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		seg, err = lockSegment(ctx, tx, segmentID)
		if err != nil {
			return err
		}

		next, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionStart)
		if !ok {
			return invalidSegmentState(seg, entity.SegmentActionStart)
		}
		if seg.TruckID == nil {
			return pkgerrors.NewPreconditionFailedError(fmt.Sprintf("участку ID=%d не назначен грузовик", seg.ID))
		}

		startedAt := u.now()
		seg.StartedAt = &startedAt
		seg.Status = next
		if err := tx.Segments().Update(ctx, seg); err != nil {
			return err
		}

		changed, err = u.requests.onSegmentStarted(ctx, tx, seg.RouteID)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.logger.Printf("Участок ID=%d начат", seg.ID)
	u.events.SegmentChanged(ctx, entity.EventSegmentStarted, seg)
	u.events.RequestChanged(ctx, entity.EventRequestInTransit, changed)
	return seg, nil
}

// Finish завершает участок. Завершение последнего участка финализирует заявку
// в той же транзакции
func (u *SegmentUseCase) Finish(ctx context.Context, segmentID uint) (*entity.Segment, error) {
	var seg *entity.Segment
	var delivered *entity.Request

	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		seg, err = lockSegment(ctx, tx, segmentID)
		if err != nil {
			return err
		}

		next, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionFinish)
		if !ok {
			return invalidSegmentState(seg, entity.SegmentActionFinish)
		}

		finishedAt := u.now()
		seg.FinishedAt = &finishedAt
		seg.Status = next
		if err := tx.Segments().Update(ctx, seg); err != nil {
			return err
		}

		segments, err := tx.Segments().ListByRoute(ctx, seg.RouteID)
		if err != nil {
			return err
		}

		delivered, err = u.requests.onSegmentFinished(ctx, tx, seg, segments)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.logger.Printf("Участок ID=%d завершен", seg.ID)
	u.events.SegmentChanged(ctx, entity.EventSegmentFinished, seg)
	u.events.RequestChanged(ctx, entity.EventRequestDelivered, delivered)
	return seg, nil
}

// SetActualCost фиксирует фактическую стоимость завершенного участка
func (u *SegmentUseCase) SetActualCost(ctx context.Context, segmentID uint, cost float64) (*entity.Segment, error) {
	if cost < 0 {
		return nil, pkgerrors.NewValidationError("actual_cost", "стоимость не может быть отрицательной")
	}

	var seg *entity.Segment
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		seg, err = lockSegment(ctx, tx, segmentID)
		if err != nil {
			return err
		}
		if _, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionSetActualCost); !ok {
			return invalidSegmentState(seg, entity.SegmentActionSetActualCost)
		}

		seg.ActualCost = &cost
		return tx.Segments().Update(ctx, seg)
	})
	if err != nil {
		return nil, err
	}
	return seg, nil
}

// Update изменяет рассчитанный участок и пересчитывает итоги маршрута и плановые значения заявки
func (u *SegmentUseCase) Update(ctx context.Context, segmentID uint, input entity.UpdateSegmentRequest) (*entity.Segment, error) {
	if input.Type != nil && !input.Type.IsValid() {
		return nil, pkgerrors.NewValidationError("type", fmt.Sprintf("неизвестный тип участка %q", *input.Type))
	}
	if input.EstimatedCost != nil && *input.EstimatedCost < 0 {
		return nil, pkgerrors.NewValidationError("estimated_cost", "стоимость не может быть отрицательной")
	}

	var seg *entity.Segment
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		seg, err = lockSegment(ctx, tx, segmentID)
		if err != nil {
			return err
		}
		if _, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionUpdate); !ok {
			return invalidSegmentState(seg, entity.SegmentActionUpdate)
		}

		if input.Origin != nil {
			seg.Origin = *input.Origin
		}
		if input.Destination != nil {
			seg.Destination = *input.Destination
		}
		if input.Type != nil {
			seg.Type = *input.Type
		}
		if input.EstimatedCost != nil {
			seg.EstimatedCost = input.EstimatedCost
		}
		if err := tx.Segments().Update(ctx, seg); err != nil {
			return err
		}
		return refreshRouteTotals(ctx, tx, seg.RouteID)
	})
	if err != nil {
		return nil, err
	}
	return seg, nil
}

// Delete удаляет рассчитанный участок, пока перевозка по маршруту не началась.
// Последний участок маршрута, назначенного заявке, удалить нельзя
func (u *SegmentUseCase) Delete(ctx context.Context, segmentID uint) error {
	return u.store.Transaction(ctx, func(tx repo.Store) error {
		seg, err := lockSegment(ctx, tx, segmentID)
		if err != nil {
			return err
		}
		if _, ok := entity.NextSegmentStatus(seg.Status, entity.SegmentActionDelete); !ok {
			return invalidSegmentState(seg, entity.SegmentActionDelete)
		}

		segments, err := tx.Segments().ListByRoute(ctx, seg.RouteID)
		if err != nil {
			return err
		}
		// после начала перевозки состав маршрута не меняется
		for _, s := range segments {
			if s.Status == entity.SegmentStatusStarted || s.Status == entity.SegmentStatusFinished {
				return pkgerrors.NewInvalidStateError(resourceRoute, seg.RouteID, s.Status, "delete_segment")
			}
		}

		linked, err := tx.Requests().GetByRouteID(ctx, seg.RouteID)
		switch {
		case errors.Is(err, repo.ErrRequestNotFound):
		case err != nil:
			return err
		case linked.Status != entity.RequestStatusDraft && linked.Status != entity.RequestStatusScheduled:
			return pkgerrors.NewInvalidStateError(resourceRequest, linked.ID, linked.Status, "delete_segment")
		case len(segments) == 1:
			return pkgerrors.NewInvalidStateError(resourceSegment, seg.ID, seg.Status, "delete_last_segment")
		}

		if err := tx.Segments().Delete(ctx, seg.ID); err != nil {
			return wrapNotFound(err, resourceSegment, seg.ID)
		}
		return refreshRouteTotals(ctx, tx, seg.RouteID)
	})
}

func (u *SegmentUseCase) Get(ctx context.Context, id uint) (*entity.Segment, error) {
	seg, err := u.store.Segments().GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, resourceSegment, id)
	}
	return seg, nil
}

func (u *SegmentUseCase) ListByRoute(ctx context.Context, routeID uint) ([]entity.Segment, error) {
	if _, err := u.store.Routes().GetByID(ctx, routeID); err != nil {
		return nil, wrapNotFound(err, resourceRoute, routeID)
	}
	return u.store.Segments().ListByRoute(ctx, routeID)
}

func (u *SegmentUseCase) ListByStatus(ctx context.Context, status entity.SegmentStatus) ([]entity.Segment, error) {
	if !status.IsValid() {
		return nil, pkgerrors.NewValidationError("status", fmt.Sprintf("неизвестное состояние %q", status))
	}
	return u.store.Segments().ListByStatus(ctx, status)
}

func (u *SegmentUseCase) ListByTruck(ctx context.Context, truckID uint) ([]entity.Segment, error) {
	return u.store.Segments().ListByTruck(ctx, truckID)
}
