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

// RouteUseCase планирование маршрутов
type RouteUseCase struct {
	store    repo.Store
	distance DistanceProvider
	tariffs  TariffProvider
	logger   *log.Logger
}

// NewRouteUseCase создает use case маршрутов. distance может быть nil,
// тогда участки без оценки остаются без расстояния и стоимости
func NewRouteUseCase(store repo.Store, distance DistanceProvider, tariffs TariffProvider) *RouteUseCase {
	return &RouteUseCase{
		store:    store,
		distance: distance,
		tariffs:  tariffs,
		logger:   log.New(log.Writer(), "[RouteUseCase] ", log.LstdFlags),
	}
}

func validateSegmentInputs(inputs []entity.SegmentInput) error {
	if len(inputs) == 0 {
		return pkgerrors.NewBadRequestError("маршрут должен содержать хотя бы один участок")
	}
	for i, in := range inputs {
		if !in.Type.IsValid() {
			return pkgerrors.NewValidationError(fmt.Sprintf("segments[%d].type", i), fmt.Sprintf("неизвестный тип участка %q", in.Type))
		}
		if in.Origin == "" || in.Destination == "" {
			return pkgerrors.NewValidationError(fmt.Sprintf("segments[%d]", i), "начальная и конечная точки обязательны")
		}
	}
	return nil
}

// Create создает маршрут и его участки одной транзакцией. Порядок списка становится
// порядком выполнения. Недостающие расстояния и плановые стоимости запрашиваются
// у сервиса геолокации до начала транзакции
func (u *RouteUseCase) Create(ctx context.Context, input entity.CreateRouteRequest) (*entity.RouteDetails, error) {
	if err := validateSegmentInputs(input.Segments); err != nil {
		return nil, err
	}

	segments := u.buildSegments(ctx, input.Segments)

	var details *entity.RouteDetails
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		route := &entity.Route{}
		if err := tx.Routes().Create(ctx, route); err != nil {
			return err
		}

		for i := range segments {
			segments[i].RouteID = route.ID
			if err := tx.Segments().Create(ctx, &segments[i]); err != nil {
				return err
			}
		}

		applyRouteTotals(route, segments)
		if err := tx.Routes().Update(ctx, route); err != nil {
			return err
		}

		details = &entity.RouteDetails{Route: *route, Segments: segments}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Printf("Создан маршрут ID=%d из %d участков", details.ID, len(details.Segments))
	return details, nil
}

// buildSegments готовит участки к сохранению и дополняет оценки данными геолокации.
// Ошибка геолокации не прерывает создание маршрута
func (u *RouteUseCase) buildSegments(ctx context.Context, inputs []entity.SegmentInput) []entity.Segment {
	var tariff *entity.Tariff
	segments := make([]entity.Segment, len(inputs))

	for i, in := range inputs {
		seg := entity.Segment{
			Position:           i,
			Origin:             in.Origin,
			Destination:        in.Destination,
			Type:               in.Type,
			Status:             entity.SegmentStatusEstimated,
			DistanceKm:         in.DistanceKm,
			EstimatedTimeHours: in.EstimatedTimeHours,
			EstimatedCost:      in.EstimatedCost,
		}

		if u.distance != nil && (seg.DistanceKm == nil || seg.EstimatedCost == nil) {
			if tariff == nil {
				t, err := u.tariffs.CurrentTariff(ctx)
				if err != nil {
					u.logger.Printf("[WARN] Тариф недоступен, оценка участков пропущена: %v", err)
					t = entity.DefaultTariff()
				}
				tariff = &t
			}
			u.seedEstimate(ctx, &seg, *tariff)
		}

		segments[i] = seg
	}
	return segments
}

func (u *RouteUseCase) seedEstimate(ctx context.Context, seg *entity.Segment, tariff entity.Tariff) {
	result, err := u.distance.GetDistance(ctx, seg.Origin, seg.Destination)
	if err != nil {
		u.logger.Printf("[WARN] Не удалось получить расстояние %s -> %s: %v", seg.Origin, seg.Destination, err)
		return
	}

	if seg.DistanceKm == nil {
		km := result.DistanceKm
		seg.DistanceKm = &km
	}
	if seg.EstimatedTimeHours == nil {
		hours := result.DurationHours
		seg.EstimatedTimeHours = &hours
	}
	if seg.EstimatedCost == nil {
		cost := *seg.DistanceKm * tariff.CostPerKm
		seg.EstimatedCost = &cost
	}
}

// applyRouteTotals суммирует расстояние, время и плановую стоимость участков
func applyRouteTotals(route *entity.Route, segments []entity.Segment) {
	var distance, hours, cost float64
	var hasDistance, hasHours bool
	for _, s := range segments {
		if s.DistanceKm != nil {
			distance += *s.DistanceKm
			hasDistance = true
		}
		if s.EstimatedTimeHours != nil {
			hours += *s.EstimatedTimeHours
			hasHours = true
		}
		if s.EstimatedCost != nil {
			cost += *s.EstimatedCost
		}
	}

	route.TotalDistanceKm = nil
	if hasDistance {
		route.TotalDistanceKm = &distance
	}
	route.EstimatedTimeHours = nil
	if hasHours {
		route.EstimatedTimeHours = &hours
	}
	route.EstimatedCost = &cost
}

// refreshRouteTotals пересчитывает итоги маршрута и плановые значения назначенной заявки внутри транзакции
func refreshRouteTotals(ctx context.Context, tx repo.Store, routeID uint) error {
	route, err := tx.Routes().GetByIDForUpdate(ctx, routeID)
	if err != nil {
		return wrapNotFound(err, resourceRoute, routeID)
	}
	segments, err := tx.Segments().ListByRoute(ctx, routeID)
	if err != nil {
		return err
	}
	applyRouteTotals(route, segments)
	if err := tx.Routes().Update(ctx, route); err != nil {
		return err
	}
	_, err = refreshRequestEstimate(ctx, tx, route)
	return err
}

// RecalculateEstimate пересчитывает плановую стоимость маршрута как сумму плановых
// стоимостей участков. Расстояние и время не меняются
func (u *RouteUseCase) RecalculateEstimate(ctx context.Context, routeID uint) (*entity.Route, error) {
	var route *entity.Route
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		route, err = tx.Routes().GetByIDForUpdate(ctx, routeID)
		if err != nil {
			return wrapNotFound(err, resourceRoute, routeID)
		}

		segments, err := tx.Segments().ListByRoute(ctx, routeID)
		if err != nil {
			return err
		}

		var cost float64
		for _, s := range segments {
			if s.EstimatedCost != nil {
				cost += *s.EstimatedCost
			}
		}
		route.EstimatedCost = &cost
		return tx.Routes().Update(ctx, route)
	})
	if err != nil {
		return nil, err
	}
	return route, nil
}

// Progress ход выполнения маршрута
func (u *RouteUseCase) Progress(ctx context.Context, routeID uint) (*entity.RouteProgress, error) {
	if _, err := u.store.Routes().GetByID(ctx, routeID); err != nil {
		return nil, wrapNotFound(err, resourceRoute, routeID)
	}
	segments, err := u.store.Segments().ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	progress := &entity.RouteProgress{RouteID: routeID, Total: len(segments)}
	for _, s := range segments {
		switch s.Status {
		case entity.SegmentStatusFinished:
			progress.Finished++
		case entity.SegmentStatusStarted:
			progress.Started++
		}
	}
	if progress.Total > 0 {
		progress.PercentComplete = float64(progress.Finished) / float64(progress.Total) * 100
	}
	return progress, nil
}

// Update заменяет участки маршрута. Недопустимо, если хотя бы один участок начат или завершен
func (u *RouteUseCase) Update(ctx context.Context, routeID uint, input entity.CreateRouteRequest) (*entity.RouteDetails, error) {
	if err := validateSegmentInputs(input.Segments); err != nil {
		return nil, err
	}
	if _, err := u.store.Routes().GetByID(ctx, routeID); err != nil {
		return nil, wrapNotFound(err, resourceRoute, routeID)
	}

	segments := u.buildSegments(ctx, input.Segments)

	var details *entity.RouteDetails
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		route, err := tx.Routes().GetByIDForUpdate(ctx, routeID)
		if err != nil {
			return wrapNotFound(err, resourceRoute, routeID)
		}

		current, err := tx.Segments().ListByRoute(ctx, routeID)
		if err != nil {
			return err
		}
		for _, s := range current {
			if s.Status == entity.SegmentStatusStarted || s.Status == entity.SegmentStatusFinished {
				return pkgerrors.NewInvalidStateError(resourceRoute, routeID, s.Status, "update")
			}
		}

		if err := tx.Segments().DeleteByRoute(ctx, routeID); err != nil {
			return err
		}
		for i := range segments {
			segments[i].RouteID = routeID
			if err := tx.Segments().Create(ctx, &segments[i]); err != nil {
				return err
			}
		}

		applyRouteTotals(route, segments)
		if err := tx.Routes().Update(ctx, route); err != nil {
			return err
		}

		details = &entity.RouteDetails{Route: *route, Segments: segments}
		details.RequestID, err = refreshRequestEstimate(ctx, tx, route)
		return err
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// refreshRequestEstimate обновляет плановые значения заявки в состоянии SCHEDULED,
// которой назначен маршрут. Возвращает ID назначенной заявки или nil
func refreshRequestEstimate(ctx context.Context, tx repo.Store, route *entity.Route) (*uint, error) {
	linked, err := tx.Requests().GetByRouteID(ctx, route.ID)
	if errors.Is(err, repo.ErrRequestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	request, err := tx.Requests().GetByIDForUpdate(ctx, linked.ID)
	if err != nil {
		return nil, err
	}
	if request.Status != entity.RequestStatusScheduled {
		return &request.ID, nil
	}

	request.EstimatedCost = route.EstimatedCost
	request.EstimatedTimeHours = route.EstimatedTimeHours
	return &request.ID, tx.Requests().Update(ctx, request)
}

// Delete удаляет маршрут, не назначенный ни одной заявке
func (u *RouteUseCase) Delete(ctx context.Context, routeID uint) error {
	return u.store.Transaction(ctx, func(tx repo.Store) error {
		if _, err := tx.Routes().GetByIDForUpdate(ctx, routeID); err != nil {
			return wrapNotFound(err, resourceRoute, routeID)
		}

		linked, err := tx.Requests().GetByRouteID(ctx, routeID)
		if err == nil {
			return pkgerrors.NewInvalidStateError(resourceRoute, routeID, fmt.Sprintf("назначен заявке ID=%d", linked.ID), "delete")
		}
		if !errors.Is(err, repo.ErrRequestNotFound) {
			return err
		}

		if err := tx.Segments().DeleteByRoute(ctx, routeID); err != nil {
			return err
		}
		return wrapNotFound(tx.Routes().Delete(ctx, routeID), resourceRoute, routeID)
	})
}

// Get маршрут с участками в порядке выполнения
func (u *RouteUseCase) Get(ctx context.Context, routeID uint) (*entity.RouteDetails, error) {
	route, err := u.store.Routes().GetByID(ctx, routeID)
	if err != nil {
		return nil, wrapNotFound(err, resourceRoute, routeID)
	}
	segments, err := u.store.Segments().ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	details := &entity.RouteDetails{Route: *route, Segments: segments}
	linked, err := u.store.Requests().GetByRouteID(ctx, routeID)
	switch {
	case err == nil:
		details.RequestID = &linked.ID
	case !errors.Is(err, repo.ErrRequestNotFound):
		return nil, err
	}
	return details, nil
}

func (u *RouteUseCase) List(ctx context.Context) ([]entity.Route, error) {
	return u.store.Routes().List(ctx)
}

// Validate проверяет, что маршрут начинается у отправителя и заканчивается у получателя
func (u *RouteUseCase) Validate(ctx context.Context, routeID uint) (*entity.RouteValidation, error) {
	if _, err := u.store.Routes().GetByID(ctx, routeID); err != nil {
		return nil, wrapNotFound(err, resourceRoute, routeID)
	}
	segments, err := u.store.Segments().ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	types := make([]entity.SegmentType, len(segments))
	for i, s := range segments {
		types[i] = s.Type
	}
	issues := entity.ValidateSegmentChain(types)
	return &entity.RouteValidation{RouteID: routeID, Valid: len(issues) == 0, Issues: issues}, nil
}
