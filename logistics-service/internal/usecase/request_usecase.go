package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"gorm.io/datatypes"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

// RequestFilter фильтр списка заявок
type RequestFilter struct {
	Status     entity.RequestStatus
	ActiveOnly bool
}

// RequestUseCase жизненный цикл заявки на перевозку
type RequestUseCase struct {
	store  repo.Store
	events *EventPublisher
	now    func() time.Time
	logger *log.Logger
}

func NewRequestUseCase(store repo.Store, events *EventPublisher) *RequestUseCase {
	return &RequestUseCase{
		store:  store,
		events: events,
		now:    time.Now,
		logger: log.New(log.Writer(), "[RequestUseCase] ", log.LstdFlags),
	}
}

// Create создает заявку в состоянии DRAFT. Клиент и контейнер ищутся по email и
// серийному номеру и создаются, если их еще нет
func (u *RequestUseCase) Create(ctx context.Context, identity entity.Identity, input entity.CreateRequestRequest) (*entity.RequestDetails, error) {
	email := entity.NormalizeEmail(input.Client.Email)
	if email == "" {
		return nil, pkgerrors.NewValidationError("client.email", "email обязателен")
	}
	if !identity.CanActFor(email) {
		return nil, pkgerrors.NewForbiddenError("клиент может создавать заявки только от своего имени")
	}
	if input.Container.SerialNumber == "" {
		return nil, pkgerrors.NewValidationError("container.serial_number", "серийный номер обязателен")
	}
	if input.Container.WeightKg <= 0 || input.Container.VolumeM3 <= 0 {
		return nil, pkgerrors.NewValidationError("container", "вес и объем должны быть положительными")
	}

	var details *entity.RequestDetails
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		client, err := findOrCreateClient(ctx, tx, input.Client, email)
		if err != nil {
			return err
		}

		container, err := u.findOrCreateContainer(ctx, tx, input.Container, client.ID)
		if err != nil {
			return err
		}

		active, err := tx.Requests().FindActiveByContainer(ctx, container.ID)
		switch {
		case err == nil:
			return pkgerrors.NewConflictError(fmt.Sprintf("для контейнера %s уже есть активная заявка ID=%d", container.SerialNumber, active.ID))
		case !errors.Is(err, repo.ErrRequestNotFound):
			return err
		}

		request := &entity.Request{
			ClientID:           client.ID,
			ContainerID:        container.ID,
			OriginAddress:      input.Origin.Address,
			OriginLat:          input.Origin.Lat,
			OriginLon:          input.Origin.Lon,
			DestinationAddress: input.Destination.Address,
			DestinationLat:     input.Destination.Lat,
			DestinationLon:     input.Destination.Lon,
			Status:             entity.RequestStatusDraft,
			CreatedAt:          u.now(),
		}
		if err := tx.Requests().Create(ctx, request); err != nil {
			return wrapDuplicate(err, "для контейнера уже есть активная заявка")
		}

		details = &entity.RequestDetails{Request: *request, Client: client, Container: container}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Printf("Создана заявка ID=%d для контейнера %s", details.ID, details.Container.SerialNumber)
	return details, nil
}

func findOrCreateClient(ctx context.Context, tx repo.Store, input entity.ClientInput, email string) (*entity.Client, error) {
	client, err := tx.Clients().GetByEmail(ctx, email)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, repo.ErrClientNotFound) {
		return nil, err
	}

	client = &entity.Client{
		Name:    input.Name,
		Email:   email,
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := tx.Clients().Create(ctx, client); err != nil {
		return nil, wrapAlreadyExists(err, resourceClient, "email", email)
	}
	return client, nil
}

// findOrCreateContainer возвращает контейнер, заблокированный до конца транзакции
func (u *RequestUseCase) findOrCreateContainer(ctx context.Context, tx repo.Store, input entity.ContainerInput, clientID uint) (*entity.Container, error) {
	existing, err := tx.Containers().GetBySerial(ctx, input.SerialNumber)
	if err != nil && !errors.Is(err, repo.ErrContainerNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.ClientID != clientID {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("контейнер %s принадлежит другому клиенту", input.SerialNumber))
		}
		return tx.Containers().GetByIDForUpdate(ctx, existing.ID)
	}

	container := &entity.Container{
		SerialNumber: input.SerialNumber,
		Type:         input.Type,
		WeightKg:     input.WeightKg,
		VolumeM3:     input.VolumeM3,
		Status:       entity.ContainerStatusRegistered,
		ClientID:     clientID,
	}
	if err := tx.Containers().Create(ctx, container); err != nil {
		return nil, wrapAlreadyExists(err, resourceContainer, "serial_number", input.SerialNumber)
	}
	return container, nil
}

// AssignRoute привязывает маршрут к заявке в состоянии DRAFT и копирует плановые стоимость и время
func (u *RequestUseCase) AssignRoute(ctx context.Context, identity entity.Identity, requestID, routeID uint) (*entity.Request, error) {
	var request *entity.Request
	err := u.store.Transaction(ctx, func(tx repo.Store) error {
		var err error
		request, err = tx.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return wrapNotFound(err, resourceRequest, requestID)
		}
		if err := u.checkOwnership(ctx, tx, identity, request); err != nil {
			return err
		}

		next, ok := entity.NextRequestStatus(request.Status, entity.RequestActionAssignRoute)
		if !ok {
			return pkgerrors.NewInvalidStateError(resourceRequest, request.ID, request.Status, string(entity.RequestActionAssignRoute))
		}

		route, err := tx.Routes().GetByIDForUpdate(ctx, routeID)
		if err != nil {
			return wrapNotFound(err, resourceRoute, routeID)
		}

		segments, err := tx.Segments().ListByRoute(ctx, route.ID)
		if err != nil {
			return err
		}
		if len(segments) == 0 {
			return pkgerrors.NewBadRequestError(fmt.Sprintf("маршрут ID=%d не содержит участков", route.ID))
		}

		linked, err := tx.Requests().GetByRouteID(ctx, route.ID)
		switch {
		case err == nil:
			return pkgerrors.NewConflictError(fmt.Sprintf("маршрут ID=%d уже назначен заявке ID=%d", route.ID, linked.ID))
		case !errors.Is(err, repo.ErrRequestNotFound):
			return err
		}

		request.RouteID = &route.ID
		request.EstimatedCost = route.EstimatedCost
		request.EstimatedTimeHours = route.EstimatedTimeHours
		request.Status = next

		if err := tx.Requests().Update(ctx, request); err != nil {
			return wrapDuplicate(err, "маршрут уже назначен другой заявке")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Printf("Заявке ID=%d назначен маршрут ID=%d", request.ID, routeID)
	u.events.RequestChanged(ctx, entity.EventRequestScheduled, request)
	return request, nil
}

// onSegmentStarted вызывается внутри транзакции старта участка: переводит заявку маршрута
// в IN_TRANSIT при первом старте и отправляет контейнер в путь.
// Возвращает заявку, если ее состояние изменилось
func (u *RequestUseCase) onSegmentStarted(ctx context.Context, tx repo.Store, routeID uint) (*entity.Request, error) {
	request, err := u.lockRequestByRoute(ctx, tx, routeID)
	if err != nil || request == nil {
		return nil, err
	}

	if err := mirrorContainerStatus(ctx, tx, u.logger, request.ContainerID, entity.ContainerStatusInTransit); err != nil {
		return nil, err
	}

	next, ok := entity.NextRequestStatus(request.Status, entity.RequestActionSegmentStarted)
	if !ok {
		return nil, nil
	}

	request.Status = next
	if err := tx.Requests().Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// onSegmentFinished вызывается внутри транзакции завершения участка. Когда завершены все
// участки маршрута, заявка финализируется и контейнер считается доставленным. Иначе, если
// участок закончился на складе, контейнер переводится на склад.
// Возвращает заявку, если она была финализирована
func (u *RequestUseCase) onSegmentFinished(ctx context.Context, tx repo.Store, finished *entity.Segment, segments []entity.Segment) (*entity.Request, error) {
	request, err := u.lockRequestByRoute(ctx, tx, finished.RouteID)
	if err != nil || request == nil {
		return nil, err
	}

	if !allFinished(segments) {
		if finished.Type.ArrivesAtWarehouse() {
			return nil, mirrorContainerStatus(ctx, tx, u.logger, request.ContainerID, entity.ContainerStatusInWarehouse)
		}
		return nil, nil
	}

	next, ok := entity.NextRequestStatus(request.Status, entity.RequestActionFinalize)
	if !ok {
		return nil, nil
	}

	u.finalize(request, segments)
	request.Status = next
	if err := tx.Requests().Update(ctx, request); err != nil {
		return nil, err
	}
	if err := mirrorContainerStatus(ctx, tx, u.logger, request.ContainerID, entity.ContainerStatusDelivered); err != nil {
		return nil, err
	}

	u.logger.Printf("Заявка ID=%d доставлена: стоимость %.2f, время %.2f ч", request.ID, *request.FinalCost, *request.RealTimeHours)
	return request, nil
}

func allFinished(segments []entity.Segment) bool {
	if len(segments) == 0 {
		return false
	}
	for _, s := range segments {
		if s.Status != entity.SegmentStatusFinished {
			return false
		}
	}
	return true
}

// finalize считает итоговые стоимость и время заявки
func (u *RequestUseCase) finalize(request *entity.Request, segments []entity.Segment) {
	var cost float64
	missing := 0
	var completedAt time.Time
	for _, s := range segments {
		if s.ActualCost != nil {
			cost += *s.ActualCost
		} else {
			missing++
		}
		if s.FinishedAt != nil && s.FinishedAt.After(completedAt) {
			completedAt = *s.FinishedAt
		}
	}
	if completedAt.IsZero() {
		completedAt = u.now()
	}

	minutes := math.Trunc(completedAt.Sub(request.CreatedAt).Minutes())
	hours := minutes / 60

	request.FinalCost = &cost
	request.RealTimeHours = &hours
	request.FinalizationDetails = datatypes.JSONMap{
		"segments":             len(segments),
		"missing_actual_costs": missing,
		"completed_at":         completedAt.UTC().Format(time.RFC3339),
		"real_time_minutes":    minutes,
	}
}

// lockRequestByRoute возвращает заблокированную заявку маршрута или nil, если маршрут не назначен
func (u *RequestUseCase) lockRequestByRoute(ctx context.Context, tx repo.Store, routeID uint) (*entity.Request, error) {
	linked, err := tx.Requests().GetByRouteID(ctx, routeID)
	if errors.Is(err, repo.ErrRequestNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx.Requests().GetByIDForUpdate(ctx, linked.ID)
}

// Get возвращает заявку с клиентом и контейнером
func (u *RequestUseCase) Get(ctx context.Context, identity entity.Identity, id uint) (*entity.RequestDetails, error) {
	request, err := u.store.Requests().GetByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, resourceRequest, id)
	}

	client, err := u.store.Clients().GetByID(ctx, request.ClientID)
	if err != nil {
		return nil, wrapNotFound(err, resourceClient, request.ClientID)
	}
	if !identity.CanActFor(client.Email) {
		return nil, pkgerrors.NewForbiddenError("заявка принадлежит другому клиенту")
	}

	container, err := u.store.Containers().GetByID(ctx, request.ContainerID)
	if err != nil {
		return nil, wrapNotFound(err, resourceContainer, request.ContainerID)
	}

	return &entity.RequestDetails{Request: *request, Client: client, Container: container}, nil
}

// ListByClient заявки клиента. Клиент видит только свои заявки
func (u *RequestUseCase) ListByClient(ctx context.Context, identity entity.Identity, clientID uint) ([]entity.Request, error) {
	client, err := u.store.Clients().GetByID(ctx, clientID)
	if err != nil {
		return nil, wrapNotFound(err, resourceClient, clientID)
	}
	if !identity.CanActFor(client.Email) {
		return nil, pkgerrors.NewForbiddenError("нельзя просматривать заявки другого клиента")
	}
	return u.store.Requests().ListByClient(ctx, clientID)
}

// ListMine заявки клиента, от имени которого выполняется запрос
func (u *RequestUseCase) ListMine(ctx context.Context, identity entity.Identity) ([]entity.Request, error) {
	client, err := u.store.Clients().GetByEmail(ctx, entity.NormalizeEmail(identity.Email))
	if errors.Is(err, repo.ErrClientNotFound) {
		return []entity.Request{}, nil
	}
	if err != nil {
		return nil, err
	}
	return u.store.Requests().ListByClient(ctx, client.ID)
}

// List список заявок для оператора
func (u *RequestUseCase) List(ctx context.Context, filter RequestFilter) ([]entity.Request, error) {
	switch {
	case filter.Status != "":
		if !filter.Status.IsValid() {
			return nil, pkgerrors.NewValidationError("status", fmt.Sprintf("неизвестное состояние %q", filter.Status))
		}
		return u.store.Requests().ListByStatus(ctx, filter.Status)
	case filter.ActiveOnly:
		return u.store.Requests().ListActive(ctx)
	default:
		return u.store.Requests().List(ctx)
	}
}

func (u *RequestUseCase) checkOwnership(ctx context.Context, tx repo.Store, identity entity.Identity, request *entity.Request) error {
	if !identity.IsSelfService() {
		return nil
	}
	client, err := tx.Clients().GetByID(ctx, request.ClientID)
	if err != nil {
		return wrapNotFound(err, resourceClient, request.ClientID)
	}
	if !identity.CanActFor(client.Email) {
		return pkgerrors.NewForbiddenError("заявка принадлежит другому клиенту")
	}
	return nil
}

// mirrorContainerStatus переводит контейнер в target, если это допускает таблица переходов.
// Недопустимый переход пропускается: состояния контейнера и заявки независимы
func mirrorContainerStatus(ctx context.Context, tx repo.Store, logger *log.Logger, containerID uint, target entity.ContainerStatus) error {
	container, err := tx.Containers().GetByIDForUpdate(ctx, containerID)
	if err != nil {
		return wrapNotFound(err, resourceContainer, containerID)
	}
	if container.Status == target {
		return nil
	}
	if !container.Status.CanTransitionTo(target) {
		logger.Printf("[WARN] Контейнер ID=%d: переход %s -> %s недопустим, состояние не изменено", containerID, container.Status, target)
		return nil
	}

	container.Status = target
	return tx.Containers().Update(ctx, container)
}
