package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
)

func TestCreateRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	details, err := env.requests.Create(ctx, admin, newRequestInput(" Cliente@Example.com ", "MSCU-1", 1000, 2))

	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusDraft, details.Status)
	assert.Equal(t, "cliente@example.com", details.Client.Email)
	assert.Equal(t, entity.ContainerStatusRegistered, details.Container.Status)
	assert.Equal(t, env.clock.Now(), details.CreatedAt)
	assert.Nil(t, details.RouteID)

	// клиент найден или создан по email
	clients, err := env.clients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestCreateRequestDuplicateActiveConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createRequest(t, "cliente@example.com", "MSCU-1")

	_, err := env.requests.Create(ctx, admin, newRequestInput("cliente@example.com", "MSCU-1", 1000, 2))

	assert.ErrorIs(t, err, pkgerrors.ErrAlreadyExists)
	assert.Equal(t, 409, pkgerrors.StatusCode(err))

	all, err := env.requests.List(ctx, RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
}

func TestCreateRequestContainerOfAnotherClient(t *testing.T) {
	env := newTestEnv(t)
	env.createRequest(t, "uno@example.com", "MSCU-1")

	_, err := env.requests.Create(context.Background(), admin, newRequestInput("dos@example.com", "MSCU-1", 1000, 2))

	assert.ErrorIs(t, err, pkgerrors.ErrAlreadyExists)
}

func TestCreateRequestSelfService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := entity.Identity{Role: entity.RoleClient, Email: "cliente@example.com"}

	_, err := env.requests.Create(ctx, client, newRequestInput("otro@example.com", "MSCU-1", 1000, 2))
	assert.ErrorIs(t, err, pkgerrors.ErrForbidden)

	details, err := env.requests.Create(ctx, client, newRequestInput("CLIENTE@example.com", "MSCU-1", 1000, 2))
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusDraft, details.Status)
}

func TestCreateRequestValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		input entity.CreateRequestRequest
	}{
		{"нет email", newRequestInput("  ", "MSCU-1", 1000, 2)},
		{"нет серийного номера", newRequestInput("a@example.com", "", 1000, 2)},
		{"нулевой вес", newRequestInput("a@example.com", "MSCU-1", 0, 2)},
		{"отрицательный объем", newRequestInput("a@example.com", "MSCU-1", 1000, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.requests.Create(context.Background(), admin, tt.input)
			assert.ErrorIs(t, err, pkgerrors.ErrBadRequest)
		})
	}
}

func TestAssignRoute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	details := env.createRequest(t, "cliente@example.com", "MSCU-1")
	route := env.createRoute(t, warehouseRoute()...)

	request, err := env.requests.AssignRoute(ctx, admin, details.ID, route.ID)

	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusScheduled, request.Status)
	require.NotNil(t, request.RouteID)
	assert.Equal(t, route.ID, *request.RouteID)
	assert.Equal(t, 20000.0, *request.EstimatedCost)
	assert.InDelta(t, 5.0, *request.EstimatedTimeHours, 1e-9)
	assert.Equal(t, []string{entity.EventRequestScheduled}, env.publisher.published())
}

func TestAssignRouteOnScheduledKeepsRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	details := env.createRequest(t, "cliente@example.com", "MSCU-1")
	route := env.createRoute(t, warehouseRoute()...)
	other := env.createRoute(t, segmentInput(entity.SegmentTypeOriginDestination, "Córdoba", "Rosario", 400, 20000))

	_, err := env.requests.AssignRoute(ctx, admin, details.ID, route.ID)
	require.NoError(t, err)
	before, err := env.store.Requests().GetByID(ctx, details.ID)
	require.NoError(t, err)

	_, err = env.requests.AssignRoute(ctx, admin, details.ID, other.ID)

	assert.ErrorIs(t, err, pkgerrors.ErrInvalidState)
	after, err := env.store.Requests().GetByID(ctx, details.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAssignRouteErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	details := env.createRequest(t, "cliente@example.com", "MSCU-1")
	second := env.createRequest(t, "cliente@example.com", "MSCU-2")
	route := env.createRoute(t, warehouseRoute()...)

	_, err := env.requests.AssignRoute(ctx, admin, 999, route.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = env.requests.AssignRoute(ctx, admin, details.ID, 999)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	_, err = env.requests.AssignRoute(ctx, entity.Identity{Role: entity.RoleClient, Email: "otro@example.com"}, details.ID, route.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrForbidden)

	_, err = env.requests.AssignRoute(ctx, admin, details.ID, route.ID)
	require.NoError(t, err)

	_, err = env.requests.AssignRoute(ctx, admin, second.ID, route.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrAlreadyExists)
}

func TestAssignRouteWithoutSegments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	details := env.createRequest(t, "cliente@example.com", "MSCU-1")
	route := env.createRoute(t, segmentInput(entity.SegmentTypeOriginDestination, "Córdoba", "Rosario", 400, 20000))
	require.NoError(t, env.segments.Delete(ctx, route.Segments[0].ID))

	_, err := env.requests.AssignRoute(ctx, admin, details.ID, route.ID)

	assert.ErrorIs(t, err, pkgerrors.ErrBadRequest)
	request, err := env.store.Requests().GetByID(ctx, details.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusDraft, request.Status)
}

func TestRequestCompletesOnlyAfterAllSegmentsFinish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inputs := []entity.SegmentInput{
		segmentInput(entity.SegmentTypeOriginWarehouse, "Córdoba", "Depósito A", 100, 5000),
		segmentInput(entity.SegmentTypeWarehouseWarehouse, "Depósito A", "Depósito B", 200, 10000),
		segmentInput(entity.SegmentTypeWarehouseDestination, "Depósito B", "Rosario", 100, 5000),
	}
	details, route := env.scheduledRequest(t, "MSCU-1", inputs)
	a, b, c := route.Segments[0].ID, route.Segments[1].ID, route.Segments[2].ID

	status := func() entity.RequestStatus {
		r, err := env.store.Requests().GetByID(ctx, details.ID)
		require.NoError(t, err)
		return r.Status
	}

	for _, id := range []uint{c, a, b} {
		env.clock.Advance(time.Hour)
		_, err := env.segments.Start(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, entity.RequestStatusInTransit, status())

	env.clock.Advance(2 * time.Hour)
	_, err := env.segments.Finish(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusInTransit, status())

	_, err = env.segments.Finish(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusInTransit, status())

	env.clock.Advance(30 * time.Minute)
	_, err = env.segments.Finish(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusDelivered, status())

	request, err := env.store.Requests().GetByID(ctx, details.ID)
	require.NoError(t, err)
	// 3 старта по часу, 2 часа и еще 30 минут до последнего завершения
	require.NotNil(t, request.RealTimeHours)
	assert.Equal(t, 5.5, *request.RealTimeHours)
	require.NotNil(t, request.FinalCost)
	assert.Equal(t, 0.0, *request.FinalCost)
	assert.EqualValues(t, 3, request.FinalizationDetails["missing_actual_costs"])
}

func TestFinalCostSumsActualCosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	details, route := env.scheduledRequest(t, "MSCU-1", warehouseRoute())
	first, second := route.Segments[0].ID, route.Segments[1].ID

	containerStatus := func() entity.ContainerStatus {
		c, err := env.store.Containers().GetByID(ctx, details.ContainerID)
		require.NoError(t, err)
		return c.Status
	}

	_, err := env.segments.Start(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, entity.ContainerStatusInTransit, containerStatus())
	_, err = env.segments.Finish(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, entity.ContainerStatusInWarehouse, containerStatus())
	_, err = env.segments.SetActualCost(ctx, first, 8000)
	require.NoError(t, err)

	_, err = env.segments.Start(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, entity.ContainerStatusInTransit, containerStatus())
	_, err = env.segments.Finish(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, entity.ContainerStatusDelivered, containerStatus())

	request, err := env.store.Requests().GetByID(ctx, details.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusDelivered, request.Status)
	assert.Equal(t, 8000.0, *request.FinalCost)
	assert.EqualValues(t, 1, request.FinalizationDetails["missing_actual_costs"])
	assert.Equal(t, []string{
		entity.EventRequestScheduled,
		entity.EventSegmentAssigned, entity.EventSegmentAssigned,
		entity.EventSegmentStarted, entity.EventRequestInTransit,
		entity.EventSegmentFinished,
		entity.EventSegmentStarted,
		entity.EventSegmentFinished, entity.EventRequestDelivered,
	}, env.publisher.published())

	// после доставки для контейнера можно создать новую заявку
	_, err = env.requests.Create(ctx, admin, newRequestInput("cliente@example.com", "MSCU-1", 1000, 2))
	assert.NoError(t, err)
}

func TestRequestQueries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createRequest(t, "uno@example.com", "MSCU-1")
	second := env.createRequest(t, "dos@example.com", "MSCU-2")
	route := env.createRoute(t, warehouseRoute()...)
	_, err := env.requests.AssignRoute(ctx, admin, second.ID, route.ID)
	require.NoError(t, err)

	uno := entity.Identity{Role: entity.RoleClient, Email: "uno@example.com"}

	got, err := env.requests.Get(ctx, uno, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "MSCU-1", got.Container.SerialNumber)

	_, err = env.requests.Get(ctx, uno, second.ID)
	assert.ErrorIs(t, err, pkgerrors.ErrForbidden)

	_, err = env.requests.ListByClient(ctx, uno, second.ClientID)
	assert.ErrorIs(t, err, pkgerrors.ErrForbidden)

	mine, err := env.requests.ListMine(ctx, uno)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	none, err := env.requests.ListMine(ctx, entity.Identity{Role: entity.RoleClient, Email: "nadie@example.com"})
	require.NoError(t, err)
	assert.Empty(t, none)

	scheduled, err := env.requests.List(ctx, RequestFilter{Status: entity.RequestStatusScheduled})
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Equal(t, second.ID, scheduled[0].ID)

	active, err := env.requests.List(ctx, RequestFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = env.requests.List(ctx, RequestFilter{Status: "LOST"})
	assert.ErrorIs(t, err, pkgerrors.ErrBadRequest)
}
