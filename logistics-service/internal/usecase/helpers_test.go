package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
)

const testExchange = "logistics_events"

var admin = entity.Identity{Role: entity.RoleAdmin, Email: "ops@example.com"}

// Мок для FleetService
type MockFleetService struct {
	mock.Mock
}

func (m *MockFleetService) ValidateAndReserve(ctx context.Context, truckID uint, weightKg, volumeM3 float64) error {
	args := m.Called(ctx, truckID, weightKg, volumeM3)
	return args.Error(0)
}

// Мок для DistanceProvider
type MockDistanceProvider struct {
	mock.Mock
}

func (m *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination string) (DistanceResult, error) {
	args := m.Called(ctx, origin, destination)
	return args.Get(0).(DistanceResult), args.Error(1)
}

// Мок для публикации сообщений в RabbitMQ
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishMessage(ctx context.Context, exchange, routingKey string, message interface{}) error {
	args := m.Called(ctx, exchange, routingKey, message)
	return args.Error(0)
}

func (m *MockPublisher) PublishMessageWithRetry(ctx context.Context, exchange, routingKey string, message interface{}, retries int) error {
	args := m.Called(ctx, exchange, routingKey, message, retries)
	return args.Error(0)
}

// published ключи маршрутизации опубликованных событий в порядке отправки
func (m *MockPublisher) published() []string {
	var keys []string
	for _, call := range m.Calls {
		if call.Method == "PublishMessageWithRetry" {
			keys = append(keys, call.Arguments.String(2))
		}
	}
	return keys
}

// fakeClock управляемые часы для проверки временных меток
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	store     *repo.MemoryStore
	fleet     *MockFleetService
	publisher *MockPublisher
	clock     *fakeClock

	requests   *RequestUseCase
	segments   *SegmentUseCase
	routes     *RouteUseCase
	containers *ContainerUseCase
	clients    *ClientUseCase
	costs      *CostUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repo.NewMemoryStore()
	fleet := new(MockFleetService)
	publisher := new(MockPublisher)
	publisher.On("PublishMessageWithRetry", mock.Anything, testExchange, mock.Anything, mock.Anything, publishRetries).Return(nil).Maybe()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}

	events := NewEventPublisher(publisher, testExchange)
	tariffs := NewStaticTariffProvider(entity.DefaultTariff())

	requests := NewRequestUseCase(store, events)
	requests.now = clock.Now
	segments := NewSegmentUseCase(store, requests, fleet, events)
	segments.now = clock.Now

	return &testEnv{
		store:      store,
		fleet:      fleet,
		publisher:  publisher,
		clock:      clock,
		requests:   requests,
		segments:   segments,
		routes:     NewRouteUseCase(store, nil, tariffs),
		containers: NewContainerUseCase(store),
		clients:    NewClientUseCase(store),
		costs:      NewCostUseCase(store, tariffs),
	}
}

func ptr(v float64) *float64 { return &v }

func newRequestInput(email, serial string, weightKg, volumeM3 float64) entity.CreateRequestRequest {
	return entity.CreateRequestRequest{
		Client: entity.ClientInput{Name: "Cliente", Email: email, Phone: "+54 351 000"},
		Container: entity.ContainerInput{
			SerialNumber: serial,
			Type:         "DRY_20",
			WeightKg:     weightKg,
			VolumeM3:     volumeM3,
		},
		Origin:      entity.Location{Address: "Córdoba", Lat: -31.42, Lon: -64.18},
		Destination: entity.Location{Address: "Rosario", Lat: -32.95, Lon: -60.64},
	}
}

func (e *testEnv) createRequest(t *testing.T, email, serial string) *entity.RequestDetails {
	t.Helper()
	details, err := e.requests.Create(context.Background(), admin, newRequestInput(email, serial, 1000, 2))
	require.NoError(t, err)
	return details
}

func (e *testEnv) createRoute(t *testing.T, inputs ...entity.SegmentInput) *entity.RouteDetails {
	t.Helper()
	route, err := e.routes.Create(context.Background(), entity.CreateRouteRequest{Segments: inputs})
	require.NoError(t, err)
	return route
}

func segmentInput(segType entity.SegmentType, origin, destination string, km, cost float64) entity.SegmentInput {
	return entity.SegmentInput{
		Origin:             origin,
		Destination:        destination,
		Type:               segType,
		DistanceKm:         ptr(km),
		EstimatedTimeHours: ptr(km / 80),
		EstimatedCost:      ptr(cost),
	}
}

// warehouseRoute маршрут отправитель -> склад -> получатель
func warehouseRoute() []entity.SegmentInput {
	return []entity.SegmentInput{
		segmentInput(entity.SegmentTypeOriginWarehouse, "Córdoba", "Depósito Villa María", 150, 7500),
		segmentInput(entity.SegmentTypeWarehouseDestination, "Depósito Villa María", "Rosario", 250, 12500),
	}
}

// scheduledRequest заявка с назначенным маршрутом, участкам которого назначены грузовики
func (e *testEnv) scheduledRequest(t *testing.T, serial string, inputs []entity.SegmentInput) (*entity.RequestDetails, *entity.RouteDetails) {
	t.Helper()
	ctx := context.Background()

	details := e.createRequest(t, "cliente@example.com", serial)
	route := e.createRoute(t, inputs...)
	_, err := e.requests.AssignRoute(ctx, admin, details.ID, route.ID)
	require.NoError(t, err)

	e.fleet.On("ValidateAndReserve", mock.Anything, mock.Anything, details.Container.WeightKg, details.Container.VolumeM3).Return(nil)
	for i, seg := range route.Segments {
		_, err := e.segments.AssignTruck(ctx, seg.ID, uint(100+i))
		require.NoError(t, err)
	}
	return details, route
}
