package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase/webapi"
	"github.com/director74/cargo_logistics/pkg/auth"
	"github.com/director74/cargo_logistics/pkg/errors"
	"github.com/director74/cargo_logistics/pkg/middleware"
)

const internalKey = "internal-key"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	store := repo.NewMemoryStore()
	events := usecase.NewEventPublisher(nil, "logistics_events")
	tariffs := usecase.NewStaticTariffProvider(entity.DefaultTariff())
	requests := usecase.NewRequestUseCase(store, events)
	segments := usecase.NewSegmentUseCase(store, requests, webapi.NewFleetClient("", ""), events)

	jwtManager := auth.NewJWTManager(auth.NewConfig("test-secret"))
	internal := middleware.NewInternalAuthMiddleware(&middleware.InternalAPIConfig{
		APIKey:     internalKey,
		HeaderName: "X-Internal-API-Key",
	})

	router := gin.New()
	router.Use(errors.RecoveryMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	RegisterRoutes(router, auth.NewAuthMiddleware(jwtManager), internal,
		NewRequestHandler(requests, usecase.NewCostUseCase(store, tariffs)),
		NewRouteHandler(usecase.NewRouteUseCase(store, nil, tariffs), segments),
		NewSegmentHandler(segments),
		NewContainerHandler(usecase.NewContainerUseCase(store), usecase.NewClientUseCase(store)),
	)

	return &testServer{t: t, router: router, jwt: jwtManager}
}

func (s *testServer) token(role, email string) string {
	token, err := s.jwt.GenerateToken(1, email, role)
	require.NoError(s.t, err)
	return token
}

// do выполняет запрос и декодирует JSON ответа в out, если он передан
func (s *testServer) do(method, path, token string, body interface{}, out interface{}) int {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (s *testServer) internal(method, path, key string) int {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("X-Internal-API-Key", key)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Code
}

func createRequestBody(email, serial string) gin.H {
	return gin.H{
		"client":      gin.H{"name": "Cliente", "email": email},
		"container":   gin.H{"serial_number": serial, "type": "DRY_20", "weight_kg": 1000, "volume_m3": 2},
		"origin":      gin.H{"address": "Córdoba", "lat": -31.42, "lon": -64.18},
		"destination": gin.H{"address": "Rosario", "lat": -32.95, "lon": -60.64},
	}
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(auth.RoleAdmin, "ops@example.com")
	client := s.token(auth.RoleClient, "cliente@example.com")
	carrier := s.token(auth.RoleCarrier, "driver@example.com")

	var request entity.RequestDetails
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/requests", client, createRequestBody("cliente@example.com", "MSCU-1"), &request))
	assert.Equal(t, entity.RequestStatusDraft, request.Status)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/v1/requests", client, createRequestBody("cliente@example.com", "MSCU-1"), nil))

	routeBody := gin.H{"segments": []gin.H{
		{"origin": "Córdoba", "destination": "Rosario", "type": "ORIGIN_DESTINATION", "distance_km": 400, "estimated_cost": 20000},
	}}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/routes", client, routeBody, nil))

	var route entity.RouteDetails
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/routes", admin, routeBody, &route))
	require.Len(t, route.Segments, 1)
	segmentPath := fmt.Sprintf("/api/v1/segments/%d", route.Segments[0].ID)

	assignPath := fmt.Sprintf("/api/v1/requests/%d/route", request.ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, assignPath, admin, gin.H{"route_id": route.ID}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, assignPath, admin, gin.H{"route_id": route.ID}, nil))

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPost, segmentPath+"/start", carrier, nil, nil))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, segmentPath+"/truck", carrier, gin.H{"truck_id": 5}, nil))
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, segmentPath+"/truck", admin, gin.H{"truck_id": 5}, nil))

	internalStart := fmt.Sprintf("/internal/v1/segments/%d/start", route.Segments[0].ID)
	assert.Equal(t, http.StatusForbidden, s.internal(http.MethodPost, internalStart, ""))
	assert.Equal(t, http.StatusOK, s.internal(http.MethodPost, internalStart, internalKey))

	var segment entity.Segment
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, segmentPath+"/finish", carrier, nil, &segment))
	assert.Equal(t, entity.SegmentStatusFinished, segment.Status)

	var delivered entity.RequestDetails
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/v1/requests/%d", request.ID), client, nil, &delivered))
	assert.Equal(t, entity.RequestStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.FinalCost)

	var cost entity.CostBreakdown
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/v1/requests/%d/cost", request.ID), client, nil, &cost))
	assert.Equal(t, 22000.0, cost.TotalCost)
	assert.Equal(t, http.StatusOK, s.internal(http.MethodGet, fmt.Sprintf("/internal/v1/requests/%d/cost", request.ID), internalKey))
}

func TestRequestAccessControl(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(auth.RoleClient, "uno@example.com")
	stranger := s.token(auth.RoleClient, "dos@example.com")

	var request entity.RequestDetails
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/requests", owner, createRequestBody("uno@example.com", "MSCU-1"), &request))

	path := fmt.Sprintf("/api/v1/requests/%d", request.ID)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, stranger, nil, nil))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/requests", stranger, createRequestBody("uno@example.com", "MSCU-2"), nil))
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, path, "", nil, nil))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/requests", owner, nil, nil))

	var mine []entity.Request
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/requests/mine", owner, nil, &mine))
	assert.Len(t, mine, 1)
}

func TestHandlerErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(auth.RoleAdmin, "ops@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"некорректный ID", http.MethodGet, "/api/v1/routes/abc", nil, http.StatusBadRequest},
		{"маршрут не найден", http.MethodGet, "/api/v1/routes/42", nil, http.StatusNotFound},
		{"пустой маршрут", http.MethodPost, "/api/v1/routes", gin.H{"segments": []gin.H{}}, http.StatusBadRequest},
		{"нет тела запроса", http.MethodPost, "/api/v1/requests", nil, http.StatusBadRequest},
		{"участки без фильтра", http.MethodGet, "/api/v1/segments", nil, http.StatusBadRequest},
		{"неизвестное состояние", http.MethodGet, "/api/v1/segments?status=PAUSED", nil, http.StatusBadRequest},
		{"контейнер не найден", http.MethodGet, "/api/v1/containers?serial=NOPE", nil, http.StatusNotFound},
		{"неизвестный путь", http.MethodGet, "/api/v1/unknown", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errors.HTTPErrorResponse
			assert.Equal(t, tt.status, s.do(tt.method, tt.path, admin, tt.body, &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestContainerEndpoints(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(auth.RoleAdmin, "ops@example.com")

	var request entity.RequestDetails
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/requests", admin, createRequestBody("cliente@example.com", "MSCU-1"), &request))
	path := fmt.Sprintf("/api/v1/containers/%d", request.ContainerID)

	var container entity.Container
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, path+"/status", admin, gin.H{"status": "READY_FOR_PICKUP"}, &container))
	assert.Equal(t, entity.ContainerStatusReadyForPickup, container.Status)

	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodPut, path+"/status", admin, gin.H{"status": "DELIVERED"}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, s.do(http.MethodDelete, path, admin, nil, nil))

	var found []entity.Container
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/containers?serial=MSCU-1", admin, nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, request.ContainerID, found[0].ID)
}
