package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// memoryTables данные хранилища в памяти. Все агрегаты хранятся по значению
type memoryTables struct {
	clients    map[uint]entity.Client
	containers map[uint]entity.Container
	requests   map[uint]entity.Request
	routes     map[uint]entity.Route
	segments   map[uint]entity.Segment
	lastID     map[string]uint
}

func newMemoryTables() *memoryTables {
	return &memoryTables{
		clients:    make(map[uint]entity.Client),
		containers: make(map[uint]entity.Container),
		requests:   make(map[uint]entity.Request),
		routes:     make(map[uint]entity.Route),
		segments:   make(map[uint]entity.Segment),
		lastID:     make(map[string]uint),
	}
}

func (t *memoryTables) clone() *memoryTables {
	c := newMemoryTables()
	for id, v := range t.clients {
		c.clients[id] = v
	}
	for id, v := range t.containers {
		c.containers[id] = v
	}
	for id, v := range t.requests {
		c.requests[id] = copyRequest(v)
	}
	for id, v := range t.routes {
		c.routes[id] = copyRoute(v)
	}
	for id, v := range t.segments {
		c.segments[id] = copySegment(v)
	}
	for k, v := range t.lastID {
		c.lastID[k] = v
	}
	return c
}

func (t *memoryTables) nextID(table string) uint {
	t.lastID[table]++
	return t.lastID[table]
}

// MemoryStore реализация Store в памяти процесса. Используется в тестах
// и при STORAGE_DRIVER=memory. Транзакции сериализуются общим мьютексом
// и выполняются над копией данных, которая подменяет оригинал при успехе
type MemoryStore struct {
	mu     *sync.Mutex
	tables *memoryTables
	inTx   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:     &sync.Mutex{},
		tables: newMemoryTables(),
	}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &MemoryStore{mu: s.mu, tables: s.tables.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.tables = tx.tables
	return nil
}

func (s *MemoryStore) Clients() ClientRepository       { return &memoryClients{s} }
func (s *MemoryStore) Containers() ContainerRepository { return &memoryContainers{s} }
func (s *MemoryStore) Requests() RequestRepository     { return &memoryRequests{s} }
func (s *MemoryStore) Routes() RouteRepository         { return &memoryRoutes{s} }
func (s *MemoryStore) Segments() SegmentRepository     { return &memorySegments{s} }

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func sortedIDs[T any](m map[uint]T) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// копии с независимыми указателями, чтобы вызывающий код не менял хранилище напрямую

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyUint(v *uint) *uint {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyRequest(r entity.Request) entity.Request {
	r.RouteID = copyUint(r.RouteID)
	r.EstimatedCost = copyFloat(r.EstimatedCost)
	r.EstimatedTimeHours = copyFloat(r.EstimatedTimeHours)
	r.FinalCost = copyFloat(r.FinalCost)
	r.RealTimeHours = copyFloat(r.RealTimeHours)
	if r.FinalizationDetails != nil {
		details := make(datatypes.JSONMap, len(r.FinalizationDetails))
		for k, v := range r.FinalizationDetails {
			details[k] = v
		}
		r.FinalizationDetails = details
	}
	return r
}

func copyRoute(r entity.Route) entity.Route {
	r.TotalDistanceKm = copyFloat(r.TotalDistanceKm)
	r.EstimatedTimeHours = copyFloat(r.EstimatedTimeHours)
	r.EstimatedCost = copyFloat(r.EstimatedCost)
	return r
}

func copySegment(s entity.Segment) entity.Segment {
	s.DistanceKm = copyFloat(s.DistanceKm)
	s.EstimatedTimeHours = copyFloat(s.EstimatedTimeHours)
	s.EstimatedCost = copyFloat(s.EstimatedCost)
	s.ActualCost = copyFloat(s.ActualCost)
	s.TruckID = copyUint(s.TruckID)
	s.StartedAt = copyTime(s.StartedAt)
	s.FinishedAt = copyTime(s.FinishedAt)
	return s
}

// clients

type memoryClients struct{ s *MemoryStore }

func (r *memoryClients) Create(ctx context.Context, client *entity.Client) error {
	defer r.s.lock()()
	t := r.s.tables
	for _, c := range t.clients {
		if c.Email == client.Email {
			return ErrDuplicate
		}
	}
	client.ID = t.nextID("clients")
	stamp(&client.CreatedAt, &client.UpdatedAt)
	t.clients[client.ID] = *client
	return nil
}

func (r *memoryClients) GetByID(ctx context.Context, id uint) (*entity.Client, error) {
	defer r.s.lock()()
	c, ok := r.s.tables.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return &c, nil
}

func (r *memoryClients) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	defer r.s.lock()()
	for _, c := range r.s.tables.clients {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, ErrClientNotFound
}

func (r *memoryClients) List(ctx context.Context) ([]entity.Client, error) {
	defer r.s.lock()()
	t := r.s.tables
	result := make([]entity.Client, 0, len(t.clients))
	for _, id := range sortedIDs(t.clients) {
		result = append(result, t.clients[id])
	}
	return result, nil
}

// containers

type memoryContainers struct{ s *MemoryStore }

func (r *memoryContainers) serialTaken(serial string, exceptID uint) bool {
	for id, c := range r.s.tables.containers {
		if id != exceptID && c.SerialNumber == serial {
			return true
		}
	}
	return false
}

func (r *memoryContainers) Create(ctx context.Context, container *entity.Container) error {
	defer r.s.lock()()
	if r.serialTaken(container.SerialNumber, 0) {
		return ErrDuplicate
	}
	t := r.s.tables
	container.ID = t.nextID("containers")
	stamp(&container.CreatedAt, &container.UpdatedAt)
	t.containers[container.ID] = *container
	return nil
}

func (r *memoryContainers) GetByID(ctx context.Context, id uint) (*entity.Container, error) {
	defer r.s.lock()()
	c, ok := r.s.tables.containers[id]
	if !ok {
		return nil, ErrContainerNotFound
	}
	return &c, nil
}

func (r *memoryContainers) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Container, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryContainers) GetBySerial(ctx context.Context, serial string) (*entity.Container, error) {
	defer r.s.lock()()
	for _, c := range r.s.tables.containers {
		if c.SerialNumber == serial {
			return &c, nil
		}
	}
	return nil, ErrContainerNotFound
}

func (r *memoryContainers) Update(ctx context.Context, container *entity.Container) error {
	defer r.s.lock()()
	t := r.s.tables
	if _, ok := t.containers[container.ID]; !ok {
		return ErrContainerNotFound
	}
	if r.serialTaken(container.SerialNumber, container.ID) {
		return ErrDuplicate
	}
	stamp(&container.CreatedAt, &container.UpdatedAt)
	t.containers[container.ID] = *container
	return nil
}

func (r *memoryContainers) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	if _, ok := r.s.tables.containers[id]; !ok {
		return ErrContainerNotFound
	}
	delete(r.s.tables.containers, id)
	return nil
}

func (r *memoryContainers) list(match func(entity.Container) bool) []entity.Container {
	t := r.s.tables
	result := make([]entity.Container, 0)
	for _, id := range sortedIDs(t.containers) {
		if c := t.containers[id]; match(c) {
			result = append(result, c)
		}
	}
	return result
}

func (r *memoryContainers) ListByClient(ctx context.Context, clientID uint) ([]entity.Container, error) {
	defer r.s.lock()()
	return r.list(func(c entity.Container) bool { return c.ClientID == clientID }), nil
}

func (r *memoryContainers) ListByStatus(ctx context.Context, status entity.ContainerStatus) ([]entity.Container, error) {
	defer r.s.lock()()
	return r.list(func(c entity.Container) bool { return c.Status == status }), nil
}

// requests

type memoryRequests struct{ s *MemoryStore }

// violatesUnique проверяет уникальность маршрута и активной заявки по контейнеру
func (r *memoryRequests) violatesUnique(req *entity.Request) bool {
	for id, other := range r.s.tables.requests {
		if id == req.ID {
			continue
		}
		if req.RouteID != nil && other.RouteID != nil && *req.RouteID == *other.RouteID {
			return true
		}
		if req.Status.IsActive() && other.Status.IsActive() && req.ContainerID == other.ContainerID {
			return true
		}
	}
	return false
}

func (r *memoryRequests) Create(ctx context.Context, request *entity.Request) error {
	defer r.s.lock()()
	t := r.s.tables
	request.ID = 0
	if r.violatesUnique(request) {
		return ErrDuplicate
	}
	request.ID = t.nextID("requests")
	stamp(&request.CreatedAt, &request.UpdatedAt)
	t.requests[request.ID] = copyRequest(*request)
	return nil
}

func (r *memoryRequests) get(match func(entity.Request) bool) (*entity.Request, error) {
	t := r.s.tables
	for _, id := range sortedIDs(t.requests) {
		if req := t.requests[id]; match(req) {
			c := copyRequest(req)
			return &c, nil
		}
	}
	return nil, ErrRequestNotFound
}

func (r *memoryRequests) GetByID(ctx context.Context, id uint) (*entity.Request, error) {
	defer r.s.lock()()
	req, ok := r.s.tables.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	c := copyRequest(req)
	return &c, nil
}

func (r *memoryRequests) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRequests) GetByRouteID(ctx context.Context, routeID uint) (*entity.Request, error) {
	defer r.s.lock()()
	return r.get(func(req entity.Request) bool { return req.RouteID != nil && *req.RouteID == routeID })
}

func (r *memoryRequests) FindActiveByContainer(ctx context.Context, containerID uint) (*entity.Request, error) {
	defer r.s.lock()()
	return r.get(func(req entity.Request) bool { return req.ContainerID == containerID && req.Status.IsActive() })
}

func (r *memoryRequests) Update(ctx context.Context, request *entity.Request) error {
	defer r.s.lock()()
	t := r.s.tables
	if _, ok := t.requests[request.ID]; !ok {
		return ErrRequestNotFound
	}
	if r.violatesUnique(request) {
		return ErrDuplicate
	}
	stamp(&request.CreatedAt, &request.UpdatedAt)
	t.requests[request.ID] = copyRequest(*request)
	return nil
}

func (r *memoryRequests) list(match func(entity.Request) bool) []entity.Request {
	t := r.s.tables
	result := make([]entity.Request, 0)
	for _, id := range sortedIDs(t.requests) {
		if req := t.requests[id]; match(req) {
			result = append(result, copyRequest(req))
		}
	}
	return result
}

func (r *memoryRequests) List(ctx context.Context) ([]entity.Request, error) {
	defer r.s.lock()()
	return r.list(func(entity.Request) bool { return true }), nil
}

func (r *memoryRequests) ListByClient(ctx context.Context, clientID uint) ([]entity.Request, error) {
	defer r.s.lock()()
	return r.list(func(req entity.Request) bool { return req.ClientID == clientID }), nil
}

func (r *memoryRequests) ListByStatus(ctx context.Context, status entity.RequestStatus) ([]entity.Request, error) {
	defer r.s.lock()()
	return r.list(func(req entity.Request) bool { return req.Status == status }), nil
}

func (r *memoryRequests) ListActive(ctx context.Context) ([]entity.Request, error) {
	defer r.s.lock()()
	return r.list(func(req entity.Request) bool { return req.Status.IsActive() }), nil
}

// routes

type memoryRoutes struct{ s *MemoryStore }

func (r *memoryRoutes) Create(ctx context.Context, route *entity.Route) error {
	defer r.s.lock()()
	t := r.s.tables
	route.ID = t.nextID("routes")
	stamp(&route.CreatedAt, &route.UpdatedAt)
	t.routes[route.ID] = copyRoute(*route)
	return nil
}

func (r *memoryRoutes) GetByID(ctx context.Context, id uint) (*entity.Route, error) {
	defer r.s.lock()()
	route, ok := r.s.tables.routes[id]
	if !ok {
		return nil, ErrRouteNotFound
	}
	c := copyRoute(route)
	return &c, nil
}

func (r *memoryRoutes) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Route, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryRoutes) Update(ctx context.Context, route *entity.Route) error {
	defer r.s.lock()()
	t := r.s.tables
	if _, ok := t.routes[route.ID]; !ok {
		return ErrRouteNotFound
	}
	stamp(&route.CreatedAt, &route.UpdatedAt)
	t.routes[route.ID] = copyRoute(*route)
	return nil
}

func (r *memoryRoutes) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	if _, ok := r.s.tables.routes[id]; !ok {
		return ErrRouteNotFound
	}
	delete(r.s.tables.routes, id)
	return nil
}

func (r *memoryRoutes) List(ctx context.Context) ([]entity.Route, error) {
	defer r.s.lock()()
	t := r.s.tables
	result := make([]entity.Route, 0, len(t.routes))
	for _, id := range sortedIDs(t.routes) {
		result = append(result, copyRoute(t.routes[id]))
	}
	return result, nil
}

// segments

type memorySegments struct{ s *MemoryStore }

func (r *memorySegments) positionTaken(seg *entity.Segment) bool {
	for id, other := range r.s.tables.segments {
		if id != seg.ID && other.RouteID == seg.RouteID && other.Position == seg.Position {
			return true
		}
	}
	return false
}

func (r *memorySegments) Create(ctx context.Context, segment *entity.Segment) error {
	defer r.s.lock()()
	t := r.s.tables
	segment.ID = 0
	if r.positionTaken(segment) {
		return ErrDuplicate
	}
	segment.ID = t.nextID("segments")
	stamp(&segment.CreatedAt, &segment.UpdatedAt)
	t.segments[segment.ID] = copySegment(*segment)
	return nil
}

func (r *memorySegments) GetByID(ctx context.Context, id uint) (*entity.Segment, error) {
	defer r.s.lock()()
	seg, ok := r.s.tables.segments[id]
	if !ok {
		return nil, ErrSegmentNotFound
	}
	c := copySegment(seg)
	return &c, nil
}

func (r *memorySegments) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Segment, error) {
	return r.GetByID(ctx, id)
}

func (r *memorySegments) Update(ctx context.Context, segment *entity.Segment) error {
	defer r.s.lock()()
	t := r.s.tables
	if _, ok := t.segments[segment.ID]; !ok {
		return ErrSegmentNotFound
	}
	if r.positionTaken(segment) {
		return ErrDuplicate
	}
	stamp(&segment.CreatedAt, &segment.UpdatedAt)
	t.segments[segment.ID] = copySegment(*segment)
	return nil
}

func (r *memorySegments) Delete(ctx context.Context, id uint) error {
	defer r.s.lock()()
	if _, ok := r.s.tables.segments[id]; !ok {
		return ErrSegmentNotFound
	}
	delete(r.s.tables.segments, id)
	return nil
}

func (r *memorySegments) DeleteByRoute(ctx context.Context, routeID uint) error {
	defer r.s.lock()()
	for id, seg := range r.s.tables.segments {
		if seg.RouteID == routeID {
			delete(r.s.tables.segments, id)
		}
	}
	return nil
}

func (r *memorySegments) list(match func(entity.Segment) bool) []entity.Segment {
	t := r.s.tables
	result := make([]entity.Segment, 0)
	for _, id := range sortedIDs(t.segments) {
		if seg := t.segments[id]; match(seg) {
			result = append(result, copySegment(seg))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RouteID != result[j].RouteID {
			return result[i].RouteID < result[j].RouteID
		}
		return result[i].Position < result[j].Position
	})
	return result
}

func (r *memorySegments) ListByRoute(ctx context.Context, routeID uint) ([]entity.Segment, error) {
	defer r.s.lock()()
	return r.list(func(seg entity.Segment) bool { return seg.RouteID == routeID }), nil
}

func (r *memorySegments) ListByStatus(ctx context.Context, status entity.SegmentStatus) ([]entity.Segment, error) {
	defer r.s.lock()()
	return r.list(func(seg entity.Segment) bool { return seg.Status == status }), nil
}

func (r *memorySegments) ListByTruck(ctx context.Context, truckID uint) ([]entity.Segment, error) {
	defer r.s.lock()()
	return r.list(func(seg entity.Segment) bool { return seg.TruckID != nil && *seg.TruckID == truckID }), nil
}
