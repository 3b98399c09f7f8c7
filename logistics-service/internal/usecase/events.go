package usecase

import (
	"context"
	"log"
	"time"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	"github.com/director74/cargo_logistics/pkg/messaging"
)

const publishRetries = 1

// EventPublisher публикует события жизненного цикла после фиксации транзакции.
// Ошибки публикации только логируются: состояние уже сохранено
type EventPublisher struct {
	publisher messaging.MessagePublisher
	exchange  string
	logger    *log.Logger
}

// NewEventPublisher создает публикатор. publisher может быть nil, тогда события не отправляются
func NewEventPublisher(publisher messaging.MessagePublisher, exchange string) *EventPublisher {
	return &EventPublisher{
		publisher: publisher,
		exchange:  exchange,
		logger:    log.New(log.Writer(), "[EventPublisher] ", log.LstdFlags),
	}
}

func (p *EventPublisher) publish(ctx context.Context, routingKey string, payload interface{}) {
	if p == nil || p.publisher == nil {
		return
	}
	// запрос может быть уже отменен клиентом, событие все равно должно уйти
	ctx = context.WithoutCancel(ctx)
	if err := messaging.PublishWithRetryAndLogging(ctx, p.publisher, p.exchange, routingKey, payload, publishRetries); err != nil {
		p.logger.Printf("[WARN] Событие %s не отправлено: %v", routingKey, err)
	}
}

func (p *EventPublisher) RequestChanged(ctx context.Context, routingKey string, req *entity.Request) {
	if req == nil {
		return
	}
	p.publish(ctx, routingKey, entity.RequestEvent{
		RequestID:     req.ID,
		ClientID:      req.ClientID,
		ContainerID:   req.ContainerID,
		RouteID:       req.RouteID,
		Status:        req.Status,
		FinalCost:     req.FinalCost,
		RealTimeHours: req.RealTimeHours,
		OccurredAt:    time.Now().UTC(),
	})
}

func (p *EventPublisher) SegmentChanged(ctx context.Context, routingKey string, seg *entity.Segment) {
	if seg == nil {
		return
	}
	p.publish(ctx, routingKey, entity.SegmentEvent{
		SegmentID:  seg.ID,
		RouteID:    seg.RouteID,
		TruckID:    seg.TruckID,
		Status:     seg.Status,
		OccurredAt: time.Now().UTC(),
	})
}
