package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
	pkgerrors "github.com/director74/cargo_logistics/pkg/errors"
	"github.com/director74/cargo_logistics/pkg/messaging"
	"github.com/director74/cargo_logistics/pkg/rabbitmq"
)

const (
	TrackingExchange = "tracking_events"
	TrackingQueue    = "logistics_tracking_queue"
	consumerName     = "logistics-service-tracking-handler"
)

// SegmentExecutor операции участка, которые вызывает телематика
type SegmentExecutor interface {
	Start(ctx context.Context, segmentID uint) (*entity.Segment, error)
	Finish(ctx context.Context, segmentID uint) (*entity.Segment, error)
}

// TrackingConsumer обработчик команд телематики грузовиков
type TrackingConsumer struct {
	segments SegmentExecutor
	consumer messaging.MessageConsumer
	logger   *log.Logger
}

func NewTrackingConsumer(segments SegmentExecutor, consumer messaging.MessageConsumer, logger *log.Logger) *TrackingConsumer {
	if logger == nil {
		logger = log.New(log.Writer(), "[TrackingConsumer] ", log.LstdFlags)
	}
	return &TrackingConsumer{
		segments: segments,
		consumer: consumer,
		logger:   logger,
	}
}

// Bindings привязки очереди трекинга для messaging.SetupExchangesAndQueues
func Bindings() map[string][]messaging.Binding {
	return map[string][]messaging.Binding{
		TrackingQueue: {
			{Exchange: TrackingExchange, RoutingKey: entity.TrackingSegmentStart},
			{Exchange: TrackingExchange, RoutingKey: entity.TrackingSegmentFinish},
		},
	}
}

// Start начинает потребление очереди. Очередь и привязки должны быть объявлены заранее
func (c *TrackingConsumer) Start(ctx context.Context) error {
	if err := c.consumer.ConsumeMessages(ctx, TrackingQueue, consumerName, c.HandleTrackingCommand); err != nil {
		c.logger.Printf("[ERROR] Ошибка при настройке обработчика сообщений для %s: %v", TrackingQueue, err)
		return fmt.Errorf("ошибка при настройке обработчика сообщений для %s: %w", TrackingQueue, err)
	}

	c.logger.Printf("[INFO] Настроена обработка сообщений из очереди %s", TrackingQueue)
	return nil
}

// HandleTrackingCommand выполняет команду телематики. Некорректные сообщения и отказы
// предметной области не переобрабатываются, сбои хранилища возвращаются для повтора
func (c *TrackingConsumer) HandleTrackingCommand(ctx context.Context, data []byte) error {
	var cmd entity.TrackingCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		c.logger.Printf("[ERROR] Не удалось десериализовать команду трекинга: %v", err)
		return fmt.Errorf("%w: %v", rabbitmq.ErrDiscard, err)
	}
	if cmd.SegmentID == 0 {
		c.logger.Printf("[WARN] Команда %q без segment_id, пропускаем", cmd.Action)
		return rabbitmq.ErrDiscard
	}

	var err error
	switch cmd.Action {
	case entity.TrackingSegmentStart:
		_, err = c.segments.Start(ctx, cmd.SegmentID)
	case entity.TrackingSegmentFinish:
		_, err = c.segments.Finish(ctx, cmd.SegmentID)
	default:
		c.logger.Printf("[WARN] SegmentID=%d: неизвестная команда %q, пропускаем", cmd.SegmentID, cmd.Action)
		return rabbitmq.ErrDiscard
	}

	if err != nil {
		if pkgerrors.IsDomainError(err) {
			c.logger.Printf("[WARN] SegmentID=%d: команда %s отклонена: %v", cmd.SegmentID, cmd.Action, err)
			return fmt.Errorf("%w: %v", rabbitmq.ErrDiscard, err)
		}
		c.logger.Printf("[ERROR] SegmentID=%d: ошибка выполнения команды %s: %v", cmd.SegmentID, cmd.Action, err)
		return pkgerrors.NewErrorWithDetails(err, map[string]interface{}{
			"segment_id": cmd.SegmentID,
			"action":     cmd.Action,
		})
	}

	c.logger.Printf("[INFO] SegmentID=%d: команда %s выполнена (грузовик ID=%d)", cmd.SegmentID, cmd.Action, cmd.TruckID)
	return nil
}
