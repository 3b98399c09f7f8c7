package messaging

import (
	"context"
	"log"

	"github.com/director74/cargo_logistics/pkg/config"
	"github.com/director74/cargo_logistics/pkg/rabbitmq"
)

// MessagePublisher интерфейс для публикации сообщений
type MessagePublisher interface {
	PublishMessage(ctx context.Context, exchange, routingKey string, message interface{}) error
	PublishMessageWithRetry(ctx context.Context, exchange, routingKey string, message interface{}, retries int) error
}

// MessageConsumer интерфейс для получения сообщений
type MessageConsumer interface {
	DeclareQueue(name string) error
	BindQueue(queueName, exchangeName, routingKey string) error
	ConsumeMessages(ctx context.Context, queueName, consumerName string, handler func(context.Context, []byte) error) error
}

// MessageBroker объединяет публикацию и обработку сообщений
type MessageBroker interface {
	MessagePublisher
	MessageConsumer
	DeclareExchange(name string, kind string) error
	Close() error
}

// InitRabbitMQ подключается к RabbitMQ с параметрами из общей конфигурации
func InitRabbitMQ(cfg config.RabbitMQConfig) (*rabbitmq.RabbitMQ, error) {
	return rabbitmq.NewRabbitMQ(rabbitmq.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		VHost:    cfg.VHost,
		Prefetch: 10,
	})
}

// PublishWithRetryAndLogging публикует сообщение с повторными попытками и логированием
func PublishWithRetryAndLogging(ctx context.Context, publisher MessagePublisher, exchange, routingKey string, message interface{}, retries int) error {
	if err := publisher.PublishMessageWithRetry(ctx, exchange, routingKey, message, retries); err != nil {
		log.Printf("[ERROR] Не удалось опубликовать сообщение в %s с ключом %s: %v", exchange, routingKey, err)
		return err
	}

	log.Printf("[INFO] Сообщение опубликовано в %s с ключом %s", exchange, routingKey)
	return nil
}

// SetupExchangesAndQueues объявляет exchanges, очереди и их привязки.
// queues: имя очереди -> список пар (exchange, routing key)
func SetupExchangesAndQueues(broker MessageBroker, exchanges map[string]string, queues map[string][]Binding) error {
	for name, kind := range exchanges {
		if err := broker.DeclareExchange(name, kind); err != nil {
			return err
		}
	}

	for queueName, bindings := range queues {
		if err := broker.DeclareQueue(queueName); err != nil {
			return err
		}

		for _, b := range bindings {
			if err := broker.BindQueue(queueName, b.Exchange, b.RoutingKey); err != nil {
				return err
			}
		}
	}

	return nil
}

// Binding привязка очереди к exchange
type Binding struct {
	Exchange   string
	RoutingKey string
}
