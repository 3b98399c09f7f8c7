package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDiscard сообщает, что сообщение не может быть обработано никогда
// и должно быть отброшено без возврата в очередь
var ErrDiscard = errors.New("сообщение отброшено")

// Config содержит настройки подключения к RabbitMQ
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
	Prefetch int
}

// URL собирает строку подключения amqp://
func (c Config) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   "/" + trimSlash(c.VHost),
	}
	return u.String()
}

func trimSlash(vhost string) string {
	if vhost == "/" {
		return ""
	}
	return vhost
}

// RabbitMQ клиент с одним соединением и одним каналом.
// Доступ к каналу сериализован мьютексом
type RabbitMQ struct {
	config     Config
	mu         sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
	logger     *log.Logger
}

func NewRabbitMQ(cfg Config) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		config: cfg,
		logger: log.New(log.Writer(), "[RabbitMQ] ", log.LstdFlags),
	}

	if err := rmq.connect(); err != nil {
		return nil, err
	}
	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.config.URL())
	if err != nil {
		return fmt.Errorf("не удалось подключиться к RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("не удалось открыть канал: %w", err)
	}

	if r.config.Prefetch > 0 {
		if err := ch.Qos(r.config.Prefetch, 0, false); err != nil {
			ch.Close()
			conn.Close()
			return fmt.Errorf("не удалось установить prefetch: %w", err)
		}
	}

	r.connection = conn
	r.channel = ch
	return nil
}

// ensureChannel восстанавливает соединение, если оно было закрыто. Вызывается под r.mu
func (r *RabbitMQ) ensureChannel() error {
	if r.connection != nil && !r.connection.IsClosed() && r.channel != nil && !r.channel.IsClosed() {
		return nil
	}

	r.logger.Println("[WARN] Соединение потеряно, переподключение...")
	if r.connection != nil && !r.connection.IsClosed() {
		r.connection.Close()
	}
	return r.connect()
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil && !r.channel.IsClosed() {
		if err := r.channel.Close(); err != nil {
			return fmt.Errorf("ошибка при закрытии канала: %w", err)
		}
	}
	if r.connection != nil && !r.connection.IsClosed() {
		if err := r.connection.Close(); err != nil {
			return fmt.Errorf("ошибка при закрытии соединения: %w", err)
		}
	}
	return nil
}

// DeclareExchange объявляет durable exchange
func (r *RabbitMQ) DeclareExchange(name string, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureChannel(); err != nil {
		return err
	}
	return r.channel.ExchangeDeclare(name, kind, true, false, false, false, nil)
}

// DeclareQueue объявляет durable очередь
func (r *RabbitMQ) DeclareQueue(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureChannel(); err != nil {
		return err
	}
	_, err := r.channel.QueueDeclare(name, true, false, false, false, nil)
	return err
}

func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureChannel(); err != nil {
		return err
	}
	return r.channel.QueueBind(queueName, routingKey, exchangeName, false, nil)
}

// PublishMessage сериализует message в JSON и публикует persistent сообщение
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchange, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать сообщение: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureChannel(); err != nil {
		return err
	}

	return r.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// PublishMessageWithRetry повторяет публикацию с линейной задержкой
func (r *RabbitMQ) PublishMessageWithRetry(ctx context.Context, exchange, routingKey string, message interface{}, retries int) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if err = r.PublishMessage(ctx, exchange, routingKey, message); err == nil {
			return nil
		}

		r.logger.Printf("[WARN] Ошибка публикации в %s/%s (попытка %d/%d): %v", exchange, routingKey, attempt+1, retries+1, err)
		if attempt == retries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}

	return fmt.Errorf("не удалось опубликовать сообщение после %d попыток: %w", retries+1, err)
}

// ConsumeMessages запускает обработку очереди в отдельной горутине.
// Обработка завершается при отмене ctx или закрытии канала
func (r *RabbitMQ) ConsumeMessages(ctx context.Context, queueName, consumerName string, handler func(context.Context, []byte) error) error {
	r.mu.Lock()
	if err := r.ensureChannel(); err != nil {
		r.mu.Unlock()
		return err
	}
	msgs, err := r.channel.Consume(queueName, fmt.Sprintf("%s-%d", consumerName, time.Now().UnixNano()), false, false, false, false, nil)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ошибка при подписке на очередь %s: %w", queueName, err)
	}

	go r.handleMessages(ctx, msgs, handler)
	return nil
}

func (r *RabbitMQ) handleMessages(ctx context.Context, msgs <-chan amqp.Delivery, handler func(context.Context, []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				r.logger.Println("[WARN] Канал доставки закрыт, обработка остановлена")
				return
			}
			r.dispatch(ctx, msg, handler)
		}
	}
}

func (r *RabbitMQ) dispatch(ctx context.Context, msg amqp.Delivery, handler func(context.Context, []byte) error) {
	err := handler(ctx, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, ErrDiscard):
		r.logger.Printf("[WARN] Сообщение %s отброшено: %v", msg.RoutingKey, err)
		msg.Nack(false, false)
	default:
		r.logger.Printf("[ERROR] Ошибка обработки сообщения %s: %v", msg.RoutingKey, err)
		// повторная доставка только для сообщений, еще не возвращавшихся в очередь
		msg.Nack(false, !msg.Redelivered)
	}
}
