package rabbitmq_consumer

import (
	"context"
	"fmt"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_common"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_producer"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение. nil - ack, ошибка - nack (и ретрай, если включен).
type MessageHandler func(delivery amqp.Delivery) error

// ConsumerConfig - настройки очереди, привязки и ретраев.
type ConsumerConfig struct {
	QueueName  string
	Durable    bool
	AutoDelete bool
	Exclusive  bool

	// Exchange - обменник, к которому привязывается очередь (пусто - без привязки).
	Exchange     string
	ExchangeType string
	RoutingKeys  []string

	PrefetchCount int
	ConsumerTag   string

	// Ретраи: упавшее сообщение уходит через RetryExchange в очередь ожидания с TTL
	// и возвращается в Exchange. После MaxRetries оно публикуется в FinalDLX.
	EnableRetry        bool
	RetryExchange      string
	RetryQueue         string
	RetryTTL           time.Duration
	FinalDLX           string
	FinalDLQ           string
	FinalDLQRoutingKey string
	MaxRetries         int

	Logger rabbitmq_common.Logger
}

func (c ConsumerConfig) validate() error {
	if c.QueueName == "" {
		return fmt.Errorf("consumer: queue name is required")
	}
	if c.Exchange != "" && c.ExchangeType == "" {
		return fmt.Errorf("consumer: exchange type is required for exchange %q", c.Exchange)
	}
	if c.EnableRetry {
		if c.Exchange == "" || c.RetryExchange == "" || c.RetryQueue == "" || c.FinalDLX == "" || c.FinalDLQ == "" {
			return fmt.Errorf("consumer: retry requires exchange, retry exchange/queue and final DLX/DLQ")
		}
		if c.MaxRetries < 1 {
			return fmt.Errorf("consumer: max retries must be >= 1")
		}
	}
	return nil
}

// Consumer читает очередь и запускает обработчик для каждого сообщения в своей горутине.
type Consumer struct {
	config     ConsumerConfig
	handler    MessageHandler
	channel    *amqp.Channel
	conn       *amqp.Connection
	dlx        *rabbitmq_producer.Publisher
	logger     rabbitmq_common.Logger
	wg         sync.WaitGroup
}

// NewConsumer объявляет топологию (очередь, привязки, ретраи) и готовит потребителя.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("consumer: failed to get channel: %w", err)
	}
	c := &Consumer{config: cfg, handler: handler, channel: ch, conn: conn, logger: logger}

	if err := c.declare(); err != nil {
		_ = ch.Close()
		return nil, err
	}

	if cfg.EnableRetry {
		dlx, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			ExchangeName: cfg.FinalDLX,
			Logger:       logger,
		}, connManager)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("consumer: failed to create final DLX publisher: %w", err)
		}
		c.dlx = dlx
	}
	return c, nil
}

func (c *Consumer) declare() error {
	cfg := c.config
	ch := c.channel

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("consumer: failed to set QoS: %w", err)
		}
	}

	if cfg.Exchange != "" {
		c.logger.Debug("Declaring exchange", "name", cfg.Exchange, "type", cfg.ExchangeType)
		if err := ch.ExchangeDeclare(cfg.Exchange, cfg.ExchangeType, true, false, false, false, nil); err != nil {
			return fmt.Errorf("consumer: failed to declare exchange '%s': %w", cfg.Exchange, err)
		}
	}

	var queueArgs amqp.Table
	if cfg.EnableRetry {
		if err := c.declareRetry(); err != nil {
			return err
		}
		queueArgs = amqp.Table{"x-dead-letter-exchange": cfg.RetryExchange}
	}

	c.logger.Debug("Declaring queue", "name", cfg.QueueName, "durable", cfg.Durable)
	if _, err := ch.QueueDeclare(cfg.QueueName, cfg.Durable, cfg.AutoDelete, cfg.Exclusive, false, queueArgs); err != nil {
		return fmt.Errorf("consumer: failed to declare queue '%s': %w", cfg.QueueName, err)
	}

	if cfg.Exchange != "" {
		keys := cfg.RoutingKeys
		if len(keys) == 0 {
			keys = []string{""}
		}
		for _, key := range keys {
			c.logger.Debug("Binding queue", "queue", cfg.QueueName, "exchange", cfg.Exchange, "routing_key", key)
			if err := ch.QueueBind(cfg.QueueName, key, cfg.Exchange, false, nil); err != nil {
				return fmt.Errorf("consumer: failed to bind queue '%s' with key '%s': %w", cfg.QueueName, key, err)
			}
		}
	}
	return nil
}

func (c *Consumer) declareRetry() error {
	cfg := c.config
	ch := c.channel

	if err := ch.ExchangeDeclare(cfg.FinalDLX, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to declare final DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.FinalDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to declare final DLQ: %w", err)
	}
	if err := ch.QueueBind(cfg.FinalDLQ, cfg.FinalDLQRoutingKey, cfg.FinalDLX, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to bind final DLQ: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.RetryExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to declare retry exchange: %w", err)
	}
	_, err := ch.QueueDeclare(cfg.RetryQueue, true, false, false, false, amqp.Table{
		"x-message-ttl":          int32(cfg.RetryTTL / time.Millisecond),
		"x-dead-letter-exchange": cfg.Exchange,
	})
	if err != nil {
		return fmt.Errorf("consumer: failed to declare retry queue: %w", err)
	}
	if err := ch.QueueBind(cfg.RetryQueue, "", cfg.RetryExchange, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to bind retry queue: %w", err)
	}
	return nil
}

// StartConsuming блокируется до отмены ctx (возвращает nil) или закрытия соединения (ошибка).
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.channel == nil || c.conn.IsClosed() {
		return fmt.Errorf("consumer: not connected")
	}
	msgs, err := c.channel.Consume(c.config.QueueName, c.config.ConsumerTag, false, c.config.Exclusive, false, false, nil)
	if err != nil {
		return fmt.Errorf("consumer: failed to consume from '%s': %w", c.config.QueueName, err)
	}
	c.logger.Info("Waiting for messages", "queue", c.config.QueueName)

	closed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Context cancelled, consumer stops", "queue", c.config.QueueName)
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return fmt.Errorf("consumer: connection closed")
			}
			c.logger.Error(amqpErr, "Connection closed", "queue", c.config.QueueName)
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				c.logger.Info("Deliveries channel closed", "queue", c.config.QueueName)
				return nil
			}
			c.wg.Add(1)
			go func(d amqp.Delivery) {
				defer c.wg.Done()
				c.process(d)
			}(d)
		}
	}
}

func (c *Consumer) process(d amqp.Delivery) {
	err := c.handler(d)
	if err == nil {
		_ = d.Ack(false)
		c.logger.Debug("Message acked", "delivery_tag", d.DeliveryTag)
		return
	}
	c.logger.Error(err, "Handler failed", "delivery_tag", d.DeliveryTag, "routing_key", d.RoutingKey)

	if !c.config.EnableRetry {
		_ = d.Nack(false, false)
		return
	}

	deaths := DeathCount(d.Headers, c.config.QueueName)
	if deaths < int64(c.config.MaxRetries) {
		c.logger.Info("Retrying message", "delivery_tag", d.DeliveryTag, "death_count", deaths)
		_ = d.Nack(false, false)
		return
	}

	pubErr := c.dlx.Publish(context.Background(), c.config.FinalDLQRoutingKey, amqp.Publishing{
		ContentType:  d.ContentType,
		Body:         d.Body,
		Headers:      d.Headers,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	})
	if pubErr != nil {
		c.logger.Error(pubErr, "Failed to publish to final DLX", "delivery_tag", d.DeliveryTag)
		_ = d.Nack(false, false)
		return
	}
	c.logger.Warn("Message moved to final DLQ", "delivery_tag", d.DeliveryTag)
	_ = d.Ack(false)
}

// DeathCount возвращает, сколько раз сообщение было отклонено в очереди queue (заголовок x-death).
func DeathCount(headers amqp.Table, queue string) int64 {
	deaths, ok := headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	for _, death := range deaths {
		tbl, ok := death.(amqp.Table)
		if !ok {
			continue
		}
		if q, _ := tbl["queue"].(string); q == queue {
			if count, ok := tbl["count"].(int64); ok {
				return count
			}
		}
	}
	return 0
}

// Close дожидается обработчиков и закрывает каналы.
func (c *Consumer) Close() error {
	c.wg.Wait()

	var firstErr error
	if c.dlx != nil {
		if err := c.dlx.Close(); err != nil {
			firstErr = err
		}
	}
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && firstErr == nil {
			c.logger.Error(err, "Error closing consumer channel")
			firstErr = err
		}
		c.channel = nil
	}
	c.logger.Info("Consumer closed", "queue", c.config.QueueName)
	return firstErr
}
