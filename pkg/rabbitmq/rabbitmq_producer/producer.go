package rabbitmq_producer

import (
	"context"
	"fmt"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_common"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PublisherConfig - настройки издателя.
type PublisherConfig struct {
	ExchangeName    string // пустая строка - default exchange
	ExchangeType    string // direct, fanout, topic, headers
	DurableExchange bool
	// DeclareExchange - объявить обменник при создании; иначе он должен уже существовать.
	DeclareExchange bool

	Logger rabbitmq_common.Logger
}

// Publisher публикует сообщения в один обменник через собственный канал.
type Publisher struct {
	config     PublisherConfig
	connection *amqp.Connection
	logger     rabbitmq_common.Logger

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewPublisher(cfg PublisherConfig, connManager *rabbitmq_common.ConnectionManager) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}
	if cfg.DeclareExchange && (cfg.ExchangeName == "" || cfg.ExchangeType == "") {
		return nil, fmt.Errorf("producer: exchange name and type are required to declare an exchange")
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("producer: failed to get channel: %w", err)
	}

	if cfg.DeclareExchange {
		logger.Debug("Declaring exchange", "name", cfg.ExchangeName, "type", cfg.ExchangeType)
		if err := ch.ExchangeDeclare(cfg.ExchangeName, cfg.ExchangeType, cfg.DurableExchange, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("producer: failed to declare exchange '%s': %w", cfg.ExchangeName, err)
		}
	}

	return &Publisher{config: cfg, connection: conn, channel: ch, logger: logger}, nil
}

// Publish отправляет сообщение с ключом маршрутизации routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.connection.IsClosed() {
		return fmt.Errorf("producer: channel or connection is closed")
	}
	if err := p.channel.PublishWithContext(ctx, p.config.ExchangeName, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("producer: failed to publish message: %w", err)
	}
	return nil
}

// Close закрывает канал издателя. Соединение принадлежит ConnectionManager.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	if err != nil {
		p.logger.Error(err, "Error closing producer channel")
		return err
	}
	p.logger.Debug("Producer closed")
	return nil
}
