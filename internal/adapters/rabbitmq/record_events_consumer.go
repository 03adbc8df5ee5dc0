package rabbitmq_adapter

import (
	"context"
	"encoding/json"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/contracts"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/port/usecases_port"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_common"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RecordEventsConsumerAdapter слушает события об изменении записей и применяет их к открытым сессиям.
type RecordEventsConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	useCase  usecases_port.ApplyRecordEventUseCasePort
	logger   port.LoggerPort
}

func NewRecordEventsConsumerAdapter(
	cfg rabbitmq_consumer.ConsumerConfig,
	uc usecases_port.ApplyRecordEventUseCasePort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*RecordEventsConsumerAdapter, error) {
	adapter := &RecordEventsConsumerAdapter{
		useCase: uc,
		logger:  logger.WithFields(port.Fields{"component": "RecordEventsConsumer"}),
	}
	cfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{"component": "rabbitmq_consumer", "queue": cfg.QueueName}))

	consumer, err := rabbitmq_consumer.NewConsumer(cfg, adapter.handle, connManager)
	if err != nil {
		return nil, err
	}
	adapter.consumer = consumer
	return adapter, nil
}

func (a *RecordEventsConsumerAdapter) handle(d amqp.Delivery) error {
	traceID, ok := d.Headers["x-trace-id"].(string)
	if !ok || traceID == "" {
		traceID = uuid.NewString()
	}
	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"delivery_tag": d.DeliveryTag,
		"routing_key":  d.RoutingKey,
	})

	// Битое сообщение не переотправляем.
	if err := contracts.Validate(contracts.RecordEventV1, d.Body); err != nil {
		msgLogger.Error("Record event does not match schema, dropping message", err, nil)
		return nil
	}
	var dto RecordEventDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		msgLogger.Error("Failed to unmarshal record event, dropping message", err, nil)
		return nil
	}
	event := dto.toDomain(d.RoutingKey)

	ctx := contextkeys.ContextWithTraceID(context.Background(), traceID)
	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)

	if err := a.useCase.Execute(ctx, event); err != nil {
		msgLogger.Warn("Record event rejected", port.Fields{"error": err.Error()})
		return nil
	}
	return nil
}

func (a *RecordEventsConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

func (a *RecordEventsConsumerAdapter) Close() error {
	return a.consumer.Close()
}
