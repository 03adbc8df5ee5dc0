package rabbitmq_adapter

import (
	"context"
	"errors"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUseCase struct {
	events  []domain.RecordEvent
	traceID string
	err     error
}

func (r *recordingUseCase) Execute(ctx context.Context, event domain.RecordEvent) error {
	r.events = append(r.events, event)
	r.traceID = contextkeys.TraceIDFromContext(ctx)
	return r.err
}

func TestRecordEventsConsumer_Handle(t *testing.T) {
	uc := &recordingUseCase{}
	a := &RecordEventsConsumerAdapter{useCase: uc, logger: port.NoopLogger{}}

	err := a.handle(amqp.Delivery{
		RoutingKey: "posts.deleted",
		Headers:    amqp.Table{"x-trace-id": "trace-1"},
		Body:       []byte(`{"record_id":"p-42"}`),
	})
	require.NoError(t, err)
	require.Len(t, uc.events, 1)
	assert.Equal(t, domain.RecordEvent{Resource: "posts", RecordID: "p-42", Action: "deleted"}, uc.events[0])
	assert.Equal(t, "trace-1", uc.traceID)
}

func TestRecordEventsConsumer_BodyOverridesRoutingKey(t *testing.T) {
	uc := &recordingUseCase{}
	a := &RecordEventsConsumerAdapter{useCase: uc, logger: port.NoopLogger{}}

	require.NoError(t, a.handle(amqp.Delivery{
		RoutingKey: "records.changed",
		Body:       []byte(`{"resource":"properties","record_id":"7","action":"updated"}`),
	}))
	assert.Equal(t, "properties", uc.events[0].Resource)
	assert.Equal(t, "updated", uc.events[0].Action)
	assert.NotEmpty(t, uc.traceID)
}

func TestRecordEventsConsumer_BadMessagesAreDropped(t *testing.T) {
	uc := &recordingUseCase{err: errors.New("unknown action")}
	a := &RecordEventsConsumerAdapter{useCase: uc, logger: port.NoopLogger{}}

	assert.NoError(t, a.handle(amqp.Delivery{Body: []byte(`not json`)}))
	assert.NoError(t, a.handle(amqp.Delivery{Body: []byte(`{"record_id":"1","action":"archived"}`)}))
	assert.Empty(t, uc.events)

	assert.NoError(t, a.handle(amqp.Delivery{RoutingKey: "posts.exploded", Body: []byte(`{"record_id":"1"}`)}))
	assert.Len(t, uc.events, 1)
}

func TestPkgLoggerBridge_Fields(t *testing.T) {
	b := &PkgLoggerBridge{logger: port.NoopLogger{}}
	f := b.fields("queue", "q1", 7, "seven", "dangling")
	assert.Equal(t, port.Fields{"queue": "q1", "7": "seven", "dangling": "(missing)"}, f)
}
