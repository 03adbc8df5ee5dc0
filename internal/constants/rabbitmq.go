package constants

import "time"

// Имена очередей
const (
	QueueRecordEvents = "view_service_record_events"
)

// Ключи маршрутизации: <resource>.<action>
var RecordEventRoutingKeys = []string{
	"*.deleted",
	"*.updated",
	"*.created",
}

const RecordEventsExchange = "marketplace_records"

const (
	FinalDLXExchange   = "record_events_final_dlx"
	FinalDLQ           = "record_events_final_dlq"
	FinalDLQRoutingKey = "record_events.dlq.key"
)

const (
	RetryExchange = "shared_retry_exchange"
	WaitQueue     = "view_service_wait_10s"
	RetryTTL      = 10 * time.Second
	MaxRetries    = 3
)
