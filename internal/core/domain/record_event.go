package domain

// Действия над записями, о которых сообщает бэкенд.
const (
	RecordActionDeleted = "deleted"
	RecordActionUpdated = "updated"
	RecordActionCreated = "created"
)

// RecordEvent - событие об изменении записи ресурса маркетплейса.
type RecordEvent struct {
	Resource string `json:"resource"`
	RecordID string `json:"record_id"`
	Action   string `json:"action"`
}
