package port

import "time"

// Timer - отложенный вызов, который можно отменить.
type Timer interface {
	// Stop отменяет вызов. Возвращает false, если вызов уже произошел или был отменен.
	Stop() bool
}

// Scheduler планирует отложенные вызовы (debounce поиска).
// В тестах подменяется ручными часами.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
