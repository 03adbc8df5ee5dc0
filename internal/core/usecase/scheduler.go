package usecase

import (
	"propertify-view-service/internal/core/port"
	"time"
)

// SystemScheduler - планировщик на time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) port.Timer {
	return time.AfterFunc(d, f)
}
