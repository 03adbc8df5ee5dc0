package usecase

import (
	"context"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"sync"
	"testing"
	"time"
)

// manualScheduler - планировщик с ручными часами.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) port.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance сдвигает часы и синхронно вызывает наступившие таймеры.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fetchResult struct {
	resp *domain.PageResponse
	err  error
}

type fetchCall struct {
	req   domain.PageRequest
	reply chan fetchResult
}

func (c *fetchCall) respond(resp *domain.PageResponse) {
	c.reply <- fetchResult{resp: resp}
}

func (c *fetchCall) fail(err error) {
	c.reply <- fetchResult{err: err}
}

// stubFetcher отдает каждый вызов тесту и ждет, пока тест на него ответит.
type stubFetcher struct {
	calls chan *fetchCall
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{calls: make(chan *fetchCall, 64)}
}

func (f *stubFetcher) Fetch(ctx context.Context, req domain.PageRequest) (*domain.PageResponse, error) {
	call := &fetchCall{req: req, reply: make(chan fetchResult, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *stubFetcher) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch call, got none")
		return nil
	}
}

func (f *stubFetcher) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected fetch call: %+v", call.req)
	case <-time.After(50 * time.Millisecond):
	}
}

func page(total, pageNum, limit int, ids ...string) *domain.PageResponse {
	data := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		data = append(data, domain.Record{"_id": id})
	}
	return &domain.PageResponse{
		Data:       data,
		Pagination: domain.Pagination{Total: total, Page: pageNum, Limit: limit},
	}
}

func ids(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}
