package notifier

import (
	"context"
	"propertify-view-service/internal/core/port"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) (string, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return string(msg), ok
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return "", false
	}
}

func TestSSENotifier_DeliversToSessionSubscribers(t *testing.T) {
	n := NewSSENotifier(port.NoopLogger{})
	t.Cleanup(n.Close)

	a := n.AddClient("s1")
	b := n.AddClient("s1")
	other := n.AddClient("s2")

	n.Notify(context.Background(), port.ViewEvent{SessionID: "s1", Type: port.EventTableUpdated, Data: map[string]int{"totalCount": 3}})

	for _, ch := range []<-chan []byte{a, b} {
		msg, ok := receive(t, ch)
		require.True(t, ok)
		assert.Equal(t, "event: table.updated\ndata: {\"totalCount\":3}\n\n", msg)
	}
	select {
	case msg := <-other:
		t.Fatalf("unexpected message for another session: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSENotifier_ViewClosedEndsStreams(t *testing.T) {
	n := NewSSENotifier(port.NoopLogger{})
	t.Cleanup(n.Close)

	ch := n.AddClient("s1")
	n.Notify(context.Background(), port.ViewEvent{SessionID: "s1", Type: port.EventViewClosed, Data: map[string]string{"reason": "idle"}})

	msg, ok := receive(t, ch)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(msg, "event: view.closed"))

	_, ok = receive(t, ch)
	assert.False(t, ok)
}

func TestSSENotifier_RemoveClient(t *testing.T) {
	n := NewSSENotifier(port.NoopLogger{})
	t.Cleanup(n.Close)

	ch := n.AddClient("s1")
	n.RemoveClient("s1", ch)

	n.mu.RLock()
	_, found := n.clients["s1"]
	n.mu.RUnlock()
	assert.False(t, found)
}

func TestSSENotifier_CloseClosesClientsAndDropsEvents(t *testing.T) {
	n := NewSSENotifier(port.NoopLogger{})
	ch := n.AddClient("s1")

	n.Close()
	_, ok := receive(t, ch)
	assert.False(t, ok)

	done := make(chan struct{})
	go func() {
		n.Notify(context.Background(), port.ViewEvent{SessionID: "s1", Type: port.EventFeedUpdated})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked after Close")
	}

	late := n.AddClient("s1")
	_, ok = receive(t, late)
	assert.False(t, ok)
}
