package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/port"
	"sync"
)

// clientChannel - канал одного SSE-подключения (вкладки браузера)
type clientChannel chan []byte

type eventWithContext struct {
	ctx   context.Context
	event port.ViewEvent
}

// SSENotifier рассылает изменения представлений подписчикам сессии.
// Ключ подписки - идентификатор сессии представления.
type SSENotifier struct {
	clients map[string][]clientChannel
	mu      sync.RWMutex

	eventChan chan eventWithContext
	done      chan struct{}
	stopOnce  sync.Once
	stopped   chan struct{}

	logger port.LoggerPort
}

// NewSSENotifier создает нотификатор и запускает диспетчер.
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients:   make(map[string][]clientChannel),
		eventChan: make(chan eventWithContext, 100),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}
	go n.dispatcher()
	return n
}

func (n *SSENotifier) dispatcher() {
	defer close(n.stopped)
	n.logger.Debug("Notifier dispatcher started", nil)
	for {
		select {
		case <-n.done:
			n.closeAll()
			return
		case pkg := <-n.eventChan:
			n.dispatch(pkg.ctx, pkg.event)
		}
	}
}

func (n *SSENotifier) dispatch(ctx context.Context, event port.ViewEvent) {
	eventLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":  "SSENotifier.dispatcher",
		"event_type": event.Type,
		"session_id": event.SessionID,
	})

	eventBytes, err := json.Marshal(event.Data)
	if err != nil {
		eventLogger.Error("Failed to marshal event", err, nil)
		return
	}
	sseMessage := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, eventBytes))

	// Закрытие сессии завершает все ее потоки
	if event.Type == port.EventViewClosed {
		n.mu.Lock()
		channels := n.clients[event.SessionID]
		delete(n.clients, event.SessionID)
		n.mu.Unlock()
		for _, ch := range channels {
			select {
			case ch <- sseMessage:
			default:
			}
			close(ch)
		}
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	channels, found := n.clients[event.SessionID]
	if !found {
		return
	}
	for _, ch := range channels {
		select {
		case ch <- sseMessage:
		default:
			eventLogger.Warn("Client channel is full, skipping", nil)
		}
	}
}

// Notify ставит событие в очередь диспетчера. После Close события отбрасываются.
func (n *SSENotifier) Notify(ctx context.Context, event port.ViewEvent) {
	select {
	case <-n.done:
	case n.eventChan <- eventWithContext{ctx: ctx, event: event}:
	}
}

// AddClient регистрирует новое SSE-подключение к сессии.
// Канал закрывается нотификатором, когда сессия закрыта или нотификатор остановлен.
func (n *SSENotifier) AddClient(sessionID string) <-chan []byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(clientChannel, 100)
	select {
	case <-n.done:
		close(ch)
		return ch
	default:
	}
	n.clients[sessionID] = append(n.clients[sessionID], ch)

	n.logger.Info("Client connected to view session", port.Fields{
		"session_id":        sessionID,
		"total_connections": len(n.clients[sessionID]),
	})
	return ch
}

// RemoveClient отписывает подключение при разрыве соединения.
func (n *SSENotifier) RemoveClient(sessionID string, ch <-chan []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[sessionID]
	if !found {
		return
	}
	remaining := channels[:0]
	for _, c := range channels {
		if (<-chan []byte)(c) != ch {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(n.clients, sessionID)
		n.logger.Debug("Last client disconnected from view session", port.Fields{"session_id": sessionID})
		return
	}
	n.clients[sessionID] = remaining
}

// Close останавливает диспетчер и закрывает все подключения.
func (n *SSENotifier) Close() {
	n.stopOnce.Do(func() { close(n.done) })
	<-n.stopped
}

func (n *SSENotifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, channels := range n.clients {
		for _, ch := range channels {
			close(ch)
		}
		delete(n.clients, id)
	}
}
