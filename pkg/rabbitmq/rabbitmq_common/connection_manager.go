package rabbitmq_common

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultReconnectInterval - период проверки соединения фоновым переподключением.
const DefaultReconnectInterval = 10 * time.Second

// ConnectionManager держит одно AMQP-соединение на процесс и раздает из него каналы.
type ConnectionManager struct {
	url    string
	logger Logger

	mu         sync.RWMutex
	connection *amqp.Connection

	stop     context.CancelFunc
	stopped  chan struct{}
	interval time.Duration
}

// NewConnectionManager подключается к брокеру и запускает фоновое переподключение.
func NewConnectionManager(cfg Config, logger Logger) (*ConnectionManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	m := &ConnectionManager{
		url:      cfg.URL,
		logger:   logger,
		stopped:  make(chan struct{}),
		interval: DefaultReconnectInterval,
	}
	if _, err := m.getConnection(); err != nil {
		logger.Error(err, "Initial connection failed")
		return nil, fmt.Errorf("initial connection failed: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.stop = cancel
	go m.watch(ctx)
	return m, nil
}

func (m *ConnectionManager) getConnection() (*amqp.Connection, error) {
	m.mu.RLock()
	conn := m.connection
	m.mu.RUnlock()
	if conn != nil && !conn.IsClosed() {
		return conn, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connection != nil && !m.connection.IsClosed() {
		return m.connection, nil
	}

	m.logger.Debug("ConnectionManager: connecting")
	conn, err := amqp.Dial(m.url)
	if err != nil {
		return nil, fmt.Errorf("ConnectionManager: failed to dial RabbitMQ: %w", err)
	}
	m.connection = conn
	m.logger.Info("ConnectionManager: connected")
	return conn, nil
}

// GetChannel открывает новый канал на общем соединении.
func (m *ConnectionManager) GetChannel() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := m.getConnection()
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return conn, nil, fmt.Errorf("ConnectionManager: failed to open a channel: %w", err)
	}
	return conn, ch, nil
}

func (m *ConnectionManager) watch(ctx context.Context) {
	defer close(m.stopped)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.RLock()
		closed := m.connection == nil || m.connection.IsClosed()
		m.mu.RUnlock()
		if !closed {
			continue
		}

		m.logger.Warn("ConnectionManager: connection lost, reconnecting")
		if _, err := m.getConnection(); err != nil {
			m.logger.Error(err, "ConnectionManager: reconnect failed")
		}
	}
}

// Close останавливает переподключение и закрывает соединение.
func (m *ConnectionManager) Close() error {
	if m.stop != nil {
		m.stop()
		<-m.stopped
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connection == nil || m.connection.IsClosed() {
		return nil
	}
	if err := m.connection.Close(); err != nil {
		m.logger.Error(err, "ConnectionManager: failed to close connection")
		return err
	}
	m.logger.Debug("ConnectionManager: connection closed")
	return nil
}
