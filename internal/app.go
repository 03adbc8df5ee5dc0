package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	token_adapter "propertify-view-service/internal/adapters/jwt"
	localstorage_adapter "propertify-view-service/internal/adapters/localstorage"
	logger_adapter "propertify-view-service/internal/adapters/logger"
	marketplace_api_client "propertify-view-service/internal/adapters/marketplace_api"
	"propertify-view-service/internal/adapters/notifier"
	rabbitmq_adapter "propertify-view-service/internal/adapters/rabbitmq"
	"propertify-view-service/internal/adapters/rest"
	"propertify-view-service/internal/configs"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/constants"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/usecase"
	fluentlogger "propertify-view-service/pkg/fluent_logger"
	"propertify-view-service/pkg/postgres"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_common"
	"propertify-view-service/pkg/rabbitmq/rabbitmq_consumer"
	"strings"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *configs.AppConfig
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	apiServer   *rest.Server
	registry    *usecase.ViewSessionRegistry
	sseNotifier *notifier.SSENotifier

	connManager         *rabbitmq_common.ConnectionManager
	recordEventListener port.EventListenerPort

	logger       port.LoggerPort
	fluentClient *fluent.Fluent
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ЛОГГЕРЫ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, "app", parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	app := &App{
		config:       appConfig,
		logger:       appLogger,
		fluentClient: fluentClient,
	}
	// При ошибке сборки освобождаем то, что уже успели открыть.
	ok := false
	defer func() {
		if !ok {
			app.closeResources()
			if fluentClient != nil {
				fluentClient.Close()
			}
		}
	}()

	// --- 2. ЛОКАЛЬНОЕ ХРАНИЛИЩЕ КЛИЕНТОВ ---
	storage, err := app.newLocalStorage(baseLogger)
	if err != nil {
		appLogger.Error("Failed to initialize local storage", err, port.Fields{"driver": appConfig.LocalStorage.Driver})
		return nil, err
	}
	appLogger.Info("Local storage initialized.", port.Fields{"driver": appConfig.LocalStorage.Driver})

	tokenDecoder := token_adapter.NewTokenDecoder(appConfig.Auth.JWTSigningKey)
	appState := usecase.NewAppStateStore(storage, tokenDecoder)

	// --- 3. МАРКЕТПЛЕЙС И СЕССИИ ПРЕДСТАВЛЕНИЙ ---
	apiClient := marketplace_api_client.NewClient(appConfig.Marketplace.URL, appConfig.Marketplace.Timeout)
	fetchers := marketplace_api_client.NewFetcherFactory(apiClient)
	comments := marketplace_api_client.NewCommentSource(apiClient)

	app.sseNotifier = notifier.NewSSENotifier(baseLogger)
	appLogger.Info("SSE Notifier initialized.", nil)

	app.registry = usecase.NewViewSessionRegistry(fetchers, app.sseNotifier, baseLogger, usecase.RegistryConfig{
		TablePageSize:  appConfig.Views.TablePageSize,
		SearchDebounce: appConfig.Views.SearchDebounce,
		FeedPageSize:   appConfig.Views.FeedPageSize,
		IdleTTL:        appConfig.Views.IdleTTL,
		Scheduler:      usecase.SystemScheduler{},
	})

	getCommentThreadUC := usecase.NewGetCommentThreadUseCase(comments)
	applyRecordEventUC := usecase.NewApplyRecordEventUseCase(app.registry)
	appLogger.Info("All use cases initialized.", nil)

	// --- 4. REST API ---
	app.apiServer = rest.NewServer(appConfig.Rest.PORT, rest.Handlers{
		Session:  rest.NewSessionHandler(appState),
		Views:    rest.NewViewHandler(app.registry, appState, app.sseNotifier),
		Comments: rest.NewCommentsHandler(getCommentThreadUC, appState),
	}, appConfig.Rest.AllowedOrigins, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	// --- 5. СОБЫТИЯ ОБ ИЗМЕНЕНИИ ЗАПИСЕЙ (опционально) ---
	if appConfig.RabbitMQ.Enabled {
		connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"}))
		app.connManager, err = rabbitmq_common.NewConnectionManager(rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL}, connManagerBridge)
		if err != nil {
			appLogger.Error("Failed to create connection manager", err, nil)
			return nil, fmt.Errorf("failed to create connection manager: %w", err)
		}
		appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

		consumerCfg := rabbitmq_consumer.ConsumerConfig{
			QueueName:     constants.QueueRecordEvents,
			Durable:       true,
			Exchange:      constants.RecordEventsExchange,
			ExchangeType:  "topic",
			RoutingKeys:   constants.RecordEventRoutingKeys,
			PrefetchCount: 10,
			ConsumerTag:   appConfig.AppName + "-record-events",

			EnableRetry:        true,
			RetryExchange:      constants.RetryExchange,
			RetryQueue:         constants.WaitQueue,
			RetryTTL:           constants.RetryTTL,
			FinalDLX:           constants.FinalDLXExchange,
			FinalDLQ:           constants.FinalDLQ,
			FinalDLQRoutingKey: constants.FinalDLQRoutingKey,
			MaxRetries:         constants.MaxRetries,
		}
		listener, err := rabbitmq_adapter.NewRecordEventsConsumerAdapter(consumerCfg, applyRecordEventUC, baseLogger, app.connManager)
		if err != nil {
			appLogger.Error("Failed to create record events consumer", err, nil)
			return nil, fmt.Errorf("failed to create record events consumer adapter: %w", err)
		}
		app.recordEventListener = listener
		appLogger.Info("Record events listener initialized.", nil)
	}

	ok = true
	return app, nil
}

func (a *App) newLocalStorage(baseLogger port.LoggerPort) (port.LocalStoragePort, error) {
	switch a.config.LocalStorage.Driver {
	case configs.StorageDriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := postgres.NewClient(ctx, postgres.Config{
			DatabaseURL: a.config.Database.URL,
			MaxConns:    a.config.Database.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		a.dbPool = pool

		storage, err := localstorage_adapter.NewPostgresStorage(pool)
		if err != nil {
			return nil, err
		}
		logCtx := contextWithComponentLogger(ctx, baseLogger, "postgres_local_storage")
		if err := storage.EnsureSchema(logCtx); err != nil {
			return nil, fmt.Errorf("failed to prepare local storage schema: %w", err)
		}
		return storage, nil

	case configs.StorageDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		a.redisClient = client

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis at %s: %w", a.config.Redis.Addr, err)
		}
		return localstorage_adapter.NewRedisStorage(client, a.config.Redis.Prefix, a.config.Redis.TTL), nil

	default:
		return localstorage_adapter.NewMemoryStorage(), nil
	}
}

// Run запускает компоненты и блокируется до сигнала ОС или падения одного из них.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)
		a.registry.CloseAll()
		a.logger.Info("All view sessions closed.", nil)
		a.closeResources()
		a.logger.Info("Application shut down gracefully.", nil)
		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.apiServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// SSE-потоки держат соединения открытыми: закрываем нотификатор до остановки сервера.
		a.sseNotifier.Close()
		if err := a.apiServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}
		return nil
	})

	g.Go(func() error {
		a.registry.RunReaper(gCtx, a.config.Views.ReapInterval)
		return nil
	})

	if a.recordEventListener != nil {
		g.Go(func() error {
			listenerLogger := a.logger.WithFields(port.Fields{"listener": "Record Events Listener"})
			listenerLogger.Info("Starting listener...", nil)
			if err := a.recordEventListener.Start(gCtx); err != nil {
				listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
				return fmt.Errorf("record events listener error: %w", err)
			}
			listenerLogger.Info("Listener stopped gracefully.", nil)
			return nil
		})
	}

	a.logger.Info("Application running. Waiting for signals or component error...", port.Fields{"port": a.config.Rest.PORT})

	err := g.Wait()
	if ctx.Err() != nil {
		a.logger.Warn("Received OS signal, shutting down...", nil)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("A critical component failed, shutting down", err, nil)
		return err
	}
	return nil
}

// closeResources освобождает внешние соединения. Безопасен для частично собранного App.
func (a *App) closeResources() {
	if a.recordEventListener != nil {
		if err := a.recordEventListener.Close(); err != nil {
			a.logger.Error("Error closing record events listener", err, nil)
		}
		a.recordEventListener = nil
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection manager", err, nil)
		}
		a.connManager = nil
	}
	if a.sseNotifier != nil {
		a.sseNotifier.Close()
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing redis client", err, nil)
		}
		a.redisClient = nil
	}
}

func contextWithComponentLogger(ctx context.Context, logger port.LoggerPort, component string) context.Context {
	return contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"component": component}))
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
