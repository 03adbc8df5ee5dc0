package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы локального хранилища клиента.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

type RESTconfig struct {
	PORT           string
	AllowedOrigins []string
}

type MarketplaceAPIConfig struct {
	URL     string
	Timeout time.Duration
}

type ViewsConfig struct {
	TablePageSize  int
	SearchDebounce time.Duration
	FeedPageSize   int
	IdleTTL        time.Duration
	ReapInterval   time.Duration
}

type LocalStorageConfig struct {
	Driver string
}

type DBconfig struct {
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type RabbitMQConfig struct {
	Enabled bool
	URL     string
}

type AuthConfig struct {
	JWTSigningKey string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	Marketplace  MarketplaceAPIConfig
	Views        ViewsConfig
	LocalStorage LocalStorageConfig
	Database     DBconfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	Auth         AuthConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из .env (если он есть) и переменных окружения.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
		}
		log.Printf("Info: .env file not found (path: %v), using environment only.\n", envPath)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "propertify-view-service")

	cfg.Rest.PORT = getEnvAsString("PORT", "8085")
	cfg.Rest.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})

	cfg.Marketplace.URL = os.Getenv("MARKETPLACE_API_URL")
	if cfg.Marketplace.URL == "" {
		return nil, fmt.Errorf("MARKETPLACE_API_URL environment variable is required")
	}
	cfg.Marketplace.Timeout = getEnvAsDuration("MARKETPLACE_API_TIMEOUT", 15*time.Second)

	cfg.Views.TablePageSize = getEnvAsInt("TABLE_DEFAULT_PAGE_SIZE", 5)
	cfg.Views.SearchDebounce = getEnvAsDuration("TABLE_SEARCH_DEBOUNCE", 500*time.Millisecond)
	cfg.Views.FeedPageSize = getEnvAsInt("FEED_PAGE_SIZE", 10)
	cfg.Views.IdleTTL = getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute)
	cfg.Views.ReapInterval = getEnvAsDuration("SESSION_REAP_INTERVAL", time.Minute)
	if cfg.Views.TablePageSize < 1 || cfg.Views.FeedPageSize < 1 {
		return nil, fmt.Errorf("TABLE_DEFAULT_PAGE_SIZE and FEED_PAGE_SIZE must be positive")
	}

	cfg.LocalStorage.Driver = strings.ToLower(getEnvAsString("LOCAL_STORAGE_DRIVER", StorageDriverMemory))
	switch cfg.LocalStorage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		cfg.Database.URL = os.Getenv("DATABASE_URL")
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres storage driver")
		}
		cfg.Database.MaxConns = int32(getEnvAsInt("DATABASE_MAX_CONNS", 5))
	case StorageDriverRedis:
		cfg.Redis.Addr = getEnvAsString("REDIS_ADDR", "localhost:6379")
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
		cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
		cfg.Redis.Prefix = getEnvAsString("REDIS_KEY_PREFIX", "localstorage")
		cfg.Redis.TTL = getEnvAsDuration("REDIS_TTL", 0)
	default:
		return nil, fmt.Errorf("unknown LOCAL_STORAGE_DRIVER %q", cfg.LocalStorage.Driver)
	}

	cfg.RabbitMQ.Enabled = getEnvAsBool("RABBITMQ_ENABLED", false)
	if cfg.RabbitMQ.Enabled {
		cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
		if cfg.RabbitMQ.URL == "" {
			return nil, fmt.Errorf("RABBITMQ_URL environment variable is required when RABBITMQ_ENABLED is true")
		}
	}

	cfg.Auth.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration понимает "500ms", "15s"; "0" отключает ограничение.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if valStr == "0" {
		return 0
	}
	d, err := time.ParseDuration(valStr)
	if err != nil || d < 0 {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as duration: %v. Using default value: %s\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvAsList разбирает список через запятую.
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
