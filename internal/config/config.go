package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Драйверы хранилищ.
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"

	ThemeStoreFile  = "file"
	ThemeStoreRedis = "redis"

	LockLocal = "local"
	LockRedis = "redis"

	AIClientOllama = "ollama"
	AIClientOpenAI = "openai"
)

// secretsDir - стандартный путь Docker Secrets (переменная для тестов).
var secretsDir = "/run/secrets"

// Config содержит конфигурацию сервиса истории и скрейпера.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"5000"`

	// Хранилища
	DataDir       string `envconfig:"DATA_DIR" default:"data"`
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"file"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/studyquest.db"`
	ThemeStore    string `envconfig:"THEME_STORE" default:"file"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"studyquest"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секрет без тега
	DBPassword string

	// Redis
	RedisAddr string `envconfig:"REDIS_ADDR" default:""`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секрет без тега
	RedisPassword string

	// Блокировки
	LockDriver string        `envconfig:"LOCK_DRIVER" default:"local"`
	// Пусто = AI_TIMEOUT + lockTTLMargin. Должен быть больше AI_TIMEOUT,
	// иначе блокировка истечет во время генерации.
	LockTTL    time.Duration `envconfig:"LOCK_TTL"`

	// AI
	AIClientType      string        `envconfig:"AI_CLIENT_TYPE" default:"ollama"`
	AIBaseURL         string        `envconfig:"AI_BASE_URL" default:"http://localhost:11434"`
	AIModel           string        `envconfig:"AI_MODEL" default:"llama3"`
	AIClassifierModel string        `envconfig:"AI_CLASSIFIER_MODEL" default:"llama2"`
	AITimeout         time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AITemperature     float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	// Секрет без тега, нужен только для openai
	AIAPIKey string

	// RabbitMQ (пусто = публикация событий отключена)
	RabbitMQURL       string `envconfig:"RABBITMQ_URL" default:""`
	StoryUpdatesQueue string `envconfig:"STORY_UPDATES_QUEUE" default:"story_updates"`

	// Reddit
	RedditClientID   string        `envconfig:"REDDIT_CLIENT_ID" default:""`
	RedditUserAgent  string        `envconfig:"REDDIT_USER_AGENT" default:"UniStoryScraper/2.0"`
	RedditSubreddits string        `envconfig:"REDDIT_SUBREDDITS" default:"uwaterloo,UofT,mcgill,UBC,queensuniversity"`
	RedditPostLimit  int           `envconfig:"REDDIT_POST_LIMIT" default:"50"`
	RedditTimeout    time.Duration `envconfig:"REDDIT_TIMEOUT" default:"30s"`
	// Секрет без тега
	RedditClientSecret string

	// HTTP
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
	InitRateLimit      int    `envconfig:"INIT_RATE_LIMIT" default:"2"`
}

// LoadConfig загружает конфигурацию из .env (если есть), окружения и секретов.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Предупреждение: не удалось загрузить %s: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	cfg.DBPassword = readOptionalSecret("db_password", "DB_PASSWORD")
	cfg.RedisPassword = readOptionalSecret("redis_password", "REDIS_PASSWORD")
	cfg.AIAPIKey = readOptionalSecret("ai_api_key", "AI_API_KEY")
	cfg.RedditClientSecret = readOptionalSecret("reddit_client_secret", "REDDIT_CLIENT_SECRET")

	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.AITimeout + lockTTLMargin
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Конфигурация загружена:")
	log.Printf("  Env: %s, Port: %s, Log: %s/%s", cfg.Env, cfg.ServerPort, cfg.LogLevel, cfg.LogEncoding)
	log.Printf("  Storage: %s, Themes: %s, Lock: %s, DataDir: %s", cfg.StorageDriver, cfg.ThemeStore, cfg.LockDriver, cfg.DataDir)
	if cfg.StorageDriver == StoragePostgres {
		log.Printf("  DB DSN: %s", cfg.getMaskedDSN())
	}
	log.Printf("  AI: %s %s (classifier %s), timeout %v", cfg.AIClientType, cfg.AIModel, cfg.AIClassifierModel, cfg.AITimeout)
	log.Printf("  Subreddits: %v", cfg.GetSubreddits())
	if cfg.AIAPIKey != "" {
		log.Println("  AI API Key: [ЗАГРУЖЕН]")
	}
	return &cfg, nil
}

// lockTTLMargin - запас на загрузку и сохранение истории сверх AI_TIMEOUT.
const lockTTLMargin = 30 * time.Second

// Validate проверяет значения-перечисления и зависимости между ними.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageFile, StoragePostgres, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER: %q", c.StorageDriver)
	}
	switch c.ThemeStore {
	case ThemeStoreFile, ThemeStoreRedis:
	default:
		return fmt.Errorf("неизвестный THEME_STORE: %q", c.ThemeStore)
	}
	switch c.LockDriver {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("неизвестный LOCK_DRIVER: %q", c.LockDriver)
	}
	switch c.AIClientType {
	case AIClientOllama, AIClientOpenAI:
	default:
		return fmt.Errorf("неизвестный AI_CLIENT_TYPE: %q", c.AIClientType)
	}
	if (c.ThemeStore == ThemeStoreRedis || c.LockDriver == LockRedis) && c.RedisAddr == "" {
		return errors.New("REDIS_ADDR обязателен для redis-хранилища тем или блокировок")
	}
	if c.LockDriver == LockRedis && c.LockTTL <= c.AITimeout {
		return fmt.Errorf("LOCK_TTL (%v) должен быть больше AI_TIMEOUT (%v)", c.LockTTL, c.AITimeout)
	}
	return nil
}

// UseRedis - нужен ли клиент Redis.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetSubreddits разбирает список сабреддитов.
func (c *Config) GetSubreddits() []string {
	return splitList(c.RedditSubreddits)
}

// GetAllowedOrigins разбирает список CORS origins.
func (c *Config) GetAllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

func (c *Config) getMaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readOptionalSecret читает Docker secret, при отсутствии берет переменную окружения.
func readOptionalSecret(secretName, envKey string) string {
	data, err := os.ReadFile(filepath.Join(secretsDir, secretName))
	if err == nil {
		if secret := strings.TrimSpace(string(data)); secret != "" {
			return secret
		}
	}
	return os.Getenv(envKey)
}
