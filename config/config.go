package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	ProviderGemini   = "gemini"
	ProviderGroq     = "groq"
	ProviderTemplate = "template" // no generation service, templated replies only

	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// ErrConfiguration marks startup problems. They are fatal, never per-request.
var ErrConfiguration = errors.New("configuration error")

type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"text"`

	Store          string `envconfig:"STORE" default:"mysql"`
	MySQLUser      string `envconfig:"MYSQL_USER" default:"user"`
	MySQLPassword  string `envconfig:"MYSQL_PWD" default:"password"`
	MySQLHost      string `envconfig:"MYSQL_HOST" default:"tcp(127.0.0.1:3306)"`
	MySQLDatabase  string `envconfig:"MYSQL_DATABASE" default:"negotiation_db"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"db/migrations"`

	LLMProvider       string        `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey      string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel       string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-001"`
	GroqAPIKey        string        `envconfig:"GROQ_API_KEY"`
	GroqBaseURL       string        `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
	GroqModel         string        `envconfig:"GROQ_MODEL" default:"mistral-saba-24b"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"8s"`

	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"negotiation-accepted"`
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(ErrConfiguration, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMySQL, StoreMemory:
	default:
		return errors.Wrapf(ErrConfiguration, "unknown STORE %q", c.Store)
	}

	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.Wrap(ErrConfiguration, "GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderGroq:
		if c.GroqAPIKey == "" {
			return errors.Wrap(ErrConfiguration, "GROQ_API_KEY is required for the groq provider")
		}
	case ProviderTemplate:
	default:
		return errors.Wrapf(ErrConfiguration, "unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.GenerationTimeout <= 0 {
		return errors.Wrap(ErrConfiguration, "GENERATION_TIMEOUT must be positive")
	}
	return nil
}

// MySQLDSN builds the DSN the same way for the server and the migrate command.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@%s/%s?parseTime=true&loc=UTC", c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLDatabase)
}

func (c *Config) KafkaEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}
