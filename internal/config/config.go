package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env          string
	HTTPAddr     string
	StoreDriver  string
	DatabaseURL  string
	DBMaxConns   int32
	AutoMigrate  bool
	RedisURL     string
	AMQPURL      string
	JWTSecret    string
	TicketSecret string
	Admin        AdminConfig
	S3           S3Config
	Logging      LoggingConfig
	Limits       LimitsConfig
	Worker       WorkerConfig
}

type AdminConfig struct {
	Username     string
	PasswordHash string
	TokenTTL     time.Duration
}

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

type LimitsConfig struct {
	DiscountValidatePerMinute int
	UTRSubmitPerMinute        int
	UpiSettingsCacheTTL       time.Duration
	IdempotencyTTL            time.Duration
}

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (*Config, error) {
	envFile := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Env:          getenv("APP_ENV", "dev"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		StoreDriver:  strings.ToLower(getenv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DBMaxConns:   int32(getenvInt("DB_MAX_CONNS", 25)),
		AutoMigrate:  getenvBool("DB_AUTO_MIGRATE", true),
		RedisURL:     os.Getenv("REDIS_URL"),
		AMQPURL:      firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TicketSecret: os.Getenv("TICKET_SECRET"),
		Admin: AdminConfig{
			Username:     os.Getenv("ADMIN_USERNAME"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:     getenvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		},
		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         os.Getenv("S3_BUCKET"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getenv("S3_REGION", "ap-south-1"),
			UseSSL:         getenvBool("S3_USE_SSL", true),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
		Limits: LimitsConfig{
			DiscountValidatePerMinute: getenvInt("RATE_DISCOUNT_VALIDATE_PER_MIN", 30),
			UTRSubmitPerMinute:        getenvInt("RATE_UTR_SUBMIT_PER_MIN", 10),
			UpiSettingsCacheTTL:       getenvDuration("UPI_SETTINGS_CACHE_TTL", time.Minute),
			IdempotencyTTL:            getenvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Worker: WorkerConfig{
			PollInterval: getenvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getenvInt("OUTBOX_BATCH_SIZE", 100),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TicketSecret == "" {
		c.TicketSecret = c.JWTSecret
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
