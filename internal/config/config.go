package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
// Leaving AMQP_URL empty selects the in-process broker, which is the
// single-instance deployment mode.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Broker
	AMQPURL       string
	QueueName     string
	QueueCapacity int
	Prefetch      int

	// Mail transport
	MailGatewayURL     string
	MailGatewayTimeout time.Duration

	// Worker pool
	WorkerConcurrency int
	MaxAttempts       int

	// Rate limiting: maximum emails handed to the transport per second
	RateLimit int

	// Dedup window for publish collapsing
	DedupWindow time.Duration

	// Reconnect backoff bounds
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		AMQPURL:       getEnv("AMQP_URL", ""),
		QueueName:     getEnv("QUEUE_NAME", "email_jobs"),
		QueueCapacity: getInt("QUEUE_CAPACITY", 1024),
		Prefetch:      getInt("PREFETCH", 8),

		MailGatewayURL:     getEnv("MAIL_GATEWAY_URL", "http://localhost:2525/send"),
		MailGatewayTimeout: getDuration("MAIL_GATEWAY_TIMEOUT", 10*time.Second),

		WorkerConcurrency: getInt("WORKER_CONCURRENCY", 4),
		MaxAttempts:       getInt("MAX_ATTEMPTS", 3),

		RateLimit: getInt("RATE_LIMIT_PER_SECOND", 10),

		DedupWindow: getDuration("DEDUP_WINDOW", time.Minute),

		ReconnectBaseDelay: getDuration("RECONNECT_BASE_DELAY", 2*time.Second),
		ReconnectMaxDelay:  getDuration("RECONNECT_MAX_DELAY", 30*time.Second),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
