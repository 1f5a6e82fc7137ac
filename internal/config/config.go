package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort          string
	GRPCPort          string
	DefaultTerminalID int64

	// MaxTerminals caps how many terminal sessions one process serves.
	MaxTerminals int

	BackendURL         string
	ProductListPath    string
	SaleSubmitPath     string
	TerminalStatusPath string
	SessionCookie      string

	TaxRate     decimal.Decimal
	SearchLimit int

	RequestTimeout     time.Duration
	SubmitTimeout      time.Duration
	SideEffectTimeout  time.Duration
	ShutdownTimeout    time.Duration
	StatusPollInterval time.Duration
	MaxRequestBodySize int64

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	// RateLimit is requests per second per terminal; RateBurst the bucket size.
	RateLimit float64
	RateBurst int

	// Optional infrastructure. Empty disables it.
	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string
	KafkaTopic    string

	LogLevel string
	DevMode  bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		GRPCPort:           getEnv("GRPC_PORT", "50060"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:8000"),
		ProductListPath:    getEnv("BACKEND_PRODUCT_LIST_PATH", "/api/product_list"),
		SaleSubmitPath:     getEnv("BACKEND_POS_SALE_PATH", "/api/pos_sale"),
		TerminalStatusPath: getEnv("BACKEND_TERMINAL_STATUS_PATH", "/api/terminal_status"),
		SessionCookie:      getEnv("BACKEND_SESSION_COOKIE", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "pos-sales"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.DefaultTerminalID, err = getInt64("TERMINAL_ID", 1); err != nil {
		return nil, err
	}
	if cfg.DefaultTerminalID <= 0 {
		return nil, fmt.Errorf("TERMINAL_ID must be positive, got %d", cfg.DefaultTerminalID)
	}
	if cfg.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.12")); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE must not be negative")
	}
	if cfg.SearchLimit, err = getInt("SEARCH_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getInt("RATE_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	failures, err := getInt("BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if failures < 1 {
		return nil, fmt.Errorf("BREAKER_FAILURES must be at least 1, got %d", failures)
	}
	cfg.BreakerFailures = uint32(failures)
	if cfg.MaxTerminals, err = getInt("MAX_TERMINALS", 16); err != nil {
		return nil, err
	}
	if cfg.MaxTerminals < 1 {
		return nil, fmt.Errorf("MAX_TERMINALS must be at least 1, got %d", cfg.MaxTerminals)
	}
	if cfg.MaxRequestBodySize, err = getInt64("MAX_REQUEST_BODY_SIZE", 1<<20); err != nil {
		return nil, err
	}
	if cfg.DevMode, err = getBool("DEV_MODE", false); err != nil {
		return nil, err
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", 30 * time.Second, &cfg.RequestTimeout},
		{"SUBMIT_TIMEOUT", 15 * time.Second, &cfg.SubmitTimeout},
		{"SIDE_EFFECT_TIMEOUT", 10 * time.Second, &cfg.SideEffectTimeout},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second, &cfg.ShutdownTimeout},
		{"STATUS_POLL_INTERVAL", 30 * time.Second, &cfg.StatusPollInterval},
		{"BREAKER_OPEN_TIMEOUT", 30 * time.Second, &cfg.BreakerOpenTimeout},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	v, err := strconv.ParseInt(getEnv(key, strconv.FormatInt(defaultValue, 10)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
