package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ebooking/pkg/client"
	"ebooking/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret   string
	JWTIssuer   string
	JWTTokenTTL time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	BookingOverlapRule string
	BookingLockTTL     time.Duration

	SweepSchedule         string
	SweepMode             string
	SweepTimeout          time.Duration
	SweepRunOnStart       bool
	PaymentExpirySchedule string

	NotifierSink      string
	NotifierWorkers   int
	NotifierQueueSize int
	NotifierTimeout   time.Duration

	TelegramBotToken string
	TelegramChatIDs  []int64

	KafkaNotificationsTopic string
	KafkaNotificationsDLQ   string
	KafkaNotifierGroup      string

	StripeSecretKey   string
	StripeSuccessURL  string
	StripeCancelURL   string
	StripeCurrency    string
	PaymentSessionTTL time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret:   getEnvStr(EnvJWTSecret, ""),
		JWTIssuer:   getEnvStr(EnvJWTIssuer, DefaultJWTIssuer),
		JWTTokenTTL: getEnvDuration(EnvJWTTokenTTL, DefaultJWTTokenTTL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		RateLimitBurst:    getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BookingOverlapRule: strings.ToLower(getEnvStr(EnvBookingOverlapRule, DefaultBookingOverlapRule)),
		BookingLockTTL:     getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),

		SweepSchedule:         getEnvStr(EnvSweepSchedule, DefaultSweepSchedule),
		SweepMode:             strings.ToLower(getEnvStr(EnvSweepMode, DefaultSweepMode)),
		SweepTimeout:          getEnvDuration(EnvSweepTimeout, DefaultSweepTimeout),
		SweepRunOnStart:       getEnvBool(EnvSweepRunOnStart, DefaultSweepRunOnStart),
		PaymentExpirySchedule: getEnvStr(EnvPaymentExpirySchedule, DefaultPaymentExpirySchedule),

		NotifierSink:      strings.ToLower(getEnvStr(EnvNotifierSink, DefaultNotifierSink)),
		NotifierWorkers:   getEnvNum(EnvNotifierWorkers, DefaultNotifierWorkers),
		NotifierQueueSize: getEnvNum(EnvNotifierQueueSize, DefaultNotifierQueueSize),
		NotifierTimeout:   getEnvDuration(EnvNotifierTimeout, DefaultNotifierTimeout),

		TelegramBotToken: getEnvStr(EnvTelegramBotToken, ""),
		TelegramChatIDs:  getEnvInt64List(EnvTelegramChatIDs),

		KafkaNotificationsTopic: getEnvStr(EnvKafkaNotificationsTopic, DefaultKafkaNotificationsTopic),
		KafkaNotificationsDLQ:   getEnvStr(EnvKafkaNotificationsDLQ, DefaultKafkaNotificationsDLQ),
		KafkaNotifierGroup:      getEnvStr(EnvKafkaNotifierGroup, DefaultKafkaNotifierGroup),

		StripeSecretKey:   getEnvStr(EnvStripeSecretKey, ""),
		StripeSuccessURL:  getEnvStr(EnvStripeSuccessURL, DefaultStripeSuccessURL),
		StripeCancelURL:   getEnvStr(EnvStripeCancelURL, DefaultStripeCancelURL),
		StripeCurrency:    strings.ToLower(getEnvStr(EnvStripeCurrency, DefaultStripeCurrency)),
		PaymentSessionTTL: getEnvDuration(EnvPaymentSessionTTL, DefaultPaymentSessionTTL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"BookingLockTTL", cfg.BookingLockTTL},
		{"SweepTimeout", cfg.SweepTimeout},
		{"NotifierTimeout", cfg.NotifierTimeout},
		{"JWTTokenTTL", cfg.JWTTokenTTL},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.BookingLockTTL > 0 && cfg.BookingLockTTL <= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockTTL must exceed RequestTimeout (%s), got: %s", cfg.RequestTimeout, cfg.BookingLockTTL))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitBurst must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.BookingOverlapRule != "strict" && cfg.BookingOverlapRule != "legacy" {
		errors = append(errors, fmt.Sprintf("BookingOverlapRule must be one of [strict, legacy], got: %s", cfg.BookingOverlapRule))
	}
	if cfg.SweepMode != "catchup" && cfg.SweepMode != "exact" {
		errors = append(errors, fmt.Sprintf("SweepMode must be one of [catchup, exact], got: %s", cfg.SweepMode))
	}
	if strings.TrimSpace(cfg.SweepSchedule) == "" {
		errors = append(errors, "SweepSchedule cannot be empty")
	}
	if strings.TrimSpace(cfg.PaymentExpirySchedule) == "" {
		errors = append(errors, "PaymentExpirySchedule cannot be empty")
	}

	switch cfg.NotifierSink {
	case SinkLog, SinkKafka:
	case SinkTelegram:
		if cfg.TelegramBotToken == "" {
			errors = append(errors, "TelegramBotToken is required when NotifierSink is telegram")
		}
	default:
		errors = append(errors, fmt.Sprintf("NotifierSink must be one of [log, telegram, kafka], got: %s", cfg.NotifierSink))
	}
	if cfg.NotifierWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("NotifierWorkers must be positive, got: %d", cfg.NotifierWorkers))
	}
	if cfg.NotifierQueueSize <= 0 {
		errors = append(errors, fmt.Sprintf("NotifierQueueSize must be positive, got: %d", cfg.NotifierQueueSize))
	}

	// Stripe accepts checkout sessions that expire between 30 minutes and 24 hours.
	if cfg.PaymentSessionTTL < 30*time.Minute || cfg.PaymentSessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("PaymentSessionTTL must be between 30m and 24h, got: %s", cfg.PaymentSessionTTL))
	}
	if len(cfg.StripeCurrency) != 3 {
		errors = append(errors, fmt.Sprintf("StripeCurrency must be a 3-letter ISO code, got: %s", cfg.StripeCurrency))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"jwt_issuer", cfg.JWTIssuer,
		"jwt_token_ttl", cfg.JWTTokenTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"booking_overlap_rule", cfg.BookingOverlapRule,
		"booking_lock_ttl", cfg.BookingLockTTL,
		"sweep_schedule", cfg.SweepSchedule,
		"sweep_mode", cfg.SweepMode,
		"sweep_run_on_start", cfg.SweepRunOnStart,
		"payment_expiry_schedule", cfg.PaymentExpirySchedule,
		"notifier_sink", cfg.NotifierSink,
		"notifier_workers", cfg.NotifierWorkers,
		"notifier_queue_size", cfg.NotifierQueueSize,
		"telegram_token_set", cfg.TelegramBotToken != "",
		"telegram_chats", len(cfg.TelegramChatIDs),
		"kafka_notifications_topic", cfg.KafkaNotificationsTopic,
		"stripe_key_set", cfg.StripeSecretKey != "",
		"stripe_currency", cfg.StripeCurrency,
		"payment_session_ttl", cfg.PaymentSessionTTL,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvInt64List parses a comma separated list, skipping malformed entries.
func getEnvInt64List(key string) []int64 {
	var out []int64
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.ParseInt(part, 10, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
