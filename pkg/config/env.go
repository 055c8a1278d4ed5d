package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret   = "JWT_SECRET"
	EnvJWTIssuer   = "JWT_ISSUER"
	EnvJWTTokenTTL = "JWT_TOKEN_TTL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBookingOverlapRule = "BOOKING_OVERLAP_RULE"
	EnvBookingLockTTL     = "BOOKING_LOCK_TTL"

	EnvSweepSchedule         = "SWEEP_SCHEDULE"
	EnvSweepMode             = "SWEEP_MODE"
	EnvSweepTimeout          = "SWEEP_TIMEOUT"
	EnvSweepRunOnStart       = "SWEEP_RUN_ON_START"
	EnvPaymentExpirySchedule = "PAYMENT_EXPIRY_SCHEDULE"

	EnvNotifierSink      = "NOTIFIER_SINK"
	EnvNotifierWorkers   = "NOTIFIER_WORKERS"
	EnvNotifierQueueSize = "NOTIFIER_QUEUE_SIZE"
	EnvNotifierTimeout   = "NOTIFIER_TIMEOUT"

	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatIDs  = "TELEGRAM_CHAT_IDS"

	EnvKafkaNotificationsTopic = "KAFKA_NOTIFICATIONS_TOPIC"
	EnvKafkaNotificationsDLQ   = "KAFKA_NOTIFICATIONS_DLQ"
	EnvKafkaNotifierGroup      = "KAFKA_NOTIFIER_GROUP"

	EnvStripeSecretKey   = "STRIPE_SECRET_KEY"
	EnvStripeSuccessURL  = "STRIPE_SUCCESS_URL"
	EnvStripeCancelURL   = "STRIPE_CANCEL_URL"
	EnvStripeCurrency    = "STRIPE_CURRENCY"
	EnvPaymentSessionTTL = "PAYMENT_SESSION_TTL"
)
