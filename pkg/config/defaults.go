package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "ebooking"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultJWTIssuer   = "ebooking"
	DefaultJWTTokenTTL = 24 * time.Hour

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitBurst    = 10

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultBookingOverlapRule = "strict"

	// Must outlive RequestTimeout so a lock never expires under a live request.
	DefaultBookingLockTTL = 45 * time.Second

	// Top of every hour, in UTC.
	DefaultSweepSchedule         = "0 * * * *"
	DefaultSweepMode             = "catchup"
	DefaultSweepTimeout          = 5 * time.Minute
	DefaultSweepRunOnStart       = false
	DefaultPaymentExpirySchedule = "1 * * * *"

	DefaultNotifierSink      = "log"
	DefaultNotifierWorkers   = 2
	DefaultNotifierQueueSize = 256
	DefaultNotifierTimeout   = 10 * time.Second

	DefaultKafkaNotificationsTopic = "ebooking.notifications"
	DefaultKafkaNotificationsDLQ   = "ebooking.notifications.dlq"
	DefaultKafkaNotifierGroup      = "ebooking-notifier"

	DefaultStripeSuccessURL  = "http://localhost:8080/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}"
	DefaultStripeCancelURL   = "http://localhost:8080/api/v1/payments/cancel?session_id={CHECKOUT_SESSION_ID}"
	DefaultStripeCurrency    = "usd"
	DefaultPaymentSessionTTL = 24 * time.Hour
)

const (
	SinkLog      = "log"
	SinkTelegram = "telegram"
	SinkKafka    = "kafka"
)
