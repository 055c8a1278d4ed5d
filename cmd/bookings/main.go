package main

import (
	"context"

	accommodationhandler "ebooking/internal/accommodations/handler"
	accommodationrepo "ebooking/internal/accommodations/repository"
	accommodationservice "ebooking/internal/accommodations/service"
	accommodationvalidator "ebooking/internal/accommodations/validator"
	"ebooking/internal/availability"
	bookinghandler "ebooking/internal/bookings/handler"
	bookingrepo "ebooking/internal/bookings/repository"
	bookingservice "ebooking/internal/bookings/service"
	bookingvalidator "ebooking/internal/bookings/validator"
	"ebooking/internal/health"
	"ebooking/internal/notifications"
	"ebooking/internal/payments/gateway"
	paymenthandler "ebooking/internal/payments/handler"
	paymentrepo "ebooking/internal/payments/repository"
	paymentservice "ebooking/internal/payments/service"
	"ebooking/internal/sweep"
	userhandler "ebooking/internal/users/handler"
	userrepo "ebooking/internal/users/repository"
	userservice "ebooking/internal/users/service"
	"ebooking/pkg/app"
	"ebooking/pkg/clock"
	"ebooking/pkg/config"
	"ebooking/pkg/contracts"
	"ebooking/pkg/kafka"
	kafka_config "ebooking/pkg/kafka/config"
	kafkamiddleware "ebooking/pkg/kafka/middleware"
	"ebooking/pkg/middleware"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	ServiceName = "bookings"

	sweepJob         = "booking-expiration"
	paymentExpiryJob = "payment-expiration"
)

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required")
	}
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	dispatcher := notifications.NewDispatcher(newSink(cfg), notifications.DispatcherConfig{
		Workers:   cfg.NotifierWorkers,
		QueueSize: cfg.NotifierQueueSize,
		Timeout:   cfg.NotifierTimeout,
	}, cfg.Log)
	serverApp.OnStop("notifications", dispatcher.Close)

	clk := clock.System()
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer)
	svcs := initServices(cfg, dispatcher, auth, clk)

	scheduler := initScheduler(cfg, svcs, dispatcher, clk)
	scheduler.Start()
	serverApp.OnStop("scheduler", scheduler.Stop)
	if cfg.SweepRunOnStart {
		go func() {
			if err := scheduler.Run(sweepJob); err != nil {
				cfg.Log.Error("Start-up sweep failed", "error", err)
			}
		}()
	}

	serverApp.SetApp(app.Routes{
		Auth:   auth,
		Public: append(append([]string{}, paymenthandler.PublicPaths...), userhandler.PublicPaths...),
		Checks: []health.Check{health.MongoCheck(cfg.Client.Mongo.Client)},
		Handlers: []contracts.Handler{
			accommodationhandler.NewAccommodationHandler(svcs.accommodations, cfg.Log),
			bookinghandler.NewBookingHandler(svcs.bookings, cfg.Log),
			paymenthandler.NewPaymentHandler(svcs.payments, cfg.Log),
			userhandler.NewUserHandler(svcs.users, cfg.Log),
		},
	})
	serverApp.Run()
}

type services struct {
	accommodations accommodationservice.AccommodationService
	bookings       bookingservice.BookingService
	payments       paymentservice.PaymentService
	users          userservice.UserService
	bookingRepo    bookingrepo.BookingRepository
}

// pendingPayments breaks the construction cycle between bookings, which
// refuse users with unpaid reservations, and payments, which confirm
// bookings.
type pendingPayments struct {
	payments paymentservice.PaymentService
}

func (g *pendingPayments) HasPendingPayment(ctx context.Context, userID string) (bool, error) {
	return g.payments.HasPendingPayment(ctx, userID)
}

func initServices(cfg *config.Config, notifier notifications.Notifier, auth *middleware.Authenticator, clk clock.Clock) services {
	rule, err := availability.ParseOverlapRule(cfg.BookingOverlapRule)
	if err != nil {
		cfg.Log.Fatal("Invalid booking overlap rule", "error", err)
	}

	accommodations := accommodationservice.NewAccommodationService(
		accommodationrepo.NewMongoAccommodationRepository(cfg),
		accommodationvalidator.NewAccommodationValidator(),
		notifier,
		clk,
		cfg,
	)

	gate := &pendingPayments{}
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	bookings := bookingservice.NewBookingService(bookingservice.Dependencies{
		Repo:           bookingRepo,
		Locker:         bookingservice.NewAccommodationLocker(bookingrepo.NewBookingLockRepository(cfg), cfg.BookingLockTTL, cfg.Log),
		Checker:        availability.NewChecker(rule),
		Accommodations: accommodations,
		Payments:       gate,
		Notifier:       notifier,
		Validator:      bookingvalidator.NewBookingValidator(cfg.Log),
		Clock:          clk,
	}, cfg)

	payments := paymentservice.NewPaymentService(paymentservice.Dependencies{
		Repo:           paymentrepo.NewMongoPaymentRepository(cfg),
		Gateway:        gateway.NewStripeGateway(cfg.StripeSecretKey, cfg.Log),
		Bookings:       bookings,
		Accommodations: accommodations,
		Notifier:       notifier,
		Clock:          clk,
	}, cfg)
	gate.payments = payments

	users := userservice.NewUserService(userservice.Dependencies{
		Repo:   userrepo.NewMongoUserRepository(cfg),
		Tokens: auth,
		Clock:  clk,
	}, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "overlap_rule", cfg.BookingOverlapRule)
	return services{
		accommodations: accommodations,
		bookings:       bookings,
		payments:       payments,
		users:          users,
		bookingRepo:    bookingRepo,
	}
}

func initScheduler(cfg *config.Config, s services, notifier notifications.Notifier, clk clock.Clock) *sweep.Scheduler {
	sweeper := sweep.NewSweeper(s.bookingRepo, s.accommodations, notifier, clk, sweep.ParseMode(cfg.SweepMode), cfg.Log)
	scheduler := sweep.NewScheduler(cfg.SweepTimeout, cfg.Log)

	if err := scheduler.Add(sweepJob, cfg.SweepSchedule, func(ctx context.Context) error {
		_, err := sweeper.Run(ctx)
		return err
	}); err != nil {
		cfg.Log.Fatal("Failed to schedule sweep", "error", err)
	}
	if err := scheduler.Add(paymentExpiryJob, cfg.PaymentExpirySchedule, func(ctx context.Context) error {
		_, err := s.payments.ExpireStale(ctx)
		return err
	}); err != nil {
		cfg.Log.Fatal("Failed to schedule payment expiry", "error", err)
	}
	return scheduler
}

func newSink(cfg *config.Config) notifications.Sink {
	switch cfg.NotifierSink {
	case config.SinkTelegram:
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			cfg.Log.Fatal("Failed to create Telegram bot", "error", err)
		}
		return notifications.NewTelegramSink(bot, notifications.NewChatRegistry(cfg.TelegramChatIDs...), cfg.Log)

	case config.SinkKafka:
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log)
		producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaNotificationsTopic, cfg.KafkaNotificationsDLQ, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		if kafkaCfg.EnableMiddleware {
			producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		}
		metrics := kafkamiddleware.NewMetrics()
		producer.Use(metrics.ProducerMiddleware())
		cfg.Client.OnShutdown("kafka-producer", func() error {
			cfg.Log.Info("Kafka producer metrics", "metrics", metrics.Snapshot())
			return producer.Close()
		})
		return notifications.NewKafkaSink(producer, ServiceName)

	default:
		return notifications.NewLogSink(cfg.Log)
	}
}
