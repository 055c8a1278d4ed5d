package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ebooking/internal/notifications"
	"ebooking/pkg/config"
	"ebooking/pkg/kafka"
	kafka_config "ebooking/pkg/kafka/config"
	kafkamiddleware "ebooking/pkg/kafka/middleware"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

const (
	ServiceName = "notifier"

	metricsInterval = time.Minute
)

// The notifier consumes booking events from Kafka and relays them to the
// admin Telegram chats.
func main() {
	cfg := config.Load(ServiceName)
	if cfg.TelegramBotToken == "" {
		cfg.Log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		cfg.Log.Fatal("Failed to create Telegram bot", "error", err)
	}
	cfg.Log.Info("Telegram bot authorized", "username", bot.Self.UserName)

	sink := notifications.NewTelegramSink(bot, notifications.NewChatRegistry(cfg.TelegramChatIDs...), cfg.Log)
	relay := notifications.NewRelay(sink, cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.KafkaNotificationsTopic, cfg.KafkaNotifierGroup, cfg.KafkaNotificationsDLQ, relay.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafkamiddleware.NewMetrics()
	consumer.Use(metrics.ConsumerMiddleware())
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Start(gctx)
	})
	g.Go(func() error {
		sink.Listen(gctx, bot)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				cfg.Log.Info("Relay metrics", "metrics", metrics.Snapshot())
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Notifier stopped with error", "error", err)
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped", "metrics", metrics.Snapshot())
}
