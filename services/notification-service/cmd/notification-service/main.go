package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/config"
	"github.com/md-rashed-zaman/localbook/libs/db"
	"github.com/md-rashed-zaman/localbook/libs/httpx"
	"github.com/md-rashed-zaman/localbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/localbook/libs/otel"
	"github.com/md-rashed-zaman/localbook/libs/runtime"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/delivery"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/handlers"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/localbook/services/notification-service/internal/storage"
	"github.com/md-rashed-zaman/localbook/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotEnv()

	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer otelx.ShutdownFunc(otelShutdown)()
	}

	var (
		notificationsRepo notificationStore
		tokenRepo         tokenStore
		dedupe            consumer.Inbox
		readyChecks       []runtime.ReadyCheck
	)
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		if config.Bool("MIGRATE_ON_START", true) {
			if err := db.Migrate(dbURL, migrations.FS, "."); err != nil {
				logger.Error("migrations failed", "err", err)
				panic(err)
			}
		}
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		notificationsRepo = storage.NewRepository(pool)
		tokenRepo = storage.NewTokenRepository(pool)
		dedupe = inbox.NewRepository(pool)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		mem := storage.NewMemory()
		notificationsRepo = mem
		tokenRepo = mem
		dedupe = inbox.NewMemory()
	}

	var sender push.Sender
	switch strings.ToLower(config.String("PUSH_PROVIDER", "noop")) {
	case "expo":
		perSecond, err := config.Int("PUSH_RATE_PER_SECOND", 100)
		if err != nil {
			panic(err)
		}
		sender = push.NewExpoSender(
			config.String("EXPO_PUSH_URL", push.DefaultExpoURL),
			config.String("EXPO_ACCESS_TOKEN", ""),
			perSecond,
		)
	default:
		sender = push.NewNoopSender()
	}
	logger.Info("push provider selected", "provider", sender.ProviderID())

	deliverer := delivery.New(notificationsRepo, tokenRepo, sender, logger)
	consumerDone := make(chan struct{})
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		eventConsumer := consumer.New(logger, dedupe, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   config.String("KAFKA_CONSUME_TOPIC", "notification.push.requested.v1"),
		}, deliverer.HandleMessage)
		go func() {
			defer close(consumerDone)
			eventConsumer.Run(ctx)
		}()
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set, push events will not be consumed")
		close(consumerDone)
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	handlers.NewNotificationHandler(notificationsRepo, tokenRepo, sender, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithActor,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(64<<10),
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "notification"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)

	select {
	case <-consumerDone:
	case <-time.After(5 * time.Second):
		logger.Warn("consumer did not stop in time")
	}
}

type notificationStore interface {
	delivery.Inbox
	handlers.Inbox
}

type tokenStore interface {
	delivery.Tokens
	handlers.Tokens
}
