package main

import (
	"net/http"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/config"
	"github.com/md-rashed-zaman/localbook/libs/httpx"
	otelx "github.com/md-rashed-zaman/localbook/libs/otel"
	"github.com/md-rashed-zaman/localbook/libs/runtime"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/bootstrap"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/reminders"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotEnv()

	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	core, err := bootstrap.Open(ctx, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		panic(err)
	}
	defer core.Close()

	scanEvery, leaseTTL, err := bootstrap.ScanTiming()
	if err != nil {
		panic(err)
	}
	scheduler := reminders.NewScheduler(core.Scanner, logger, reminders.SchedulerConfig{
		Every: scanEvery,
		Lease: core.Lease(leaseTTL),
	})
	if err := scheduler.Start(ctx); err != nil {
		panic(err)
	}
	defer scheduler.Stop()

	limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		panic(err)
	}
	var rateLimitMW httpx.Middleware
	if core.Redis != nil {
		rl := httpx.NewRedisRateLimiter(core.Redis, limitPerMinute, time.Minute, service)
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
	} else {
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(core.ReadyChecks...)
	handlers.NewAppointmentHandler(core.Manager, logger).Register(mux)
	handlers.NewPreferenceHandler(core.Resolver, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithActor,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(10*time.Second),
		rateLimitMW,
	)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           otelhttp.NewHandler(handler, "booking"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, srv, logger)
}
