// Package bootstrap builds the booking core's collaborators from the environment.
// The HTTP service and reminderctl share it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/localbook/libs/config"
	"github.com/md-rashed-zaman/localbook/libs/db"
	"github.com/md-rashed-zaman/localbook/libs/kafkax"
	"github.com/md-rashed-zaman/localbook/libs/runtime"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/directory"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/dispatch"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/preferences"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/localbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/localbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
)

type AppointmentStore interface {
	lifecycle.Store
	reminders.Store
}

type Core struct {
	Appointments AppointmentStore
	Resolver     *preferences.Resolver
	Directory    directory.Directory
	Notifier     *dispatch.Notifier
	Manager      *lifecycle.Manager
	Scanner      *reminders.Scanner
	Location     *time.Location

	// Pool and Redis are nil when not configured.
	Pool  *db.Pool
	Redis *redis.Client

	ReadyChecks []runtime.ReadyCheck

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *Core) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Open wires the core. Without DATABASE_URL it runs on in-memory stores, which
// is only meant for local development.
func Open(ctx context.Context, logger *slog.Logger) (*Core, error) {
	c := &Core{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	loc, err := time.LoadLocation(config.String("DISPLAY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	c.Location = loc

	var prefStore preferences.Store
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		if config.Bool("MIGRATE_ON_START", true) {
			if err := db.Migrate(dbURL, migrations.FS, "."); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied")
		}
		pool, err := db.Open(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("db connection: %w", err)
		}
		c.onClose(pool.Close)
		c.Pool = pool
		c.Appointments = storage.NewAppointmentRepository(pool)
		prefStore = storage.NewPreferenceRepository(pool)
		c.ReadyChecks = append(c.ReadyChecks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
		c.Appointments = storage.NewMemoryAppointments()
		prefStore = storage.NewMemoryPreferences()
	}

	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		redisDB, err := config.Int("REDIS_DB", 0)
		if err != nil {
			return nil, err
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       redisDB,
		})
		c.onClose(func() { _ = rdb.Close() })
		c.Redis = rdb
		c.ReadyChecks = append(c.ReadyChecks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})

		ttl, err := config.Duration("PREFERENCE_CACHE_TTL", 10*time.Minute)
		if err != nil {
			return nil, err
		}
		prefStore = preferences.NewCachedStore(prefStore, rdb, ttl, logger)
	}
	c.Resolver = preferences.NewResolver(prefStore, logger)

	switch addr := config.String("DIRECTORY_GRPC_ADDR", ""); {
	case addr != "":
		g, err := directory.NewGRPC(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("directory grpc: %w", err)
		}
		c.onClose(func() { _ = g.Close() })
		c.Directory = g
	case c.Pool != nil:
		c.Directory = directory.NewPostgres(c.Pool)
	default:
		logger.Warn("no directory configured; every lookup will miss")
		c.Directory = directory.NewStatic()
	}

	gateway, err := openGateway(logger)
	if err != nil {
		return nil, err
	}
	if closer, isCloser := gateway.(interface{ Close() error }); isCloser {
		c.onClose(func() { _ = closer.Close() })
	}
	if brokers := config.String("KAFKA_BROKERS", ""); brokers != "" {
		c.ReadyChecks = append(c.ReadyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	c.Notifier = dispatch.NewNotifier(c.Resolver, gateway)

	c.Manager = lifecycle.NewManager(c.Appointments, c.Directory, c.Notifier, logger, lifecycle.Config{Location: loc})
	c.Scanner = reminders.NewScanner(c.Appointments, c.Directory, c.Notifier, logger, loc)

	ok = true
	return c, nil
}

func openGateway(logger *slog.Logger) (dispatch.Gateway, error) {
	brokers := config.String("KAFKA_BROKERS", "")
	if brokers == "" {
		logger.Warn("KAFKA_BROKERS not set; pushes are only logged")
		return dispatch.NewLogGateway(logger), nil
	}
	timeout, err := config.Duration("PUSH_DISPATCH_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	return dispatch.NewKafkaGateway(logger, dispatch.KafkaConfig{
		Brokers: brokers,
		Topic:   config.String("PUSH_TOPIC", dispatch.DefaultPushTopic),
		Timeout: timeout,
	})
}

// ScanTiming reads the reminder scan period and the lease TTL. The lease
// defaults to expiring 30s before the next tick.
func ScanTiming() (every, leaseTTL time.Duration, err error) {
	every, err = config.Duration("REMINDER_SCAN_EVERY", 5*time.Minute)
	if err != nil {
		return 0, 0, err
	}
	leaseTTL, err = config.Duration("REMINDER_LEASE_TTL", every-30*time.Second)
	if err != nil {
		return 0, 0, err
	}
	return every, leaseTTL, nil
}

// Lease returns the cross-replica scan lease when Redis is configured.
func (c *Core) Lease(ttl time.Duration) reminders.Lease {
	if c.Redis == nil {
		return nil
	}
	return reminders.NewRedisLease(c.Redis, config.String("REMINDER_LEASE_KEY", reminders.DefaultLeaseKey), ttl)
}
