package app

import (
	"context"
	"fmt"

	"go-shop-api/config"
	"go-shop-api/internal/clock"
	"go-shop-api/internal/database"
	"go-shop-api/internal/dedup"
	"go-shop-api/internal/events"
	"go-shop-api/internal/logger"
	"go-shop-api/internal/services"
	"go-shop-api/internal/storage/postgres"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Application holds core application dependencies.
type Application struct {
	Config      *config.Config
	DBPool      *pgxpool.Pool
	RedisClient *redis.Client // nil when redis.addr is empty
	Validator   *validator.Validate

	InventoryService services.InventoryService
	InvoiceService   services.InvoiceService
	EstimateService  services.EstimateService

	HealthChecks map[string]func(context.Context) error
}

// New connects to the backing stores and wires the services.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.Get()

	pool, err := database.NewConnectionPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	a := &Application{
		Config:       cfg,
		DBPool:       pool,
		Validator:    validator.New(),
		HealthChecks: map[string]func(context.Context) error{"database": pool.Ping},
	}

	var publisher events.Publisher = events.NopPublisher{}
	guardOpts := []dedup.Option{
		dedup.WithWindow(cfg.Dedup.Window),
		dedup.WithCacheSize(cfg.Dedup.CacheSize),
	}

	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.RedisClient = rdb
		a.HealthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		publisher = events.NewRedisPublisher(rdb, cfg.Events.Channel)

		if cfg.Dedup.UseRedisLock {
			guardOpts = append(guardOpts, dedup.WithLocker(dedup.NewRedisLocker(database.NewLocker(rdb))))
			log.Info("Duplicate guard uses Redis in-flight claims")
		}
	} else {
		log.Info("Redis address not configured, change notifications are disabled")
	}

	jobParts := postgres.NewJobPartRepo(pool)
	guard := dedup.New(append(guardOpts, dedup.WithStore(jobParts))...)
	mutator := services.NewRecordMutator(postgres.NewRecordRepo(pool),
		services.WithDefaultMaxRetries(cfg.Mutator.MaxRetries),
		services.WithBackoffStep(cfg.Mutator.BackoffStep),
	)
	invoices := postgres.NewInvoiceRepo(pool)
	clk := clock.Real()

	a.InventoryService = services.NewInventoryService(jobParts, postgres.NewInventoryRepo(pool), guard, publisher, clk)
	a.InvoiceService = services.NewInvoiceService(invoices, mutator)
	a.EstimateService = services.NewEstimateService(invoices, mutator, clk)
	return a, nil
}

// Close releases the connections held by the application.
func (a *Application) Close() {
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			logger.LogError("app", "Close", "closing redis", nil, err)
		}
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
}

// String summarises the wiring for the startup log.
func (a *Application) String() string {
	return fmt.Sprintf("db=%s redis=%t redis_lock=%t dedup_window=%s", a.Config.DB.Host, a.RedisClient != nil, a.Config.Dedup.UseRedisLock, a.Config.Dedup.Window)
}
