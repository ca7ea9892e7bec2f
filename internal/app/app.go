package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/config"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/venue-insights/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/venue-insights/internal/infrastructure/repository/postgres"
	idgen "github.com/riskibarqy/venue-insights/internal/platform/id"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/riskibarqy/venue-insights/internal/platform/resilience"
	"github.com/riskibarqy/venue-insights/internal/usecase"
)

// Container holds the process-wide collaborators shared by the API server and
// the CLI. The gateway owns the only rate limiter and response cache.
type Container struct {
	Config      config.Config
	Logger      *logging.Logger
	Gateway     *statsapi.Gateway
	Performance *usecase.VenuePerformanceService
	Archive     *usecase.ReportArchiveService

	reports *cache.ReportRepository
	db      *sqlx.DB
}

func NewContainer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	gateway := statsapi.NewGateway(GatewayConfig(cfg, logger))

	var (
		store venueperf.ReportRepository
		db    *sqlx.DB
	)
	switch cfg.ReportStore {
	case config.ReportStorePostgres:
		var err error
		db, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = postgres.NewReportRepository(db)
	default:
		store = memory.NewReportRepository()
	}
	reports := cache.NewReportRepository(store, cfg.ReportCacheTTL)

	logger.Info("container ready",
		"report_store", cfg.ReportStore,
		"statsapi_transport", cfg.StatsAPI.Transport,
		"engine_workers", cfg.Engine.Workers,
	)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Gateway:     gateway,
		Performance: usecase.NewVenuePerformanceService(gateway, EngineConfig(cfg), logger),
		Archive:     usecase.NewReportArchiveService(reports, idgen.NewUUIDGenerator(), logger),
		reports:     reports,
		db:          db,
	}, nil
}

// RunJanitors evicts expired cache entries until ctx is done.
func (c *Container) RunJanitors(ctx context.Context) {
	interval := c.Config.StatsAPI.CacheJanitorInterval
	if interval <= 0 {
		interval = time.Minute
	}
	go c.Gateway.RunCacheJanitor(ctx, interval)
	go c.reports.RunJanitor(ctx, interval)
}

// Ping checks the report store. The memory store is always ready.
func (c *Container) Ping(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.PingContext(ctx)
}

func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

func GatewayConfig(cfg config.Config, logger *logging.Logger) statsapi.Config {
	api := cfg.StatsAPI

	var transport statsapi.Transport
	switch api.Transport {
	case config.TransportFastHTTP:
		transport = statsapi.NewFastHTTPTransport(api.Timeout)
	default:
		transport = statsapi.NewHTTPTransport(nil, api.Timeout)
	}

	return statsapi.Config{
		BaseURL:      api.BaseURL,
		Timeout:      api.Timeout,
		RateLimit:    api.RateLimit,
		CacheTTL:     api.CacheTTL,
		ExpensiveTTL: api.ExpensiveCacheTTL,
		Backoff: resilience.BackoffConfig{
			MaxRetries: api.MaxRetries,
			Initial:    api.BackoffInitial,
			Max:        api.BackoffMax,
			Multiplier: 2,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          api.CircuitEnabled,
			FailureThreshold: api.CircuitFailureThreshold,
			OpenTimeout:      api.CircuitOpenTimeout,
			HalfOpenMaxReq:   api.CircuitHalfOpenMaxReq,
		},
		Transport: transport,
		Logger:    logger,
	}
}

func EngineConfig(cfg config.Config) usecase.VenuePerformanceConfig {
	return usecase.VenuePerformanceConfig{
		Workers:            cfg.Engine.Workers,
		MaxCorrelatedGames: cfg.Engine.MaxCorrelatedGames,
		QueryTimeout:       cfg.Engine.QueryTimeout,
		SplitCodes:         cfg.Engine.SplitCodes,
	}
}
