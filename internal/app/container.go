package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"delivery-orchestrator/internal/config"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/http/handlers"
	obs "delivery-orchestrator/internal/http/middleware"
	"delivery-orchestrator/internal/http/router"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
	"delivery-orchestrator/internal/repository"
	"delivery-orchestrator/internal/service/cancellation"
	"delivery-orchestrator/internal/service/courier"
	"delivery-orchestrator/internal/service/notify"
	"delivery-orchestrator/internal/service/orchestrator"
	"delivery-orchestrator/internal/transport/kafka"
	"delivery-orchestrator/internal/transport/redisbus"
)

// ContainerBuilder is a dig container builder for both binaries.
type ContainerBuilder struct {
	args         []string
	loadConfig   func([]string) (*config.Config, error)
	openStore    StoreOpener
	connectRedis func(context.Context, config.Redis) (*redis.Client, error)
	logger       logx.Logger
	logFatalf    func(string, ...interface{})
}

// NewContainerBuilder returns a builder reading config from args.
func NewContainerBuilder(args []string) *ContainerBuilder {
	return &ContainerBuilder{
		args:       args,
		loadConfig: config.Load,
		openStore:  openMongo,
		connectRedis: func(ctx context.Context, r config.Redis) (*redis.Client, error) {
			return redisbus.NewClient(ctx, r.Addr, r.Password, r.DB)
		},
		logFatalf: log.Fatalf,
	}
}

// WithConfig bypasses config loading.
func (b *ContainerBuilder) WithConfig(cfg *config.Config) *ContainerBuilder {
	if cfg != nil {
		b.loadConfig = func([]string) (*config.Config, error) { return cfg, nil }
	}
	return b
}

// WithStore sets the store opener.
func (b *ContainerBuilder) WithStore(fn StoreOpener) *ContainerBuilder {
	if fn != nil {
		b.openStore = fn
	}
	return b
}

// WithLogger replaces the JSON logger built from the config.
func (b *ContainerBuilder) WithLogger(l logx.Logger) *ContainerBuilder {
	b.logger = l
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuildOrchestrator builds the orchestrator container or exits.
func (b *ContainerBuilder) MustBuildOrchestrator(ctx context.Context) *dig.Container {
	c, err := b.BuildOrchestrator(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return c
}

// BuildOrchestrator wires the orchestrator: store, router, tasks, notifications, ops HTTP
// and the optional Kafka cancellation ingest.
func (b *ContainerBuilder) BuildOrchestrator(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	steps := []struct {
		name string
		fn   func(*dig.Container) error
	}{
		{"core", func(c *dig.Container) error { return b.registerCore(c, ctx) }},
		{"store", b.registerStore},
		{"cursors", registerCursors},
		{"notify", registerNotify},
		{"orchestrator", registerOrchestrator},
		{"ingest", registerIngest},
		{"http", registerHTTP},
	}
	for _, s := range steps {
		if err := s.fn(container); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return container, nil
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func (b *ContainerBuilder) registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		func() (*config.Config, error) { return b.loadConfig(b.args) },
		func(cfg *config.Config) logx.Logger {
			if b.logger != nil {
				return b.logger
			}
			return NewLogger(cfg.LogLevel)
		},
		func() (*metrics.Collectors, *prometheus.Registry, error) {
			reg := prometheus.NewRegistry()
			c := metrics.NewCollectors()
			if err := c.Register(reg); err != nil {
				return nil, nil, err
			}
			if err := reg.Register(collectors.NewGoCollector()); err != nil {
				return nil, nil, err
			}
			return c, reg, nil
		},
	)
}

func (b *ContainerBuilder) registerStore(container *dig.Container) error {
	return provideAll(container,
		func(ctx context.Context, cfg *config.Config, logger logx.Logger, c *metrics.Collectors) (Store, storeCloser, error) {
			st, closeFn, err := b.openStore(ctx, cfg, logger, c)
			if err != nil {
				return nil, nil, err
			}
			if closeFn == nil {
				closeFn = func(context.Context) error { return nil }
			}
			return st, storeCloser(closeFn), nil
		},
		// nil when REDIS_ADDR is empty
		func(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
			if !cfg.Redis.Enabled() {
				return nil, nil
			}
			return b.connectRedis(ctx, cfg.Redis)
		},
	)
}

func registerCursors(container *dig.Container) error {
	return provideAll(container, newCursorStore)
}

func newCursorStore(cfg *config.Config, st Store, rdb *redis.Client) (events.CursorStore, error) {
	switch cfg.CursorBackend {
	case config.CursorFile:
		return events.NewFileCursorStore(cfg.ResumeTokenPath), nil
	case config.CursorStore:
		return st, nil
	case config.CursorRedis:
		if rdb == nil {
			return nil, fmt.Errorf("cursor backend redis: no redis client")
		}
		return redisbus.NewCursorStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown cursor backend %q", cfg.CursorBackend)
	}
}

func registerNotify(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) (*kafka.NotificationSink, error) {
			return kafka.NewNotificationSink(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic)
		},
		newBus,
	)
}

func newBus(st Store, logger logx.Logger, c *metrics.Collectors, rdb *redis.Client, ks *kafka.NotificationSink) *notify.Bus {
	sinks := []notify.Sink{notify.NewLogSink(logger)}
	if rdb != nil {
		sinks = append(sinks, redisbus.NewSink(rdb, ""))
	}
	if ks != nil {
		sinks = append(sinks, ks)
	}
	return notify.NewBus(st, logger, c, sinks...)
}

func registerOrchestrator(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config, st Store, logger logx.Logger) *courier.Selector {
			return courier.NewSelector(st, cfg.CandidatesK, cfg.GeoRadiusMeters, cfg.OperationTimeout, logger)
		},
		func(cfg *config.Config, st Store, bus *notify.Bus, c *metrics.Collectors, logger logx.Logger) *cancellation.Engine {
			return cancellation.NewEngine(st, bus, cancellation.NewPolicy(cfg.PreparationRefundRate), c, logger)
		},
		func(st Store, c *metrics.Collectors, logger logx.Logger) *metrics.Sink {
			return metrics.NewSink(st, c, logger)
		},
		newOrchestrator,
		newRouter,
	)
}

func orchestratorConfig(cfg *config.Config) orchestrator.Config {
	cols := repository.DefaultCollections()
	return orchestrator.Config{
		TResto:     cfg.TResto(),
		TDriver:    cfg.TDriver(),
		TNoDriver:  cfg.TNoDriver(),
		RewardRate: cfg.DriverRewardRate,
		Workers:    cfg.WorkerPoolSize,
		Collections: orchestrator.Collections{
			Orders:             cols.Orders,
			RestaurantRequests: cols.RestaurantRequests,
			DeliveryRequests:   cols.DeliveryRequests,
		},
	}
}

func newOrchestrator(
	cfg *config.Config,
	st Store,
	sel *courier.Selector,
	engine *cancellation.Engine,
	bus *notify.Bus,
	sink *metrics.Sink,
	logger logx.Logger,
	c *metrics.Collectors,
) *orchestrator.Service {
	return orchestrator.NewService(st, sel, engine, bus, sink, orchestratorConfig(cfg), logger, c)
}

func routerOptions(cfg *config.Config, resume bool) events.Options {
	opts := events.DefaultOptions()
	opts.Shards = cfg.RouterShards
	opts.MaxRetries = cfg.MaxRetries
	opts.RetryDelay = cfg.RetryDelay()
	opts.Resume = resume
	return opts
}

func newRouter(
	cfg *config.Config,
	st Store,
	cursors events.CursorStore,
	svc *orchestrator.Service,
	logger logx.Logger,
	c *metrics.Collectors,
) (*events.Router, error) {
	r := events.NewRouter(st, cursors, routerOptions(cfg, true), logger, c)
	for _, sub := range svc.Subscriptions() {
		if err := r.Subscribe(sub); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func registerIngest(container *dig.Container) error {
	return provideAll(container,
		// nil when KAFKA_BROKERS is empty
		func(cfg *config.Config, st Store, logger logx.Logger, c *metrics.Collectors) (*kafka.Consumer, error) {
			if !cfg.Kafka.Enabled() {
				return nil, nil
			}
			in := kafka.NewCancelIngest(st, logger, c)
			return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.CancellationsTopic, in.Handle)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	return provideAll(container,
		func(reg *prometheus.Registry) (*obs.HTTPMetrics, error) {
			return obs.NewHTTPMetrics(reg)
		},
		func(st Store, logger logx.Logger, reg *prometheus.Registry, m *obs.HTTPMetrics) http.Handler {
			return router.New(router.Deps{
				Base:        handlers.New(logger),
				Orders:      handlers.NewOrderHandler(logger, st),
				Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
				HTTPMetrics: m,
				Logger:      logger,
			})
		},
		// nil when the port is 0
		func(cfg *config.Config, mux http.Handler) *http.Server {
			if cfg.HTTPPort == 0 {
				return nil
			}
			return &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      15 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
		},
	)
}
