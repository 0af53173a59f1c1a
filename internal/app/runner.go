package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/service/orchestrator"
	"delivery-orchestrator/internal/transport/kafka"
)

// Runner runs the orchestrator: router, recovery sweep, ops HTTP and Kafka ingest.
type Runner struct {
	runFn func(*dig.Container) error
}

// NewRunner returns a Runner.
func NewRunner() *Runner {
	return &Runner{runFn: run}
}

// MustRun runs until the container context is done. Any other failure is fatal.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Info("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		panic(err)
	}
}

type orchestratorDeps struct {
	dig.In

	Ctx      context.Context
	Logger   logx.Logger
	Service  *orchestrator.Service
	Router   *events.Router
	Server   *http.Server
	Consumer *kafka.Consumer
	Sink     *kafka.NotificationSink
	Redis    *redis.Client
	Close    storeCloser
}

func run(container *dig.Container) error {
	return container.Invoke(runOrchestrator)
}

func runOrchestrator(d orchestratorDeps) error {
	defer closeResources(d)

	g, ctx := errgroup.WithContext(d.Ctx)
	g.Go(func() error { return d.Router.Run(ctx) })
	g.Go(func() error {
		_, err := d.Service.Recover(ctx)
		return err
	})
	if d.Server != nil {
		g.Go(func() error {
			d.Logger.Info("ops http listening", logx.String("addr", d.Server.Addr))
			if err := d.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			gracefulShutdown(d.Server, d.Logger, 15*time.Second)
			return nil
		})
	}
	if d.Consumer != nil {
		g.Go(func() error { return d.Consumer.Run(ctx) })
	}

	d.Logger.Info("orchestrator started")
	err := g.Wait()
	d.Logger.Info("shutting down orchestrator")
	d.Service.Wait()
	return err
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
	}
}

func closeResources(d orchestratorDeps) {
	if err := d.Consumer.Close(); err != nil {
		d.Logger.Error("kafka consumer close error", logx.Err(err))
	}
	if err := d.Sink.Close(); err != nil {
		d.Logger.Error("kafka producer close error", logx.Err(err))
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", logx.Err(err))
		}
	}
	if d.Close != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Close(ctx); err != nil {
			d.Logger.Error("store close error", logx.Err(err))
		}
	}
}
