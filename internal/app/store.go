package app

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"delivery-orchestrator/internal/config"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
	"delivery-orchestrator/internal/repository"
	"delivery-orchestrator/internal/service/orchestrator"
)

// Store is everything both binaries need from the operational store. The MongoDB store
// and the in-memory store implement it.
type Store interface {
	orchestrator.Store
	events.Source
	events.CursorStore

	InsertNotification(ctx context.Context, n domain.Notification) error
	InsertRefund(ctx context.Context, r domain.Refund) error
	InsertMetric(ctx context.Context, m domain.AssignmentMetric) error
	MarkSettled(ctx context.Context, orderID string) error
	RequestCancel(ctx context.Context, orderID string) (bool, *domain.Order, error)

	FindAvailableDriversByCity(ctx context.Context, city string, k int) ([]domain.Driver, error)
	FindAvailableDriversNear(ctx context.Context, p domain.GeoPoint, radiusMeters float64, k int) ([]domain.Driver, error)
	FindAvailableDrivers(ctx context.Context, k int) ([]domain.Driver, error)

	FindDeliveredOrderIDs(ctx context.Context, page repository.DeliveredPage) ([]string, error)
	EnrichOrders(ctx context.Context, orderIDs []string) ([]domain.EnrichmentSource, error)
	BulkInsertHistory(ctx context.Context, recs []domain.HistoryRecord) (repository.BulkResult, error)
	SampleHistory(ctx context.Context, n int) ([]domain.HistoryRecord, error)
}

// StoreOpener opens the store. The returned closer releases its connections.
type StoreOpener func(ctx context.Context, cfg *config.Config, logger logx.Logger, c *metrics.Collectors) (Store, func(context.Context) error, error)

type storeCloser func(context.Context) error

var connect = repository.Connect

func openMongo(ctx context.Context, cfg *config.Config, logger logx.Logger, c *metrics.Collectors) (Store, func(context.Context) error, error) {
	client, err := connectWithRetry(ctx, logger, cfg.MongoURI, 10, time.Second)
	if err != nil {
		return nil, nil, err
	}

	retrier := repository.NewRetrier(logger, c.StoreRetries, repository.RetryConfig{
		MaxAttempts: cfg.MaxRetries + 1,
		BaseDelay:   cfg.RetryDelay(),
		MaxDelay:    30 * time.Second,
	})
	st := repository.NewStore(client.Database(cfg.DatabaseName), repository.DefaultCollections(), retrier, cfg.OperationTimeout)

	idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := st.EnsureIndexes(idxCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return st, client.Disconnect, nil
}

func connectWithRetry(ctx context.Context, logger logx.Logger, uri string, retries int, delay time.Duration) (*mongo.Client, error) {
	var lastErr error
	for i := 1; i <= retries; i++ {
		client, err := connect(ctx, uri)
		if err == nil {
			logger.Info("mongo connected", logx.Int("attempt", i))
			return client, nil
		}
		lastErr = err
		logger.Warn("mongo connect failed",
			logx.Int("attempt", i),
			logx.Int("retries", retries),
			logx.Err(err),
		)
		if i < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("mongo connect failed after %d attempts: %w", retries, lastErr)
}
