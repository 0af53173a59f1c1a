package archive

import (
	"context"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/repository"
)

type historyStore interface {
	FindDeliveredOrderIDs(ctx context.Context, page repository.DeliveredPage) ([]string, error)
	EnrichOrders(ctx context.Context, orderIDs []string) ([]domain.EnrichmentSource, error)
	BulkInsertHistory(ctx context.Context, recs []domain.HistoryRecord) (repository.BulkResult, error)
	SampleHistory(ctx context.Context, n int) ([]domain.HistoryRecord, error)
}
