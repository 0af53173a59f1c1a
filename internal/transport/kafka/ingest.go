package kafka

import (
	"context"
	"errors"
	"fmt"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
)

type cancelStore interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	RequestCancel(ctx context.Context, orderID string) (bool, *domain.Order, error)
}

// Ingestion outcomes, used as metric labels.
const (
	OutcomeRequested      = "requested"
	OutcomeUnknownOrder   = "unknown_order"
	OutcomeClientMismatch = "client_mismatch"
	OutcomeNotCancellable = "not_cancellable"
	OutcomeFailed         = "failed"
)

// CancelIngest turns cancellation_requests messages into the client's conditional write
// status=cancel_requested. The orchestrator picks the change up from the order stream.
type CancelIngest struct {
	store   cancelStore
	logger  logx.Logger
	metrics *metrics.Collectors
}

// NewCancelIngest creates a CancelIngest. collectors may be nil.
func NewCancelIngest(store cancelStore, logger logx.Logger, collectors *metrics.Collectors) *CancelIngest {
	return &CancelIngest{store: store, logger: logger, metrics: collectors}
}

// Handle is a HandleFunc. Requests that can never apply are returned as Permanent.
func (in *CancelIngest) Handle(ctx context.Context, req CancelRequest) error {
	outcome, err := in.handle(ctx, req)
	if in.metrics != nil {
		in.metrics.CancelIngestions.WithLabelValues(outcome).Inc()
	}
	return err
}

func (in *CancelIngest) handle(ctx context.Context, req CancelRequest) (string, error) {
	log := in.logger.With(logx.OrderID(req.OrderID))

	o, err := in.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return OutcomeFailed, storeError(err)
	}
	if o == nil {
		return OutcomeUnknownOrder, Permanent(fmt.Errorf("%w: order %s", apperr.ErrNotFound, req.OrderID))
	}
	if req.ClientID != "" && req.ClientID != o.ClientID {
		return OutcomeClientMismatch, Permanent(fmt.Errorf("%w: order %s does not belong to client %s",
			apperr.ErrInvalid, req.OrderID, req.ClientID))
	}

	applied, cur, err := in.store.RequestCancel(ctx, req.OrderID)
	if err != nil {
		return OutcomeFailed, storeError(err)
	}
	if !applied {
		status := ""
		if cur != nil {
			status = string(cur.Status)
		}
		log.Info("cancellation request not applicable", logx.String("status", status))
		return OutcomeNotCancellable, nil
	}
	log.Info("cancellation requested", logx.String("reason", req.Reason))
	return OutcomeRequested, nil
}

// storeError keeps transient failures retryable and makes the rest permanent.
func storeError(err error) error {
	if errors.Is(err, apperr.ErrTransient) {
		return err
	}
	return Permanent(err)
}
