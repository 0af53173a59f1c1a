package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
)

// Stream ids of the orchestrator subscriptions. They key the persisted resume tokens.
const (
	StreamOrders              = "orchestrator.orders"
	StreamRestaurantResponses = "orchestrator.restaurant_responses"
	StreamDeliveryResponses   = "orchestrator.delivery_responses"
)

// Collections names the watched collections.
type Collections struct {
	Orders             string
	RestaurantRequests string
	DeliveryRequests   string
}

// Config holds the deadlines and sizes of the orchestrator.
type Config struct {
	TResto     time.Duration
	TDriver    time.Duration
	TNoDriver  time.Duration
	RewardRate float64
	// Workers caps the number of concurrently running order tasks.
	Workers     int
	Collections Collections
}

// Service drives every order from pending to assigned or cancelled. Each order runs in its
// own task; the router handlers only start tasks and forward observed responses to them.
type Service struct {
	store    Store
	selector Selector
	cancel   Canceller
	bus      Publisher
	recorder AssignmentRecorder
	cfg      Config
	logger   logx.Logger
	metrics  *metrics.Collectors

	factory *actionFactory
	tasks   *registry
	sem     chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewService creates the orchestrator. collectors may be nil.
func NewService(
	store Store,
	selector Selector,
	canceller Canceller,
	bus Publisher,
	recorder AssignmentRecorder,
	cfg Config,
	logger logx.Logger,
	collectors *metrics.Collectors,
) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	s := &Service{
		store:    store,
		selector: selector,
		cancel:   canceller,
		bus:      bus,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		metrics:  collectors,
		tasks:    newRegistry(),
		sem:      make(chan struct{}, cfg.Workers),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.factory = newActionFactory(s.onPending, s.onCancelRequested)
	return s
}

// Subscriptions returns the router subscriptions of the orchestrator.
func (s *Service) Subscriptions() []events.Subscription {
	responded := []string{string(domain.RequestAccepted), string(domain.RequestRejected)}
	return []events.Subscription{
		{
			ID:         StreamOrders,
			Collection: s.cfg.Collections.Orders,
			Filter: events.Filter{
				Ops:      []events.Op{events.OpInsert, events.OpUpdate, events.OpReplace},
				Statuses: s.factory.statuses(),
			},
			Handler: s.HandleOrderEvent,
		},
		{
			ID:         StreamRestaurantResponses,
			Collection: s.cfg.Collections.RestaurantRequests,
			Filter:     events.Filter{Ops: []events.Op{events.OpUpdate, events.OpReplace}, Statuses: responded},
			Handler:    s.HandleRestaurantEvent,
		},
		{
			ID:         StreamDeliveryResponses,
			Collection: s.cfg.Collections.DeliveryRequests,
			Filter:     events.Filter{Ops: []events.Op{events.OpUpdate, events.OpReplace}, Statuses: responded},
			Handler:    s.HandleDeliveryEvent,
		},
	}
}

// HandleOrderEvent dispatches an order change by its status.
func (s *Service) HandleOrderEvent(ctx context.Context, ev events.Event) error {
	var o domain.Order
	if err := ev.Decode(&o); err != nil {
		s.logger.Warn("undecodable order event", logx.OrderID(ev.Key()), logx.Err(err))
		return nil
	}
	fn, ok := s.factory.get(o.Status)
	if !ok {
		return nil
	}
	return fn(ctx, o)
}

func (s *Service) onPending(ctx context.Context, o domain.Order) error {
	s.Start(ctx, o.OrderID)
	return nil
}

func (s *Service) onCancelRequested(ctx context.Context, o domain.Order) error {
	if s.tasks.deliver(o.OrderID, message{kind: msgCancelRequested}) {
		return nil
	}
	_, err := s.cancel.HandleCancelRequest(ctx, o.OrderID)
	return err
}

// HandleRestaurantEvent forwards a restaurant response to the task of its order.
func (s *Service) HandleRestaurantEvent(_ context.Context, ev events.Event) error {
	var rr domain.RestaurantRequest
	if err := ev.Decode(&rr); err != nil {
		s.logger.Warn("undecodable restaurant request event", logx.OrderID(ev.Key()), logx.Err(err))
		return nil
	}
	if !rr.Status.Responded() {
		return nil
	}
	if !s.tasks.deliver(rr.OrderID, message{kind: msgRestaurantResponse, restaurant: &rr}) {
		s.logger.Debug("restaurant response without running task", logx.OrderID(rr.OrderID))
	}
	return nil
}

// HandleDeliveryEvent forwards a driver response to the task of its order. Late acceptances
// of orders that are no longer open are answered with course_unavailable.
func (s *Service) HandleDeliveryEvent(ctx context.Context, ev events.Event) error {
	var dr domain.DeliveryRequest
	if err := ev.Decode(&dr); err != nil {
		s.logger.Warn("undecodable delivery request event", logx.OrderID(ev.Key()), logx.Err(err))
		return nil
	}
	if !dr.Status.Responded() {
		return nil
	}
	if s.tasks.deliver(dr.OrderID, message{kind: msgDeliveryResponse, delivery: &dr}) {
		return nil
	}
	return s.lateDelivery(ctx, dr)
}

func (s *Service) lateDelivery(ctx context.Context, dr domain.DeliveryRequest) error {
	if dr.Status != domain.RequestAccepted {
		return nil
	}
	o, err := s.store.GetOrder(ctx, dr.OrderID)
	if err != nil {
		return fmt.Errorf("get order %s: %w", dr.OrderID, err)
	}
	if o == nil || o.AssignedDriverID == dr.DriverID {
		return nil
	}
	if o.AssignedDriverID == "" && !o.Status.IsTerminal() {
		// still open; the next task or recovery sweep arbitrates it
		return nil
	}
	s.logger.Info("late acceptance refused",
		logx.OrderID(dr.OrderID),
		logx.String("driver_id", dr.DriverID),
		logx.String("status", string(o.Status)),
	)
	return s.bus.Publish(ctx, dr.OrderID, domain.ToDriver(dr.DriverID), domain.KindCourseUnavailable, map[string]any{
		"status": string(o.Status),
	})
}

// Start launches the task of orderID unless one is already running.
func (s *Service) Start(ctx context.Context, orderID string) bool {
	mb, ok := s.tasks.register(orderID)
	if !ok {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.run(ctx, orderID, mb)
	}()
	return true
}

// Run drives orderID in the calling goroutine and returns its outcome.
func (s *Service) Run(ctx context.Context, orderID string) (Outcome, error) {
	mb, ok := s.tasks.register(orderID)
	if !ok {
		return OutcomeIgnored, fmt.Errorf("%w: task for order %s already running", apperr.ErrConflict, orderID)
	}
	return s.run(ctx, orderID, mb)
}

// Wait blocks until every started task has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context, orderID string, mb *mailbox) (Outcome, error) {
	log := s.logger.With(logx.OrderID(orderID))
	defer s.finish(ctx, orderID, log)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return OutcomeInterrupted, nil
	}
	defer func() { <-s.sem }()

	if s.metrics != nil {
		s.metrics.ActiveTasks.Inc()
		defer s.metrics.ActiveTasks.Dec()
	}

	t := &task{Service: s, orderID: orderID, mb: mb, log: log}
	out, err := t.run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("order task failed", logx.String("outcome", out.String()), logx.Err(err))
		return out, err
	}
	log.Info("order task finished", logx.String("outcome", out.String()))
	return out, nil
}

// finish unregisters the task and handles the messages it left behind.
func (s *Service) finish(ctx context.Context, orderID string, log logx.Logger) {
	for _, msg := range s.tasks.unregister(orderID) {
		if ctx.Err() != nil {
			return
		}
		var err error
		switch msg.kind {
		case msgCancelRequested:
			_, err = s.cancel.HandleCancelRequest(ctx, orderID)
		case msgDeliveryResponse:
			err = s.lateDelivery(ctx, *msg.delivery)
		}
		if err != nil {
			log.Warn("leftover event failed", logx.Err(err))
		}
	}
}
