package events

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"golang.org/x/sync/errgroup"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
)

// Options tunes the router.
type Options struct {
	// Shards is the number of per-order serial queues.
	Shards    int
	QueueSize int
	// MaxRetries caps handler retries on transient errors.
	MaxRetries int
	RetryDelay time.Duration
	// ReopenBase and ReopenMax bound the backoff between stream reopen attempts.
	ReopenBase time.Duration
	ReopenMax  time.Duration
	// Resume loads persisted tokens at start; false starts every stream from now.
	Resume bool
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Shards:     64,
		QueueSize:  128,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		ReopenBase: time.Second,
		ReopenMax:  60 * time.Second,
		Resume:     true,
	}
}

// Router demultiplexes change streams into handlers. Events of one order are processed
// one at a time and in stream order; different orders run in parallel.
type Router struct {
	source  Source
	cursors CursorStore
	opts    Options
	logger  logx.Logger
	metrics *metrics.Collectors
	sleep   func(context.Context, time.Duration) bool

	subs []*subscriptionState
}

type subscriptionState struct {
	Subscription
	tracker *tracker
}

type job struct {
	sub *subscriptionState
	seq uint64
	ev  Event
}

// NewRouter builds a router. collectors may be nil.
func NewRouter(source Source, cursors CursorStore, opts Options, logger logx.Logger, collectors *metrics.Collectors) *Router {
	def := DefaultOptions()
	if opts.Shards <= 0 {
		opts.Shards = def.Shards
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.ReopenBase <= 0 {
		opts.ReopenBase = def.ReopenBase
	}
	if opts.ReopenMax < opts.ReopenBase {
		opts.ReopenMax = opts.ReopenBase
	}
	return &Router{
		source:  source,
		cursors: cursors,
		opts:    opts,
		logger:  logger,
		metrics: collectors,
		sleep:   sleepWithContext,
	}
}

// Subscribe registers a subscription. It must be called before Run.
func (r *Router) Subscribe(sub Subscription) error {
	if sub.ID == "" || sub.Collection == "" || sub.Handler == nil {
		return fmt.Errorf("%w: subscription needs id, collection and handler", apperr.ErrInvalid)
	}
	for _, s := range r.subs {
		if s.ID == sub.ID {
			return fmt.Errorf("%w: duplicate subscription %q", apperr.ErrConflict, sub.ID)
		}
	}
	r.subs = append(r.subs, &subscriptionState{Subscription: sub})
	return nil
}

// Run watches every subscription until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	if len(r.subs) == 0 {
		return fmt.Errorf("%w: router has no subscriptions", apperr.ErrInvalid)
	}

	for _, s := range r.subs {
		var initial []byte
		if r.opts.Resume {
			tok, err := r.cursors.LoadCursor(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("load cursor %s: %w", s.ID, err)
			}
			initial = tok
		}
		s.tracker = newTracker(initial)
	}

	shards := make([]chan job, r.opts.Shards)
	for i := range shards {
		shards[i] = make(chan job, r.opts.QueueSize)
	}

	workers, wctx := errgroup.WithContext(ctx)
	for _, ch := range shards {
		workers.Go(func() error {
			r.work(wctx, ch)
			return nil
		})
	}

	readers, rctx := errgroup.WithContext(wctx)
	for _, s := range r.subs {
		readers.Go(func() error {
			return r.read(rctx, s, shards)
		})
	}

	readErr := readers.Wait()
	for _, ch := range shards {
		close(ch)
	}
	_ = workers.Wait()

	if readErr != nil && !errors.Is(readErr, context.Canceled) {
		return readErr
	}
	return ctx.Err()
}

// read keeps one subscription's stream open, reopening it after failures.
func (r *Router) read(ctx context.Context, s *subscriptionState, shards []chan job) error {
	log := r.logger.With(logx.String("stream", s.ID))
	token := s.tracker.lastPersisted()
	delay := r.opts.ReopenBase

	for {
		stream, err := r.source.Watch(ctx, s.Collection, s.Filter, token)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, apperr.ErrCursorInvalid) && token != nil {
				r.gap(log, err)
				token = nil
				continue
			}
			log.Warn("stream open failed", logx.Err(err), logx.Duration("retry_in", delay))
			if !r.sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay, r.opts.ReopenMax)
			continue
		}
		delay = r.opts.ReopenBase
		log.Info("stream opened", logx.Bool("resumed", token != nil))

		for stream.Next(ctx) {
			ev := stream.Event()
			ev.StreamID = s.ID
			j := job{sub: s, seq: s.tracker.assign(), ev: ev}
			// events without an order_id share queue 0 and run one after another
			select {
			case shards[shardOf(ev.Key(), len(shards))] <- j:
			case <-ctx.Done():
				_ = stream.Close(context.Background())
				return ctx.Err()
			}
		}
		streamErr := stream.Err()
		_ = stream.Close(context.Background())

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(streamErr, apperr.ErrCursorInvalid) {
			r.gap(log, streamErr)
			token = nil
			continue
		}
		log.Warn("stream interrupted, reopening", logx.Err(streamErr), logx.Duration("retry_in", delay))
		if !r.sleep(ctx, delay) {
			return ctx.Err()
		}
		delay = nextDelay(delay, r.opts.ReopenMax)
		token = s.tracker.lastPersisted()
	}
}

func (r *Router) gap(log logx.Logger, err error) {
	if r.metrics != nil {
		r.metrics.DurabilityGaps.Inc()
	}
	log.Error("resume token rejected, reopening from now",
		logx.Event("durability_gap"),
		logx.Err(err),
	)
}

func (r *Router) work(ctx context.Context, jobs <-chan job) {
	for j := range jobs {
		if ctx.Err() != nil {
			continue
		}
		if !r.handle(ctx, j) {
			continue
		}
		j.sub.tracker.complete(j.seq, j.ev.Token, func(tok []byte) error {
			if err := r.cursors.PersistCursor(ctx, j.sub.ID, tok); err != nil {
				r.logger.Warn("persist cursor failed", logx.String("stream", j.sub.ID), logx.Err(err))
				return err
			}
			return nil
		})
	}
}

// handle runs the handler with retries. It returns false when the run is shutting down
// and the event must stay unacknowledged.
func (r *Router) handle(ctx context.Context, j job) bool {
	for attempt := 1; ; attempt++ {
		err := j.sub.Handler(ctx, j.ev)
		if err == nil {
			r.count(j.sub.ID, "ok")
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		// errors the store layer already retried are not retried again
		if errors.Is(err, apperr.ErrTransient) && !errors.Is(err, apperr.ErrRetriesExhausted) && attempt <= r.opts.MaxRetries {
			delay := backoff(r.opts.RetryDelay, r.opts.ReopenMax, attempt)
			r.logger.Warn("event handler retry",
				logx.String("stream", j.sub.ID),
				logx.OrderID(j.ev.Key()),
				logx.Int("attempt", attempt),
				logx.Duration("delay", delay),
				logx.Err(err),
			)
			if !r.sleep(ctx, delay) {
				return false
			}
			continue
		}
		r.count(j.sub.ID, "error")
		r.logger.Error("event handler failed, skipping event",
			logx.String("stream", j.sub.ID),
			logx.OrderID(j.ev.Key()),
			logx.Err(err),
		)
		return true
	}
}

func (r *Router) count(stream, outcome string) {
	if r.metrics != nil {
		r.metrics.RouterEvents.WithLabelValues(stream, outcome).Inc()
	}
}

// shardOf maps an order id to its serial queue; events without one use queue 0.
func shardOf(key string, n int) int {
	if key == "" || n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if d > max || d <= 0 {
		return max
	}
	return d
}

func nextDelay(d, max time.Duration) time.Duration {
	d *= 2
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
