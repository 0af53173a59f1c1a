package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"delivery-orchestrator/internal/apperr"
	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
	"delivery-orchestrator/internal/repository"
)

// Stats are the counters of one archiver run.
type Stats struct {
	Found      int `json:"found"`
	Archived   int `json:"archived"`
	Duplicates int `json:"duplicates"`
	Incomplete int `json:"incomplete"`
	Errors     int `json:"errors"`
}

func (s Stats) String() string {
	return fmt.Sprintf("found=%d archived=%d duplicates=%d incomplete=%d errors=%d",
		s.Found, s.Archived, s.Duplicates, s.Incomplete, s.Errors)
}

// Config configures an Archiver.
type Config struct {
	BatchSize  int
	ArchivedBy string
}

// BatchOptions narrows a batch run.
type BatchOptions struct {
	From      *time.Time
	To        *time.Time
	BatchSize int
	DryRun    bool
}

// Archiver copies delivered orders into History as flattened, enriched records.
type Archiver struct {
	store   historyStore
	cfg     Config
	logger  logx.Logger
	metrics *metrics.Collectors

	mu    sync.Mutex
	stats Stats
	// pending holds live orders whose last attempt failed transiently and may be retried.
	pending map[string]struct{}
	now     func() time.Time
}

// NewArchiver creates an Archiver. collectors may be nil.
func NewArchiver(store historyStore, cfg Config, logger logx.Logger, collectors *metrics.Collectors) *Archiver {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Archiver{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		metrics: collectors,
		pending: make(map[string]struct{}),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns a snapshot of the counters. Orders still failing after their last attempt
// count as errors.
func (a *Archiver) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.stats
	st.Errors += len(a.pending)
	return st
}

func (a *Archiver) add(delta Stats) {
	a.mu.Lock()
	a.stats.Found += delta.Found
	a.stats.Archived += delta.Archived
	a.stats.Duplicates += delta.Duplicates
	a.stats.Incomplete += delta.Incomplete
	a.stats.Errors += delta.Errors
	a.mu.Unlock()

	if a.metrics == nil {
		return
	}
	for result, n := range map[string]int{
		"archived":   delta.Archived,
		"duplicate":  delta.Duplicates,
		"incomplete": delta.Incomplete,
		"error":      delta.Errors,
	} {
		if n > 0 {
			a.metrics.ArchivedRecords.WithLabelValues(result).Add(float64(n))
		}
	}
}

// Batch archives every delivered order, one page of opts.BatchSize at a time.
// A failing page is counted in Errors and the run goes on; only a failed scan aborts it.
func (a *Archiver) Batch(ctx context.Context, opts BatchOptions) (Stats, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = a.cfg.BatchSize
	}
	log := a.logger.With(logx.String("run_id", uuid.NewString()), logx.Bool("dry_run", opts.DryRun))
	log.Info("batch archiving started", logx.Int("batch_size", size))

	page := repository.DeliveredPage{From: opts.From, To: opts.To, Limit: size}
	for {
		if err := ctx.Err(); err != nil {
			return a.Stats(), err
		}
		ids, err := a.store.FindDeliveredOrderIDs(ctx, page)
		if err != nil {
			a.add(Stats{Errors: 1})
			return a.Stats(), fmt.Errorf("find delivered orders: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		a.add(Stats{Found: len(ids)})
		page.After = ids[len(ids)-1]

		_, _ = a.archive(ctx, ids, opts.DryRun, false, log)
		log.Info("batch progress", logx.Int("processed", a.Stats().Found))
		if len(ids) < size {
			break
		}
	}

	st := a.Stats()
	log.Info("batch archiving completed",
		logx.Int("found", st.Found),
		logx.Int("archived", st.Archived),
		logx.Int("duplicates", st.Duplicates),
		logx.Int("incomplete", st.Incomplete),
		logx.Int("errors", st.Errors),
	)
	return st, nil
}

// ArchiveOrder archives one order of the live stream. The order is found once however
// many times it is retried; a transient failure is returned and kept pending until a retry
// succeeds.
func (a *Archiver) ArchiveOrder(ctx context.Context, orderID string) (Stats, error) {
	a.mu.Lock()
	_, retry := a.pending[orderID]
	a.mu.Unlock()
	if !retry {
		a.add(Stats{Found: 1})
	}

	delta, err := a.archive(ctx, []string{orderID}, false, true, a.logger.With(logx.OrderID(orderID)))

	a.mu.Lock()
	if err != nil {
		a.pending[orderID] = struct{}{}
	} else {
		delete(a.pending, orderID)
	}
	a.mu.Unlock()
	return delta, err
}

// archive enriches ids and inserts them; it returns the delta it added to the counters.
// The error is only returned for transient store failures. With retryable set, those
// failures are left to the caller instead of being counted.
func (a *Archiver) archive(ctx context.Context, ids []string, dryRun, retryable bool, log logx.Logger) (Stats, error) {
	var delta Stats
	defer func() { a.add(delta) }()

	sources, err := a.store.EnrichOrders(ctx, ids)
	if err != nil {
		log.Error("enrichment failed", logx.Int("orders", len(ids)), logx.Err(err))
		retry := transientOnly(err)
		if retry == nil || !retryable {
			delta.Errors += len(ids)
		}
		return delta, retry
	}
	if len(sources) < len(ids) {
		delta.Errors += len(ids) - len(sources)
		log.Warn("orders vanished before enrichment", logx.Int("missing", len(ids)-len(sources)))
	}

	now := a.now()
	recs := make([]domain.HistoryRecord, 0, len(sources))
	for _, src := range sources {
		rec := Flatten(src, a.cfg.ArchivedBy, now)
		if rec.Incomplete {
			delta.Incomplete++
			log.Debug("incomplete record",
				logx.String("order_number", rec.OrderNumber),
				logx.Any("missing_fields", rec.MissingFields),
			)
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return delta, nil
	}

	if dryRun {
		delta.Archived += len(recs)
		log.Info("dry run, nothing inserted", logx.Int("would_archive", len(recs)))
		return delta, nil
	}

	res, err := a.store.BulkInsertHistory(ctx, recs)
	delta.Archived += res.Inserted
	delta.Duplicates += res.Duplicates
	if err != nil {
		log.Error("history insert failed", logx.Err(err))
		retry := transientOnly(err)
		if retry == nil || !retryable {
			delta.Errors += len(recs) - res.Inserted - res.Duplicates
		}
		return delta, retry
	}
	if len(res.DuplicateIDs) > 0 {
		log.Debug("already archived", logx.Any("order_numbers", res.DuplicateIDs))
	}
	log.Info("records archived", logx.Int("archived", res.Inserted), logx.Int("duplicates", res.Duplicates))
	return delta, nil
}

func transientOnly(err error) error {
	if errors.Is(err, apperr.ErrTransient) {
		return err
	}
	return nil
}

// ExportSample writes the n most recent History records to path as indented JSON.
func (a *Archiver) ExportSample(ctx context.Context, path string, n int) (int, error) {
	recs, err := a.store.SampleHistory(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("sample history: %w", err)
	}
	if recs == nil {
		recs = []domain.HistoryRecord{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode sample: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write sample %s: %w", path, err)
	}
	a.logger.Info("sample exported", logx.String("path", path), logx.Int("records", len(recs)))
	return len(recs), nil
}
