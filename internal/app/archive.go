package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/dig"

	"delivery-orchestrator/internal/config"
	"delivery-orchestrator/internal/events"
	"delivery-orchestrator/internal/logx"
	"delivery-orchestrator/internal/metrics"
	"delivery-orchestrator/internal/repository"
	"delivery-orchestrator/internal/service/archive"
)

// Exit codes of the archive CLI.
const (
	ExitOK          = 0
	ExitErrors      = 1
	ExitInterrupted = 130
)

// ArchiveArgs makes the file cursor the archiver default unless CURSOR_BACKEND is set.
// Later flags win, so an explicit --cursor-backend in args still applies.
func ArchiveArgs(args []string) []string {
	backend := strings.TrimSpace(os.Getenv("CURSOR_BACKEND"))
	if backend == "" {
		backend = config.CursorFile
	}
	return append([]string{"--cursor-backend=" + backend}, args...)
}

// MustBuildArchive builds the archiver container or exits.
func (b *ContainerBuilder) MustBuildArchive(ctx context.Context) *dig.Container {
	c, err := b.BuildArchive(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return c
}

// BuildArchive wires the archiver over the store.
func (b *ContainerBuilder) BuildArchive(ctx context.Context) (*dig.Container, error) {
	container := dig.New()
	if err := b.registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := b.registerStore(container); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := registerCursors(container); err != nil {
		return nil, fmt.Errorf("cursors: %w", err)
	}
	err := provideAll(container,
		func(cfg *config.Config, st Store, logger logx.Logger, c *metrics.Collectors) *archive.Archiver {
			return archive.NewArchiver(st, archive.Config{BatchSize: cfg.BatchSize, ArchivedBy: cfg.ArchivedBy()}, logger, c)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("archiver: %w", err)
	}
	return container, nil
}

// ErrWatchDisabled is returned by RunWatch when watch_enabled is false.
var ErrWatchDisabled = errors.New("live mode disabled by watch_enabled")

// BatchRequest is a batch run of the archive CLI.
type BatchRequest struct {
	Options      archive.BatchOptions
	ExportSample string
	SampleCount  int
}

// WatchRequest is a live run of the archive CLI.
type WatchRequest struct {
	Simple   bool
	NoResume bool
}

type archiveDeps struct {
	dig.In

	Ctx      context.Context
	Cfg      *config.Config
	Logger   logx.Logger
	Store    Store
	Cursors  events.CursorStore
	Archiver *archive.Archiver
	Close    storeCloser
}

// RunBatch archives every delivered order in range and optionally exports a sample.
func RunBatch(container *dig.Container, req BatchRequest) (archive.Stats, error) {
	var (
		stats  archive.Stats
		runErr error
	)
	err := container.Invoke(func(d archiveDeps) {
		defer closeStore(d)
		stats, runErr = d.Archiver.Batch(d.Ctx, req.Options)
		d.Logger.Info("batch archiving done", logx.String("stats", stats.String()))
		if runErr != nil || req.ExportSample == "" {
			return
		}
		n, err := d.Archiver.ExportSample(d.Ctx, req.ExportSample, req.SampleCount)
		if err != nil {
			runErr = err
			return
		}
		d.Logger.Info("sample exported", logx.String("path", req.ExportSample), logx.Int("records", n))
	})
	if err != nil {
		return stats, err
	}
	return stats, runErr
}

// RunWatch archives orders as they become delivered, until the context is done.
// The simple mode neither loads nor saves resume tokens. It fails with ErrWatchDisabled
// when live mode is turned off.
func RunWatch(container *dig.Container, req WatchRequest) (archive.Stats, error) {
	var (
		stats  archive.Stats
		runErr error
	)
	err := container.Invoke(func(d archiveDeps) {
		defer closeStore(d)
		if !d.Cfg.WatchEnabled {
			runErr = ErrWatchDisabled
			d.Logger.Error("watch refused", logx.Err(runErr))
			return
		}
		orders := repository.DefaultCollections().Orders

		cursors := d.Cursors
		sub := d.Archiver.Subscription(orders)
		if req.Simple {
			cursors = events.NewMemoryCursorStore()
			sub = d.Archiver.SimpleSubscription(orders)
		}
		r := events.NewRouter(d.Store, cursors, routerOptions(d.Cfg, !req.Simple && !req.NoResume), d.Logger, nil)
		if runErr = r.Subscribe(sub); runErr != nil {
			return
		}
		d.Logger.Info("watching delivered orders", logx.Bool("simple", req.Simple), logx.Bool("resume", !req.NoResume))
		runErr = r.Run(d.Ctx)
		stats = d.Archiver.Stats()
		d.Logger.Info("watch stopped", logx.String("stats", stats.String()))
	})
	if err != nil {
		return stats, err
	}
	return stats, runErr
}

func closeStore(d archiveDeps) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		d.Logger.Error("store close error", logx.Err(err))
	}
}

// ExitCode maps a run result to the CLI exit code.
func ExitCode(stats archive.Stats, err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case err != nil, stats.Errors > 0:
		return ExitErrors
	default:
		return ExitOK
	}
}
