package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"delivery-orchestrator/internal/app"
	"delivery-orchestrator/internal/service/archive"
)

const usage = `usage:
  archive batch [--dry-run] [--from DATE] [--to DATE] [--batch-size N] [--export-sample FILE [--sample-count N]]
  archive watch [--simple] [--no-resume]

common flags: --verbose, --log-level, --mongodb-uri, --database, --cursor-backend, --resume-token-path
dates: 2006-01-02, "2006-01-02 15:04:05", 02/01/2006, "02/01/2006 15:04:05"
`

type cliFlags struct {
	verbose      bool
	dryRun       bool
	from, to     string
	batchSize    int
	exportSample string
	sampleCount  int
	simple       bool
	noResume     bool
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := pflag.NewFlagSet("archive", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	// config flags are parsed by config.Load
	fs.ParseErrorsWhitelist.UnknownFlags = true

	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVar(&f.dryRun, "dry-run", false, "find and enrich without inserting")
	fs.StringVar(&f.from, "from", "", "oldest order creation date")
	fs.StringVar(&f.to, "to", "", "newest order creation date, inclusive (a bare date covers the whole day)")
	fs.IntVar(&f.batchSize, "batch-size", 0, "orders per page")
	fs.StringVar(&f.exportSample, "export-sample", "", "write the latest history records to FILE")
	fs.IntVar(&f.sampleCount, "sample-count", 5, "records in the exported sample")
	fs.BoolVar(&f.simple, "simple", false, "no resume tokens, log every order change")
	fs.BoolVar(&f.noResume, "no-resume", false, "ignore the saved resume token")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

func batchRequest(f cliFlags) (app.BatchRequest, error) {
	req := app.BatchRequest{
		Options:      archive.BatchOptions{BatchSize: f.batchSize, DryRun: f.dryRun},
		ExportSample: f.exportSample,
		SampleCount:  f.sampleCount,
	}
	if f.from != "" {
		t, err := archive.ParseDate(f.from)
		if err != nil {
			return req, fmt.Errorf("--from: %w", err)
		}
		req.Options.From = &t
	}
	if f.to != "" {
		t, err := archive.ParseEndDate(f.to)
		if err != nil {
			return req, fmt.Errorf("--to: %w", err)
		}
		req.Options.To = &t
	}
	return req, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || (args[0] != "batch" && args[0] != "watch") {
		fmt.Fprint(os.Stderr, usage)
		return app.ExitErrors
	}
	cmd, rest := args[0], args[1:]

	f, err := parseFlags(rest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "archive: %v\n\n%s", err, usage)
		return app.ExitErrors
	}
	cfgArgs := app.ArchiveArgs(rest)
	if f.verbose {
		cfgArgs = append(cfgArgs, "--log-level=debug")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := app.NewContainerBuilder(cfgArgs).MustBuildArchive(ctx)

	var stats archive.Stats
	switch cmd {
	case "batch":
		req, err := batchRequest(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "archive: %v\n", err)
			return app.ExitErrors
		}
		stats, err = app.RunBatch(container, req)
		return report(stats, err)
	default:
		stats, err = app.RunWatch(container, app.WatchRequest{Simple: f.simple, NoResume: f.noResume})
		return report(stats, err)
	}
}

func report(stats archive.Stats, err error) int {
	code := app.ExitCode(stats, err)
	switch code {
	case app.ExitInterrupted:
		fmt.Fprintf(os.Stderr, "interrupted: %s\n", stats)
	case app.ExitErrors:
		if err != nil {
			fmt.Fprintf(os.Stderr, "archive failed: %v (%s)\n", err, stats)
		} else {
			fmt.Fprintf(os.Stderr, "archive finished with errors: %s\n", stats)
		}
	default:
		fmt.Println(stats)
	}
	return code
}
