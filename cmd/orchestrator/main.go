package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"delivery-orchestrator/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := app.NewContainerBuilder(os.Args[1:]).MustBuildOrchestrator(ctx)
	app.NewRunner().MustRun(container)
}
