package app

import (
	"os"

	"delivery-orchestrator/internal/logx"
)

// NewLogger builds the JSON logger on stdout at level (debug|info|warn|error).
func NewLogger(level string) logx.Logger {
	return logx.NewJSON(os.Stdout, logx.ParseLevel(level))
}
