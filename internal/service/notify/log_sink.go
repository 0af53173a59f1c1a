package notify

import (
	"context"

	"delivery-orchestrator/internal/domain"
	"delivery-orchestrator/internal/logx"
)

// LogSink writes every delivered notification to the log. It is the sink of deployments
// without a message transport.
type LogSink struct {
	logger logx.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger logx.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, channel string, n domain.Notification) error {
	s.logger.Info("notification",
		logx.Event("notification_sent"),
		logx.OrderID(n.OrderID),
		logx.String("channel", channel),
		logx.String("kind", string(n.Kind)),
		logx.Any("payload", n.Payload),
	)
	return nil
}
