package tracker

import (
	"context"

	"github.com/vantra/vantra/infrastructure/service/logger"
)

// Tracker is the audit/error sink for the trust core. It is chosen once
// at startup and injected; request-handling code never checks which
// variant it holds.
type Tracker interface {
	CaptureError(ctx context.Context, err error, fields map[string]interface{})
	CaptureEvent(ctx context.Context, event string, fields map[string]interface{})
}

type loggerTracker struct {
	logger logger.Logger
}

// NewLoggerTracker reports captured errors and events through the
// structured logger.
func NewLoggerTracker(log logger.Logger) Tracker {
	return &loggerTracker{logger: log}
}

func (t *loggerTracker) CaptureError(ctx context.Context, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["tracked"] = true
	t.logger.Error(ctx, "Tracked error", err, fields)
}

func (t *loggerTracker) CaptureEvent(ctx context.Context, event string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["tracked"] = true
	t.logger.Info(ctx, event, fields)
}

type noopTracker struct{}

// NewNoopTracker returns a Tracker that drops everything.
func NewNoopTracker() Tracker {
	return &noopTracker{}
}

func (n *noopTracker) CaptureError(ctx context.Context, err error, fields map[string]interface{}) {}

func (n *noopTracker) CaptureEvent(ctx context.Context, event string, fields map[string]interface{}) {
}
