// Package worker records query audit events delivered over AMQP.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"insights/internal/amqp"
	"insights/internal/core"
)

// QueryRecorder persists audit entries. Recording the same id twice must
// be harmless, since messages can be redelivered.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, audit core.QueryAudit) error
	CountQueries(ctx context.Context) (int64, error)
}

type AuditWorker struct {
	recorder QueryRecorder
}

func NewAuditWorker(recorder QueryRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandleQueryMessage records one audit message. A returned error makes the
// consumer requeue the message.
func (w *AuditWorker) HandleQueryMessage(ctx context.Context, msg *amqp.QueryRoutedMessage) error {
	audit := msg.Audit
	if audit.ID == "" {
		audit.ID = msg.ID
	}
	if audit.OccurredAt.IsZero() {
		audit.OccurredAt = msg.Timestamp
	}

	slog.DebugContext(ctx, "Processing query audit message",
		"event_id", audit.ID,
		"intent_kind", audit.Kind,
		"result_status", audit.Status)

	if err := w.recorder.RecordQuery(ctx, audit); err != nil {
		return fmt.Errorf("record query %s: %w", audit.ID, err)
	}
	return nil
}

// StartupCheck verifies the query log is reachable before consuming.
func (w *AuditWorker) StartupCheck(ctx context.Context) error {
	n, err := w.recorder.CountQueries(ctx)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	slog.InfoContext(ctx, "Query log ready", "recorded", n)
	return nil
}
