package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"financas/internal/core"
	"financas/internal/metrics"
	"financas/internal/sheets"
)

// ActivityWorker turns record events into activity log rows.
type ActivityWorker struct {
	writer sheets.ActivityWriter

	processed atomic.Int64
	failed    atomic.Int64
}

func NewActivityWorker(writer sheets.ActivityWriter) *ActivityWorker {
	return &ActivityWorker{writer: writer}
}

// HandleRecordEvent appends ev to the activity log. A returned error makes the
// consumer requeue the message.
func (w *ActivityWorker) HandleRecordEvent(ctx context.Context, ev core.RecordEvent) error {
	if w.writer == nil {
		return errors.New("no activity writer configured")
	}

	slog.InfoContext(ctx, "Processing record event",
		"kind", ev.Kind,
		"action", ev.Action,
		"id", ev.ID,
		"user_id", ev.UserID)

	ref, err := w.writer.AppendActivity(ctx, ev)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordActivityEvent(false)
		return fmt.Errorf("append activity: %w", err)
	}
	w.processed.Add(1)
	metrics.RecordActivityEvent(true)

	slog.InfoContext(ctx, "Activity row appended",
		"id", ev.ID,
		"row_ref", ref,
		"amount_cents", ev.AmountCents)
	return nil
}

// Stats returns the number of events appended and failed so far.
func (w *ActivityWorker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}
