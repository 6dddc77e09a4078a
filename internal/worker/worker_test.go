package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/sheets/memory"
)

type failingWriter struct{}

func (failingWriter) AppendActivity(context.Context, core.RecordEvent) (string, error) {
	return "", errors.New("sheet unavailable")
}

func TestActivityWorker_HandleRecordEvent(t *testing.T) {
	store := memory.New(time.UTC)
	w := NewActivityWorker(store)

	ev := core.RecordEvent{
		Kind:        core.KindMonthlyBill,
		Action:      core.ActionCreated,
		ID:          "b1",
		UserID:      "u1",
		Description: "Internet",
		AmountCents: 9990,
		Timestamp:   time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := w.HandleRecordEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleRecordEvent: %v", err)
	}

	rows := store.Rows()
	if len(rows) != 1 || rows[0][3] != "Internet" || rows[0][6] != "b1" {
		t.Fatalf("rows = %v", rows)
	}
	if p, f := w.Stats(); p != 1 || f != 0 {
		t.Errorf("stats = %d, %d", p, f)
	}
}

func TestActivityWorker_Errors(t *testing.T) {
	tests := []struct {
		name   string
		worker *ActivityWorker
	}{
		{"no writer", NewActivityWorker(nil)},
		{"writer failure", NewActivityWorker(failingWriter{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.worker.HandleRecordEvent(context.Background(), core.RecordEvent{ID: "x"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	w := NewActivityWorker(failingWriter{})
	w.HandleRecordEvent(context.Background(), core.RecordEvent{})
	if _, f := w.Stats(); f != 1 {
		t.Errorf("failed = %d, want 1", f)
	}
}

type countingPruner struct {
	calls atomic.Int32
}

func (p *countingPruner) Prune(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, nil
}

func TestSessionJanitor_Lifecycle(t *testing.T) {
	pruner := &countingPruner{}
	j := NewSessionJanitor(pruner, 10*time.Millisecond)
	ctx := context.Background()

	if j.IsRunning() {
		t.Fatal("janitor should not run before Start")
	}
	if err := j.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := j.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for pruner.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pruner.calls.Load() < 2 {
		t.Fatalf("prune calls = %d, want at least 2", pruner.calls.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := j.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if j.IsRunning() {
		t.Fatal("janitor still running after Stop")
	}
	if err := j.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	if err := j.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	j.Stop(stopCtx)
}
