package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// SessionPruner deletes expired sessions.
type SessionPruner interface {
	Prune(ctx context.Context) (int64, error)
}

// SessionJanitor prunes expired sessions on a fixed interval.
type SessionJanitor struct {
	pruner   SessionPruner
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSessionJanitor(pruner SessionPruner, interval time.Duration) *SessionJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionJanitor{pruner: pruner, interval: interval}
}

// Start begins the prune loop. It returns an error if already running.
func (j *SessionJanitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return errors.New("session janitor is already running")
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	stopCh, doneCh := j.stopCh, j.doneCh
	j.mu.Unlock()

	go j.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Session janitor started", "interval", j.interval)
	return nil
}

// Stop signals the loop and waits for it to exit or for ctx to expire.
func (j *SessionJanitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = false
	stopCh, doneCh := j.stopCh, j.doneCh
	j.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Session janitor stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Session janitor stop timed out")
		return ctx.Err()
	}
}

func (j *SessionJanitor) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *SessionJanitor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.prune(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.prune(ctx)
		}
	}
}

func (j *SessionJanitor) prune(ctx context.Context) {
	n, err := j.pruner.Prune(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to prune sessions", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned expired sessions", "count", n)
	}
}
