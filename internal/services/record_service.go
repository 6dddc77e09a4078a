package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/core"
	"financas/internal/metrics"
	"financas/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrMissingID = errors.New("missing record id")
)

// RecordStore is the persistence one record kind needs. storage.Table
// satisfies it.
type RecordStore[T any] interface {
	List(ctx context.Context, userID string) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id, userID string) error
}

// Publisher announces committed mutations. amqp.Client satisfies it.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, ev core.RecordEvent) error
}

// Invalidator drops cached data derived from a user's records.
type Invalidator interface {
	Invalidate(userID string)
}

// Hooks are the side effects run after every committed mutation. Nil fields
// are skipped.
type Hooks struct {
	Publisher   Publisher
	Invalidator Invalidator
}

// RecordService orchestrates create/update/delete for one record kind: it
// assigns identity, enforces ownership and validation, persists, then runs hooks.
type RecordService[T core.Record[T]] struct {
	store RecordStore[T]
	hooks Hooks
	now   func() time.Time
	newID func() string
}

func NewRecordService[T core.Record[T]](store RecordStore[T], hooks Hooks) *RecordService[T] {
	return &RecordService[T]{
		store: store,
		hooks: hooks,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Kind reports the record kind the service manages.
func (s *RecordService[T]) Kind() core.Kind {
	var zero T
	return zero.Kind()
}

func (s *RecordService[T]) List(ctx context.Context, userID string) ([]T, error) {
	recs, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Kind(), err)
	}
	return recs, nil
}

// Create stores rec as a new record owned by userID. Any identity carried by
// rec is replaced.
func (s *RecordService[T]) Create(ctx context.Context, userID string, rec T) (T, error) {
	now := s.now().UTC()
	rec = rec.WithMeta(core.Meta{ID: s.newID(), UserID: userID, CreatedAt: now, UpdatedAt: now})
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return rec, fmt.Errorf("create %s: %w", s.Kind(), err)
	}
	s.committed(ctx, core.ActionCreated, rec)
	return rec, nil
}

// Update replaces the fields of the record id owned by userID. Records that do
// not exist or belong to someone else are reported as ErrNotFound.
func (s *RecordService[T]) Update(ctx context.Context, userID, id string, rec T) (T, error) {
	if id == "" {
		return rec, ErrMissingID
	}
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return rec, err
	}

	rec = rec.WithMeta(core.Meta{
		ID:        id,
		UserID:    userID,
		CreatedAt: existing.Metadata().CreatedAt,
		UpdatedAt: s.now().UTC(),
	})
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	if err := s.store.Update(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return rec, ErrNotFound
		}
		return rec, fmt.Errorf("update %s: %w", s.Kind(), err)
	}
	s.committed(ctx, core.ActionUpdated, rec)
	return rec, nil
}

// Delete removes the record id owned by userID.
func (s *RecordService[T]) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return ErrMissingID
	}
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", s.Kind(), err)
	}
	s.committed(ctx, core.ActionDeleted, existing)
	return nil
}

func (s *RecordService[T]) owned(ctx context.Context, userID, id string) (T, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s: %w", s.Kind(), err)
	}
	if rec.Metadata().UserID != userID {
		return rec, ErrNotFound
	}
	return rec, nil
}

func (s *RecordService[T]) committed(ctx context.Context, action core.Action, rec T) {
	metrics.RecordMutation(string(rec.Kind()), string(action))

	meta := rec.Metadata()
	if s.hooks.Invalidator != nil {
		s.hooks.Invalidator.Invalidate(meta.UserID)
	}
	if s.hooks.Publisher == nil {
		return
	}
	ev := core.NewRecordEvent(action, rec, s.now().UTC())
	if err := s.hooks.Publisher.PublishRecordEvent(ctx, ev); err != nil {
		// The mutation is already committed; the activity log lags behind.
		slog.ErrorContext(ctx, "Failed to publish record event",
			"kind", ev.Kind,
			"action", ev.Action,
			"id", ev.ID,
			"error", err)
	}
}
