package core

import "time"

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// RecordEvent describes a committed mutation of a user's record.
type RecordEvent struct {
	Kind        Kind      `json:"kind"`
	Action      Action    `json:"action"`
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"descricao"`
	AmountCents int64     `json:"valorCents"`
	Date        time.Time `json:"data,omitzero"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecordEvent builds the event for rec after action was applied.
func NewRecordEvent[T Record[T]](action Action, rec T, at time.Time) RecordEvent {
	meta := rec.Metadata()
	sum := rec.Summary()
	return RecordEvent{
		Kind:        rec.Kind(),
		Action:      action,
		ID:          meta.ID,
		UserID:      meta.UserID,
		Description: sum.Description,
		AmountCents: sum.AmountCents,
		Date:        sum.Date,
		Timestamp:   at,
	}
}
