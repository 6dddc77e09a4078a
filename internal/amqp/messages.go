package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"financas/internal/core"
)

var errIncompleteEvent = errors.New("record event missing kind, action or id")

// RecordEventToJSON encodes an event as a message body.
func RecordEventToJSON(ev core.RecordEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// RecordEventFromJSON decodes a message body, rejecting events that cannot
// be attributed to a record.
func RecordEventFromJSON(data []byte) (core.RecordEvent, error) {
	var ev core.RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("decode record event: %w", err)
	}
	if ev.Kind == "" || ev.Action == "" || ev.ID == "" {
		return ev, errIncompleteEvent
	}
	return ev, nil
}
