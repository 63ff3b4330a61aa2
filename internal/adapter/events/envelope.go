package events

import (
	"encoding/json"
	"fmt"

	"tuichain-backend/internal/domain/events"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(e events.Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.Type, err)
	}
	return json.Marshal(envelope{Type: string(e.Type), Payload: payload})
}

// Decode unwraps an envelope written by one of the publishers.
func Decode(b []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return events.Event{}, err
	}
	var e events.Event
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return events.Event{}, err
	}
	return e, nil
}
