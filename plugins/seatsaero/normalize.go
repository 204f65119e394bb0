package seatsaero

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the optional wrapper seats.aero puts around payloads
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Cursor  *FlexString     `json:"cursor"`
	HasMore *Tristate       `json:"hasMore"`
}

// page is a decoded body: the collection plus any pagination hints
type page[T any] struct {
	items   []T
	cursor  string
	hasMore bool
}

// unwrap returns the payload of body: its "data" member when body is an
// object carrying a non-null one, otherwise body itself.
func unwrap(body []byte) (json.RawMessage, envelope, error) {
	body = bytes.TrimSpace(body)
	var env envelope
	if len(body) == 0 || body[0] != '{' {
		return body, env, nil
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, env, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || string(data) == "null" {
		return body, env, nil
	}
	return data, env, nil
}

// toCollection decodes raw as a sequence of T. A single object becomes a
// one-element slice, null or empty input an empty one.
func toCollection[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}
	if raw[0] == '[' {
		items := []T{}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode collection: %w", err)
		}
		return items, nil
	}
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	return []T{item}, nil
}

// decodePage unwraps and normalizes a response body in one step
func decodePage[T any](body []byte) (*page[T], error) {
	payload, env, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	items, err := toCollection[T](payload)
	if err != nil {
		return nil, err
	}
	p := &page[T]{items: items}
	if env.Cursor != nil {
		p.cursor = env.Cursor.String()
	}
	if env.HasMore != nil {
		p.hasMore = env.HasMore.IsTrue()
	}
	return p, nil
}
