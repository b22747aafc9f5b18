package model

// Event is one line of the run's append-only event log. Events are
// heterogeneous by design (every tool call contributes different fields),
// so the wire shape is a plain map with two required keys, "event" and
// "timestamp", rather than a fixed struct.
type Event map[string]any

// NewEvent builds an Event with the required "event" and "timestamp" keys
// plus any additional fields. fields may be nil.
func NewEvent(name, timestampRFC3339 string, fields map[string]any) Event {
	e := make(Event, len(fields)+2)
	for k, v := range fields {
		e[k] = v
	}
	e["event"] = name
	e["timestamp"] = timestampRFC3339
	return e
}
