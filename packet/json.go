package packet

import (
	"encoding/json"
	"fmt"
)

// JSONCodec implements the reference wire encoding: a JSON object with
// keys "command", "version", "router_id", and "entry1".."entryN". An
// empty object in "entry1" denotes zero entries.
type JSONCodec struct{}

type jsonEntry struct {
	Destination *uint16 `json:"destination_router_id,omitempty"`
	Metric      *int    `json:"metric,omitempty"`
}

// Encode renders m as the reference JSON wire form.
func (JSONCodec) Encode(m Message) ([]byte, error) {
	raw := map[string]interface{}{
		"command":   m.Command,
		"version":   m.Version,
		"router_id": m.RouterID,
	}
	if len(m.Entries) == 0 {
		raw["entry1"] = jsonEntry{}
	} else {
		for i, e := range m.Entries {
			d, v := e.Destination, e.Metric
			raw[fmt.Sprintf("entry%d", i+1)] = jsonEntry{Destination: &d, Metric: &v}
		}
	}
	return json.Marshal(raw)
}

// Decode parses the reference JSON wire form. It returns
// ErrMalformedPacket if b is not a JSON object, if a field or entry
// has the wrong JSON type, or if an entry carries only one of its two
// keys; out-of-range values (bad command, bad version, too many
// entries, bad metric) are left to Validate.
func (JSONCodec) Decode(b []byte) (Message, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return Message{}, &ErrMalformedPacket{Reason: err.Error()}
	}

	var m Message
	if v, ok := raw["command"]; ok {
		if err := json.Unmarshal(v, &m.Command); err != nil {
			return Message{}, &ErrMalformedPacket{Reason: "command: " + err.Error()}
		}
	}
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &m.Version); err != nil {
			return Message{}, &ErrMalformedPacket{Reason: "version: " + err.Error()}
		}
	}
	if v, ok := raw["router_id"]; ok {
		if err := json.Unmarshal(v, &m.RouterID); err != nil {
			return Message{}, &ErrMalformedPacket{Reason: "router_id: " + err.Error()}
		}
	}

	for i := 1; ; i++ {
		v, ok := raw[fmt.Sprintf("entry%d", i)]
		if !ok {
			break
		}
		var je jsonEntry
		if err := json.Unmarshal(v, &je); err != nil {
			return Message{}, &ErrMalformedPacket{Reason: fmt.Sprintf("entry%d: %s", i, err.Error())}
		}
		if je.Destination == nil && je.Metric == nil {
			continue // empty placeholder entry: hello, not a real route
		}
		if je.Destination == nil || je.Metric == nil {
			return Message{}, &ErrMalformedPacket{Reason: fmt.Sprintf("entry%d: incomplete entry", i)}
		}
		m.Entries = append(m.Entries, Entry{Destination: *je.Destination, Metric: *je.Metric})
	}

	return m, nil
}
