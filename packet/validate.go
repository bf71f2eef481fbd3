package packet

import "fmt"

// ErrInvalidCommand is returned when command != Command.
type ErrInvalidCommand struct{ Got int }

func (e *ErrInvalidCommand) Error() string {
	return fmt.Sprintf("packet: invalid command %d, want %d", e.Got, Command)
}

// ErrInvalidVersion is returned when version != Version.
type ErrInvalidVersion struct{ Got int }

func (e *ErrInvalidVersion) Error() string {
	return fmt.Sprintf("packet: invalid version %d, want %d", e.Got, Version)
}

// ErrLengthOutOfRange is returned when a message carries more than
// MaxEntries entries.
type ErrLengthOutOfRange struct{ Got int }

func (e *ErrLengthOutOfRange) Error() string {
	return fmt.Sprintf("packet: %d entries exceeds maximum of %d", e.Got, MaxEntries)
}

// ErrInvalidMetric is returned when an entry's metric falls outside
// [1, 16], or its destination falls outside [1, 64000]; the latter
// shares this error kind rather than getting one of its own.
type ErrInvalidMetric struct {
	Destination uint16
	Metric      int
}

func (e *ErrInvalidMetric) Error() string {
	return fmt.Sprintf("packet: destination %d has invalid metric %d", e.Destination, e.Metric)
}

// Validate checks a decoded Message's structural rules and returns a
// trimmed copy with any self-advertisement entry removed: an entry
// whose destination equals selfID is dropped silently, taking only
// that entry with it, not the whole packet. Any other rule violation
// fails the whole message.
func Validate(m Message, selfID uint16) (Message, error) {
	if m.Command != Command {
		return Message{}, &ErrInvalidCommand{Got: m.Command}
	}
	if m.Version != Version {
		return Message{}, &ErrInvalidVersion{Got: m.Version}
	}
	if len(m.Entries) > MaxEntries {
		return Message{}, &ErrLengthOutOfRange{Got: len(m.Entries)}
	}

	kept := make([]Entry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Metric < 1 || e.Metric > 16 {
			return Message{}, &ErrInvalidMetric{Destination: e.Destination, Metric: e.Metric}
		}
		if e.Destination < 1 || e.Destination > 64000 {
			return Message{}, &ErrInvalidMetric{Destination: e.Destination, Metric: e.Metric}
		}
		if e.Destination == selfID {
			continue // SelfAdvertisement: drop the entry, keep the packet
		}
		kept = append(kept, e)
	}
	m.Entries = kept
	return m, nil
}
