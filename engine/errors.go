package engine

import "fmt"

// kind identifies the disposition of a discarded packet, named for
// readable log fields rather than a bare numeric code.
type kind int

const (
	kindUnknownSource kind = iota
	kindCodecError
)

var kindName = map[kind]string{
	kindUnknownSource: "UnknownSource",
	kindCodecError:    "CodecError",
}

func (k kind) String() string {
	return kindName[k]
}

// ErrUnknownSource is returned by Process when a packet's
// source_router_id is neither a configured neighbor nor already known
// to the table. The packet is discarded and the event logged.
type ErrUnknownSource struct {
	Source uint16
}

func (e *ErrUnknownSource) Error() string {
	return fmt.Sprintf("engine: %s: router %d is not a configured neighbor", kindUnknownSource, e.Source)
}
