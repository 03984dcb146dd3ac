// Package feed turns committed graph mutations into an ordered event stream
// and moves it to in-process subscribers and, optionally, over the wire.
package feed

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Subject kinds.
const (
	KindVertex   = "vertex"
	KindEdge     = "edge"
	KindDocument = "document"
)

// Event is one committed mutation, as seen by feed consumers. Seq is
// assigned by the bus and is strictly increasing per bus.
type Event struct {
	Seq    uint64         `msgpack:"seq" json:"seq"`
	Op     string         `msgpack:"op" json:"op"`
	Kind   string         `msgpack:"kind" json:"kind"`
	Label  string         `msgpack:"label" json:"label"`
	Detail map[string]any `msgpack:"detail,omitempty" json:"detail,omitempty"`
	At     time.Time      `msgpack:"at" json:"at"`
}

// Encode serializes the event for the wire.
func (e *Event) Encode() ([]byte, error) {
	return msgpack.Marshal(e)
}

// Decode deserializes a wire event.
func Decode(data []byte) (*Event, error) {
	var e Event
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
