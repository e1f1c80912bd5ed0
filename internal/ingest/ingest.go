// Package ingest supplies raw (29-bit CAN ID, payload) frames to the
// decoder from the two sources a deployed agent sees in practice: a
// Linux SocketCAN interface, and a serial adapter emitting candump-style
// text lines. Both sources converge on the same Frame/Source shape so
// cmd/j1939-agent does not need to know which one it is reading from.
package ingest

import "context"

// Frame is one raw CAN 2.0B extended frame as read off the wire, before
// any J1939 interpretation.
type Frame struct {
	ID      uint32 // 29-bit extended identifier
	Payload []byte // 0-8 data bytes
}

// Source produces a stream of Frames until ctx is canceled or a read
// error occurs. Implementations close the returned channel on exit.
type Source interface {
	Frames(ctx context.Context) (<-chan Frame, <-chan error)
}
