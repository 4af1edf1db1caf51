package respconn

import "sync/atomic"

// State is a connection's lifecycle stage per §3 Connection state:
// New -> Handshaking -> Ready -> Closing -> Closed, with Ready -> Broken
// on an unrecoverable I/O error.
type State int32

const (
	StateNew State = iota
	StateHandshaking
	StateReady
	StateClosing
	StateClosed
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateHandshaking:
		return "Handshaking"
	case StateReady:
		return "Ready"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	case StateBroken:
		return "Broken"
	default:
		return "Unknown"
	}
}

type stateBox struct{ v atomic.Int32 }

func (b *stateBox) load() State    { return State(b.v.Load()) }
func (b *stateBox) store(s State)  { b.v.Store(int32(s)) }
func (b *stateBox) cas(old, new State) bool {
	return b.v.CompareAndSwap(int32(old), int32(new))
}

// Dialect is the negotiated RESP wire dialect.
type Dialect int32

const (
	RESP2 Dialect = 2
	RESP3 Dialect = 3
)
