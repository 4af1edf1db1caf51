package respconn

import (
	"context"
	"sync"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/resp"
)

// Handle is a single-use completion token: a submitter awaits it, a reply
// (or connection failure) resolves it exactly once. Cancelling the
// caller's wait abandons interest but never cancels the outstanding wire
// request — the reply is still consumed by the correlator and discarded
// (§4.2 Submission, §5 Cancellation).
type Handle struct {
	ch   chan outcome
	once sync.Once

	// onBlockingDone, if set, is invoked exactly once when this handle is
	// fulfilled; it decrements Conn.blockingInFlight for requests the
	// writer marked as a blocking-family verb.
	onBlockingDone func()
}

type outcome struct {
	val resp.Value
	err error
}

func newHandle() *Handle {
	return &Handle{ch: make(chan outcome, 1)}
}

// fulfill resolves the handle exactly once; subsequent calls are no-ops,
// satisfying "fulfilled exactly once" even if the caller already timed out
// and stopped listening.
func (h *Handle) fulfill(v resp.Value, err error) {
	h.once.Do(func() {
		if h.onBlockingDone != nil {
			h.onBlockingDone()
		}
		h.ch <- outcome{val: v, err: err}
	})
}

// Wait blocks for the reply, or returns a TimeoutError if ctx is done
// first. The underlying wire reply is still read and discarded by the
// connection core regardless of which happens first.
func (h *Handle) Wait(ctx context.Context) (resp.Value, error) {
	select {
	case o := <-h.ch:
		return o.val, o.err
	case <-ctx.Done():
		return resp.Value{}, &cmn.TimeoutError{Op: "command reply"}
	}
}

// request is one staged command: its encoded wire bytes, a completion
// Handle (nil for SubmitNoReply), and whether it is a blocking verb
// (§4.2 Blocking commands — threaded through so the writer still enqueues
// it FIFO, leaving the caller's own timeout as the only escape).
type request struct {
	wire     []byte
	handle   *Handle
	blocking bool
}
