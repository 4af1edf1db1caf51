package respconn

import (
	"errors"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/nlog"
	"github.com/aistorehq/vkclient/resp"
)

// writerLoop drains the submission queue, and for each request pushes its
// Handle onto the correlator's pending queue BEFORE flushing the request's
// bytes to the transport — the invariant that makes wire reply order match
// handle-queue order (§4.2).
func (c *Conn) writerLoop() {
	defer c.wg.Done()
	for {
		req, ok := c.sendQ.pop()
		if !ok {
			return
		}
		// req.handle is nil for fire-and-forget writes (pubsub subscribe/
		// unsubscribe frames, whose acknowledgement arrives as a Push
		// frame and is never matched against the pending-handle queue;
		// see Conn.SubmitNoReply).
		if req.handle != nil {
			if req.blocking {
				c.blockingInFlight.Add(1)
				req.handle.onBlockingDone = func() { c.blockingInFlight.Add(-1) }
			}
			if !c.pendingQ.push(req.handle) {
				req.handle.fulfill(resp.Value{}, &cmn.ConnectionClosedError{Endpoint: c.Endpoint})
				return
			}
		}
		if _, err := c.rw.Write(req.wire); err != nil {
			c.Break(err)
			return
		}
	}
}

// readerLoop grows a staging buffer from the transport and repeatedly
// invokes the parser while complete frames are available, forwarding each
// to the correlator over frameCh. leftover carries any bytes already read
// during the handshake but not yet consumed.
func (c *Conn) readerLoop(leftover []byte) {
	defer c.wg.Done()
	defer close(c.frameCh)

	buf := leftover
	chunk := make([]byte, 16*1024)
	ceiling := c.opts.StagingBufferCeiling
	if ceiling <= 0 {
		ceiling = 16 * 1024
	}

	for {
		for {
			v, n, err := c.parser.Parse(buf)
			if err == nil {
				buf = buf[n:]
				select {
				case c.frameCh <- v:
				case <-c.doneCh:
					return
				}
				continue
			}
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			c.Break(&cmn.ProtocolError{Cause: err})
			return
		}

		if len(buf) > ceiling {
			c.Break(&cmn.ProtocolError{Cause: errStagingOverflow})
			return
		}

		n, err := c.rw.Read(chunk)
		if err != nil {
			c.Break(err)
			return
		}
		buf = append(buf, chunk[:n]...)
	}
}

var errStagingOverflow = &staticErr{"staging buffer exceeded ceiling before a complete frame arrived"}

type staticErr struct{ s string }

func (e *staticErr) Error() string { return e.s }

// correlatorLoop pops frames off frameCh and matches each one against the
// pending-handle queue in strict FIFO order, except Push-kind frames,
// which are forwarded out of band to PushSink (or dropped with a warning
// when none is registered) without touching the correlator (§4.2, §4.5).
// Attributes never arrive as frames of their own: the parser attaches them
// to the frame they annotate.
func (c *Conn) correlatorLoop() {
	defer c.wg.Done()
	for v := range c.frameCh {
		if v.Kind == resp.KindPush {
			if c.PushSink != nil {
				c.PushSink(v)
			} else {
				nlog.Warningf("%s: dropped unrouted push frame", c)
			}
			continue
		}
		h, ok := c.pendingQ.pop()
		if !ok {
			nlog.Warningf("%s: frame arrived with no pending handle", c)
			return
		}
		switch v.Kind {
		case resp.KindSimpleError, resp.KindBulkError:
			h.fulfill(resp.Value{}, &cmn.ServerError{Text: string(v.Bytes)})
		default:
			h.fulfill(v, nil)
		}
	}
}
