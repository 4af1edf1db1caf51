// Package respconn implements the connection core: a three-task pump
// (writer, reader, correlator) that multiplexes concurrently submitted
// requests over one full-duplex byte transport and correlates replies
// back to callers strictly in FIFO submission order.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package respconn

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teris-io/shortid"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/nlog"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
)

var sid = shortid.MustNew(1, shortid.DEFAULT_ABC, 0xC0FFEE)

// Conn is one connection's full lifecycle: handshake, the writer/reader/
// correlator pump, and request submission. It implements State per
// spec.md §3: New -> Handshaking -> Ready -> Closing -> Closed, with
// Ready -> Broken on unrecoverable I/O error.
type Conn struct {
	id       string
	Endpoint string

	rw     Transport
	opts   cmn.Options
	parser *resp.Parser

	state   stateBox
	dialect Dialect // written only during handshake, read-only thereafter

	clientName string
	dbIndex    int

	sendQ    *fifo[*request]
	pendingQ *fifo[*Handle]
	frameCh  chan resp.Value

	submitMu sync.Mutex
	locked   atomic.Bool

	// PushSink, if set before Start, receives every Push-kind frame instead
	// of it being matched against a pending handle (§4.2 correlator
	// out-of-band rule). Attributes are not routed here: the parser attaches
	// them to the frame they annotate (Value.Attr).
	PushSink func(resp.Value)

	stats *stats.Registry

	blockingInFlight atomic.Int32

	doneOnce sync.Once
	doneCh   chan struct{}
	breakErr atomic.Pointer[error]

	wg sync.WaitGroup
}

// New wraps an already-dialed transport. Call Start to run the handshake
// and begin the writer/reader/correlator pump.
func New(rw Transport, endpoint string, opts cmn.Options, reg *stats.Registry) *Conn {
	c := &Conn{
		id:       sid.MustGenerate(),
		Endpoint: endpoint,
		rw:       rw,
		opts:     opts,
		parser: resp.NewParser(resp.Limits{
			MaxDepth:    opts.ParserMaxDepth,
			MaxElements: opts.ParserMaxElements,
			MaxBulkLen:  opts.ParserMaxBulk,
		}),
		clientName: opts.ClientName,
		dbIndex:    opts.DatabaseIndex,
		sendQ:      newFifo[*request](opts.SubmissionQueueBound),
		pendingQ:   newFifo[*Handle](0),
		frameCh:    make(chan resp.Value, 256),
		stats:      reg,
		doneCh:     make(chan struct{}),
	}
	c.state.store(StateNew)
	return c
}

func (c *Conn) String() string { return c.id + "@" + c.Endpoint }

// State returns the connection's current lifecycle stage.
func (c *Conn) State() State { return c.state.load() }

// Dialect returns the negotiated wire dialect, valid once State() >= Ready.
func (c *Conn) Dialect() Dialect { return c.dialect }

// Start runs the handshake synchronously and, on success, launches the
// writer/reader/correlator tasks and advertises the connection Ready.
func (c *Conn) Start(ctx context.Context) error {
	if !c.state.cas(StateNew, StateHandshaking) {
		return errAlreadyStarted
	}
	started := time.Now()
	leftover, err := performHandshake(ctx, c)
	if err != nil {
		c.state.store(StateBroken)
		c.rw.Close()
		return err
	}
	c.wg.Add(3)
	c.state.store(StateReady)
	if c.stats != nil {
		c.stats.HandshakeLatency.Observe(time.Since(started).Seconds())
		c.stats.ConnectionsOpen.Inc()
		c.stats.ConnectionsTotal.Inc()
	}
	go c.writerLoop()
	go c.readerLoop(leftover)
	go c.correlatorLoop()
	return nil
}

var errAlreadyStarted = &cmn.ConnectionClosedError{Endpoint: "conn already started or closed"}

// Locked reports whether a transaction batch is currently being emitted on
// this connection (§4.3).
func (c *Conn) Locked() bool { return c.locked.Load() }

// Lock marks the connection as exclusively owned by an in-flight
// transaction emission; Unlock clears it. Exposed for the txn package.
func (c *Conn) Lock()   { c.locked.Store(true) }
func (c *Conn) Unlock() { c.locked.Store(false) }

// BlockingInFlight reports how many submitted requests marked as
// blocking-family verbs (BLPOP, BRPOP, BLMOVE, XREAD with BLOCK, ...)
// have not yet completed. Callers that need to bound how long Close can
// take can poll this before deciding whether to wait it out or to cancel
// the outstanding callers' contexts instead (§4.2 Blocking commands).
func (c *Conn) BlockingInFlight() int32 { return c.blockingInFlight.Load() }

// SubmitMu exposes the enqueue-ordering mutex that SubmitAsync,
// SubmitNoReply and SubmitBatch hold around their pushes onto the send
// queue. txn.Tx does not take it; it keeps MULTI/staged/EXEC contiguous
// through SubmitBatch (§4.3).
func (c *Conn) SubmitMu() *sync.Mutex { return &c.submitMu }

// Encode builds the wire bytes for a command using this connection's
// parser limits' sibling writer (stateless; exposed so callers can build
// requests for SubmitBatch without reaching into the resp package
// directly).
func Encode(verb string, args ...[]byte) []byte {
	return resp.EncodeCommand(nil, verb, args...)
}

// Submit encodes and sends one command, waiting for its reply (or ctx
// cancellation, or the connection breaking). blocking marks one of the
// §6 "blocking verbs" so the writer still enqueues it FIFO.
func (c *Conn) Submit(ctx context.Context, blocking bool, verb string, args ...[]byte) (resp.Value, error) {
	h := c.SubmitAsync(blocking, Encode(verb, args...))
	return h.Wait(ctx)
}

// SubmitAsync enqueues one pre-encoded wire request and returns its Handle
// immediately without waiting.
func (c *Conn) SubmitAsync(blocking bool, wire []byte) *Handle {
	h := newHandle()
	st := c.state.load()
	if st == StateBroken || st == StateClosed || st == StateClosing {
		h.fulfill(resp.Value{}, &cmn.ConnectionClosedError{Endpoint: c.Endpoint})
		return h
	}
	req := &request{wire: wire, handle: h, blocking: blocking}
	c.submitMu.Lock()
	ok := c.sendQ.push(req)
	c.submitMu.Unlock()
	if !ok {
		h.fulfill(resp.Value{}, &cmn.ConnectionClosedError{Endpoint: c.Endpoint})
	}
	return h
}

// SubmitNoReply enqueues a pre-encoded wire request with no completion
// handle: the writer still emits it in FIFO order with everything else
// submitted on this connection, but nothing is pushed onto the
// correlator's pending queue for it. Used by the subscriber dispatcher,
// whose SUBSCRIBE/UNSUBSCRIBE acknowledgements arrive as Push frames and
// are never matched against a pending handle (§4.5).
func (c *Conn) SubmitNoReply(wire []byte) error {
	st := c.state.load()
	if st == StateBroken || st == StateClosed || st == StateClosing {
		return &cmn.ConnectionClosedError{Endpoint: c.Endpoint}
	}
	req := &request{wire: wire, handle: nil}
	c.submitMu.Lock()
	ok := c.sendQ.push(req)
	c.submitMu.Unlock()
	if !ok {
		return &cmn.ConnectionClosedError{Endpoint: c.Endpoint}
	}
	return nil
}

// SubmitBatch atomically enqueues every wire in order as one contiguous
// run — no other submitter's request can land between them — and returns
// one Handle per wire in the same order. Used by the transaction batcher
// to keep MULTI/staged-commands/EXEC contiguous on the wire (§4.3).
func (c *Conn) SubmitBatch(blockingFlags []bool, wires [][]byte) []*Handle {
	handles := make([]*Handle, len(wires))
	reqs := make([]*request, len(wires))
	for i, w := range wires {
		handles[i] = newHandle()
		blocking := false
		if i < len(blockingFlags) {
			blocking = blockingFlags[i]
		}
		reqs[i] = &request{wire: w, handle: handles[i], blocking: blocking}
	}
	c.submitMu.Lock()
	ok := c.sendQ.pushAll(reqs)
	c.submitMu.Unlock()
	if !ok {
		for _, h := range handles {
			h.fulfill(resp.Value{}, &cmn.ConnectionClosedError{Endpoint: c.Endpoint})
		}
	}
	return handles
}

// Close begins a graceful shutdown: no new submissions are accepted, the
// writer/reader/correlator drain and exit, and the transport is closed.
func (c *Conn) Close() error {
	c.state.store(StateClosing)
	c.sendQ.close()
	err := c.rw.Close()
	c.wg.Wait()
	c.state.store(StateClosed)
	c.markDone()
	return err
}

// Done returns a channel closed once the connection has transitioned to
// Broken or Closed and every background task has exited.
func (c *Conn) Done() <-chan struct{} { return c.doneCh }

func (c *Conn) markDone() {
	c.doneOnce.Do(func() { close(c.doneCh) })
}

// Break transitions the connection to Broken, drains every pending handle
// with a ConnectionLostError, and closes the transport. Safe to call
// concurrently and more than once; only the first call has effect.
func (c *Conn) Break(cause error) {
	if !c.state.cas(StateReady, StateBroken) && !c.state.cas(StateHandshaking, StateBroken) {
		return
	}
	nlog.Warningf("%s: connection broken: %v", c, cause)
	if c.stats != nil {
		c.stats.ConnectionsLost.Inc()
		c.stats.ConnectionsOpen.Dec()
	}
	bc := cause
	c.breakErr.Store(&bc)
	c.rw.Close()
	c.sendQ.close()
	lostErr := &cmn.ConnectionLostError{Endpoint: c.Endpoint, Cause: cause}
	for _, req := range c.sendQ.drain() {
		if req.handle != nil {
			req.handle.fulfill(resp.Value{}, lostErr)
		}
	}
	for _, h := range c.pendingQ.drain() {
		h.fulfill(resp.Value{}, lostErr)
	}
	go func() {
		c.wg.Wait()
		c.markDone()
	}()
}
