// Package txn implements the transaction batcher: a caller-side staging
// object that records commands with no I/O, then emits MULTI, every
// staged command, and EXEC as one contiguous write and splits the EXEC
// reply back into per-command results.
package txn

import (
	"context"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/resp"
	"github.com/aistorehq/vkclient/respconn"
)

// stagedCmd is one command recorded by Queue, not yet sent.
type stagedCmd struct {
	verb     string
	args     [][]byte
	blocking bool
}

// Tx stages commands against one connection and emits them as a single
// MULTI...EXEC block. A Tx is single-use: call Exec once, then discard it.
type Tx struct {
	conn   *respconn.Conn
	staged []stagedCmd
}

// New returns a Tx staging commands against conn. conn must not be shared
// with another concurrently-executing Tx; callers typically take a
// connection out of a pool for the duration of the transaction.
func New(conn *respconn.Conn) *Tx {
	return &Tx{conn: conn}
}

// Queue stages one command for the eventual MULTI...EXEC block. It
// performs no I/O and cannot fail.
func (t *Tx) Queue(verb string, args ...[]byte) {
	t.staged = append(t.staged, stagedCmd{verb: verb, args: args})
}

// QueueBlocking stages a blocking-family command (e.g. BLPOP); the
// blocking flag threads through to the connection core's submission so
// the writer still enqueues it FIFO (§4.2 Blocking commands), though in
// practice a blocking verb inside a MULTI never actually blocks the
// server — it behaves like its non-blocking counterpart.
func (t *Tx) QueueBlocking(verb string, args ...[]byte) {
	t.staged = append(t.staged, stagedCmd{verb: verb, args: args, blocking: true})
}

// Len reports how many commands are currently staged.
func (t *Tx) Len() int { return len(t.staged) }

// Exec marks the connection locked, emits MULTI, every staged command,
// and EXEC as one contiguous write via respconn.SubmitBatch (which
// enqueues all of them under one lock, keeping them contiguous in both
// the submission queue and the correlator's pending-handle queue), waits
// for every reply, discards the per-command QUEUED placeholders, and
// returns the EXEC array's elements in staged order (§4.3).
//
// If the server aborts the transaction (EXEC replies with a null array,
// typically because a WATCHed key changed), Exec returns a
// *cmn.TxAbortedError.
func (t *Tx) Exec(ctx context.Context) ([]resp.Value, error) {
	if len(t.staged) == 0 {
		return nil, nil
	}

	wires := make([][]byte, 0, len(t.staged)+2)
	blocking := make([]bool, 0, len(t.staged)+2)

	wires = append(wires, respconn.Encode("MULTI"))
	blocking = append(blocking, false)
	for _, cmd := range t.staged {
		wires = append(wires, respconn.Encode(cmd.verb, cmd.args...))
		blocking = append(blocking, cmd.blocking)
	}
	wires = append(wires, respconn.Encode("EXEC"))
	blocking = append(blocking, false)

	t.conn.Lock()
	defer t.conn.Unlock()

	handles := t.conn.SubmitBatch(blocking, wires)

	multiReply, err := handles[0].Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := asServerErr(multiReply); err != nil {
		return nil, err
	}

	for i := range t.staged {
		if _, err := handles[1+i].Wait(ctx); err != nil {
			return nil, err
		}
		// the QUEUED reply itself is discarded; an error reply at queue
		// time (e.g. unknown command) arrives from Wait as a
		// *cmn.ServerError and is returned above without waiting for EXEC.
	}

	execReply, err := handles[len(handles)-1].Wait(ctx)
	if err != nil {
		return nil, err
	}
	if err := asServerErr(execReply); err != nil {
		return nil, err
	}
	if execReply.IsNullish() {
		return nil, &cmn.TxAbortedError{}
	}
	return execReply.Arr, nil
}

func asServerErr(v resp.Value) error {
	if v.Kind == resp.KindSimpleError || v.Kind == resp.KindBulkError {
		return &cmn.ServerError{Text: string(v.Bytes)}
	}
	return nil
}
