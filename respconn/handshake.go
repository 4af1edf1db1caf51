package respconn

import (
	"context"
	"errors"
	"strconv"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/nlog"
	"github.com/aistorehq/vkclient/resp"
)

// performHandshake runs synchronously, before the writer/reader/correlator
// tasks start: protocol selection (HELLO, with RESP2 fallback on error),
// then optional AUTH, CLIENT SETNAME, and SELECT, in that order. Only
// after every issued step succeeds is the connection advertised Ready
// (§4.2 Handshake). It returns any bytes already read past the last
// handshake reply, to seed the reader task's staging buffer.
func performHandshake(ctx context.Context, c *Conn) (leftover []byte, err error) {
	var buf []byte

	if c.opts.PreferRESP3 {
		v, err := roundTrip(c, &buf, Encode("HELLO", []byte("3")))
		if err != nil {
			return nil, err
		}
		if v.Kind == resp.KindSimpleError || v.Kind == resp.KindBulkError {
			nlog.Infof("%s: HELLO 3 rejected (%s), continuing in RESP2", c, string(v.Bytes))
			c.dialect = RESP2
		} else {
			c.dialect = RESP3
		}
	} else {
		c.dialect = RESP2
	}

	if c.opts.Credentials.User != "" || c.opts.Credentials.Password != "" {
		var wire []byte
		if c.opts.Credentials.User != "" {
			wire = Encode("AUTH", []byte(c.opts.Credentials.User), []byte(c.opts.Credentials.Password))
		} else {
			wire = Encode("AUTH", []byte(c.opts.Credentials.Password))
		}
		v, err := roundTrip(c, &buf, wire)
		if err != nil {
			return nil, err
		}
		if err := asHandshakeErr(v); err != nil {
			return nil, err
		}
	}

	if c.clientName != "" {
		v, err := roundTrip(c, &buf, Encode("CLIENT", []byte("SETNAME"), []byte(c.clientName)))
		if err != nil {
			return nil, err
		}
		if err := asHandshakeErr(v); err != nil {
			return nil, err
		}
	}

	if c.dbIndex != 0 {
		v, err := roundTrip(c, &buf, Encode("SELECT", []byte(strconv.Itoa(c.dbIndex))))
		if err != nil {
			return nil, err
		}
		if err := asHandshakeErr(v); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

func asHandshakeErr(v resp.Value) error {
	if v.Kind == resp.KindSimpleError || v.Kind == resp.KindBulkError {
		return &cmn.ServerError{Text: string(v.Bytes)}
	}
	return nil
}

// roundTrip writes wire and synchronously reads exactly one frame,
// growing *buf as needed and leaving any unconsumed trailing bytes in
// *buf for the next roundTrip call or for the reader task to pick up.
func roundTrip(c *Conn, buf *[]byte, wire []byte) (resp.Value, error) {
	if _, err := c.rw.Write(wire); err != nil {
		return resp.Value{}, err
	}
	chunk := make([]byte, 4096)
	for {
		v, n, err := c.parser.Parse(*buf)
		if err == nil {
			*buf = (*buf)[n:]
			return v, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Value{}, &cmn.ProtocolError{Cause: err}
		}
		rn, err := c.rw.Read(chunk)
		if err != nil {
			return resp.Value{}, err
		}
		*buf = append(*buf, chunk[:rn]...)
	}
}
