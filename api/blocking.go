package api

import (
	"context"
	"strconv"
	"time"

	"github.com/aistorehq/vkclient/resp"
)

// formatTimeout renders a duration as the wire timeout argument the
// blocking-family commands expect: seconds, with fractional precision
// when the duration isn't a whole number of seconds, and "0" for "block
// indefinitely" (§4.2 Blocking commands: the caller's own context is the
// real escape hatch; the wire timeout is advisory to the server).
func formatTimeout(d time.Duration) []byte {
	if d <= 0 {
		return []byte("0")
	}
	return []byte(strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
}

// formatTimeoutMillis is formatTimeout for XREAD's BLOCK option, which
// (unlike the BLPOP/BRPOP/BLMOVE family) takes its timeout in milliseconds.
func formatTimeoutMillis(d time.Duration) []byte {
	if d <= 0 {
		return []byte("0")
	}
	return []byte(strconv.FormatInt(d.Milliseconds(), 10))
}

// BLPop blocks (up to timeout, or indefinitely if timeout<=0, or until
// ctx is done, whichever comes first) popping the first available
// element from any of keys. ok is false on a timeout with no element
// popped.
func (c *Client) BLPop(ctx context.Context, timeout time.Duration, keys ...string) (channel, value string, ok bool, err error) {
	return c.blockingPop(ctx, "BLPOP", timeout, keys)
}

// BRPop is BLPop popping from the tail instead of the head.
func (c *Client) BRPop(ctx context.Context, timeout time.Duration, keys ...string) (channel, value string, ok bool, err error) {
	return c.blockingPop(ctx, "BRPOP", timeout, keys)
}

func (c *Client) blockingPop(ctx context.Context, verb string, timeout time.Duration, keys []string) (channel, value string, ok bool, err error) {
	args := make([][]byte, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, []byte(k))
	}
	args = append(args, formatTimeout(timeout))
	v, err := c.do(ctx, verb, keys, args...)
	if err != nil {
		return "", "", false, err
	}
	if v.IsNullish() || len(v.Arr) < 2 {
		return "", "", false, nil
	}
	return v.Arr[0].String(), v.Arr[1].String(), true, nil
}

// BLMove blocks moving one element from src to dst (wherefrom/whereto
// are "LEFT" or "RIGHT"); ok is false on a timeout with nothing moved.
func (c *Client) BLMove(ctx context.Context, timeout time.Duration, src, dst, wherefrom, whereto string) (value string, ok bool, err error) {
	v, err := c.do(ctx, "BLMOVE", []string{src, dst},
		[]byte(src), []byte(dst), []byte(wherefrom), []byte(whereto), formatTimeout(timeout))
	if err != nil {
		return "", false, err
	}
	if v.IsNullish() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// StreamEntry is one entry of an XREAD reply: its ID and its flat
// field/value pairs.
type StreamEntry struct {
	ID     string
	Fields map[string]string
}

// StreamResult is one stream's worth of entries returned by XRead.
type StreamResult struct {
	Stream  string
	Entries []StreamEntry
}

// XRead blocks (per the same timeout rules as the Bxxx family) reading
// new entries appended after each stream's given last-seen ID. The
// streams map is stream name -> last-seen ID ("$" for "only new
// entries").
func (c *Client) XRead(ctx context.Context, timeout time.Duration, count int64, streams map[string]string) ([]StreamResult, error) {
	args := make([][]byte, 0, len(streams)*2+6)
	var keys []string
	if count > 0 {
		args = append(args, []byte("COUNT"), []byte(strconv.FormatInt(count, 10)))
	}
	args = append(args, []byte("BLOCK"), formatTimeoutMillis(timeout))
	args = append(args, []byte("STREAMS"))
	names := make([]string, 0, len(streams))
	ids := make([]string, 0, len(streams))
	for name, id := range streams {
		names = append(names, name)
		ids = append(ids, id)
		keys = append(keys, name)
	}
	for _, n := range names {
		args = append(args, []byte(n))
	}
	for _, id := range ids {
		args = append(args, []byte(id))
	}
	v, err := c.do(ctx, "XREAD", keys, args...)
	if err != nil {
		return nil, err
	}
	if v.IsNullish() {
		return nil, nil
	}
	return parseXReadReply(v), nil
}

func parseXReadReply(v resp.Value) []StreamResult {
	var out []StreamResult
	switch v.Kind {
	case resp.KindMap:
		for _, pair := range v.Map {
			out = append(out, StreamResult{Stream: pair.Field.String(), Entries: parseStreamEntries(pair.Val)})
		}
	case resp.KindArray:
		for _, item := range v.Arr {
			if len(item.Arr) != 2 {
				continue
			}
			out = append(out, StreamResult{Stream: item.Arr[0].String(), Entries: parseStreamEntries(item.Arr[1])})
		}
	}
	return out
}

func parseStreamEntries(v resp.Value) []StreamEntry {
	var entries []StreamEntry
	for _, e := range v.Arr {
		if len(e.Arr) != 2 {
			continue
		}
		entries = append(entries, StreamEntry{ID: e.Arr[0].String(), Fields: hashFromValue(e.Arr[1])})
	}
	return entries
}
