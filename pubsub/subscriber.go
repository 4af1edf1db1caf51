// Package pubsub implements the subscriber dispatcher: a dedicated
// connection (never multiplexing ordinary requests) whose incoming Push
// frames are fanned out to per-channel/per-pattern consumer sinks.
//
// A Subscriber requires RESP3: SUBSCRIBE/UNSUBSCRIBE acknowledgements and
// published messages both arrive as Push-kind frames, which is what lets
// the dispatcher tell them apart from ordinary command replies without
// any additional framing. Under RESP2 a message frame is an ordinary
// Array indistinguishable by Kind from a command reply, so Subscriber
// does not support it (§4.5).
package pubsub

import (
	"context"
	"strings"
	"sync"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/nlog"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
	"github.com/aistorehq/vkclient/respconn"
)

// Message is one published payload delivered to a subscriber sink, or a
// subscribe/unsubscribe acknowledgement (Kind "subscribe",
// "unsubscribe", "psubscribe", "punsubscribe").
type Message struct {
	Kind     string
	Channel  string
	Pattern  string
	Payload  []byte
	Count    int64 // subscription count, valid on acknowledgement kinds
}

// ErrRESP3Required is returned by Dial when the server does not support
// RESP3, since the dispatcher relies on Push-kind framing to distinguish
// messages from command replies.
var ErrRESP3Required = &cmn.ProtocolError{Cause: errString("server does not support RESP3; pubsub dispatch requires it")}

type errString string

func (e errString) Error() string { return string(e) }

// Subscriber owns one dedicated connection and fans its Push frames out
// to per-channel and per-pattern sinks.
type Subscriber struct {
	conn *respconn.Conn

	mu       sync.Mutex
	channels map[string]chan Message
	patterns map[string]chan Message
}

// Dial opens and handshakes a dedicated connection forced into RESP3,
// returning a ready Subscriber.
func Dial(ctx context.Context, endpoint string, opts cmn.Options, reg *stats.Registry) (*Subscriber, error) {
	tc, err := respconn.Dial(ctx, endpoint, opts.ConnectTimeout, opts.Keepalive)
	if err != nil {
		return nil, err
	}
	return newSubscriberOverTransport(ctx, tc, endpoint, opts, reg)
}

// newSubscriberOverTransport builds a Subscriber over an already-open
// transport, forcing RESP3 negotiation. Split out from Dial so tests can
// drive it over an in-memory pipe instead of a real socket.
func newSubscriberOverTransport(ctx context.Context, rw respconn.Transport, endpoint string, opts cmn.Options, reg *stats.Registry) (*Subscriber, error) {
	opts.PreferRESP3 = true
	conn := respconn.New(rw, endpoint, opts, reg)
	s := &Subscriber{
		conn:     conn,
		channels: make(map[string]chan Message),
		patterns: make(map[string]chan Message),
	}
	conn.PushSink = s.dispatch
	if err := conn.Start(ctx); err != nil {
		return nil, err
	}
	if conn.Dialect() != respconn.RESP3 {
		conn.Close()
		return nil, ErrRESP3Required
	}
	return s, nil
}

// Subscribe joins one or more channels and returns a sink delivering
// every message published to any of them. Re-subscribing to a channel
// already joined returns the same sink.
func (s *Subscriber) Subscribe(channels ...string) (<-chan Message, error) {
	return s.join("SUBSCRIBE", s.channels, channels...)
}

// PSubscribe joins one or more glob patterns.
func (s *Subscriber) PSubscribe(patterns ...string) (<-chan Message, error) {
	return s.join("PSUBSCRIBE", s.patterns, patterns...)
}

func (s *Subscriber) join(verb string, table map[string]chan Message, names ...string) (<-chan Message, error) {
	s.mu.Lock()
	var fresh []string
	var sink chan Message
	for _, name := range names {
		if ch, ok := table[name]; ok {
			sink = ch
			continue
		}
		fresh = append(fresh, name)
	}
	if sink == nil {
		sink = make(chan Message, 64)
	}
	for _, name := range fresh {
		table[name] = sink
	}
	s.mu.Unlock()

	if len(fresh) == 0 {
		return sink, nil
	}
	args := make([][]byte, len(fresh))
	for i, name := range fresh {
		args[i] = []byte(name)
	}
	if err := s.conn.SubmitNoReply(respconn.Encode(verb, args...)); err != nil {
		return nil, err
	}
	return sink, nil
}

// Unsubscribe leaves one or more channels, closing their sink once the
// server confirms (§4.5: "unsubscribing closes the sink").
func (s *Subscriber) Unsubscribe(channels ...string) error {
	return s.leave("UNSUBSCRIBE", s.channels, channels...)
}

// PUnsubscribe leaves one or more patterns.
func (s *Subscriber) PUnsubscribe(patterns ...string) error {
	return s.leave("PUNSUBSCRIBE", s.patterns, patterns...)
}

func (s *Subscriber) leave(verb string, table map[string]chan Message, names ...string) error {
	args := make([][]byte, len(names))
	for i, name := range names {
		args[i] = []byte(name)
	}
	return s.conn.SubmitNoReply(respconn.Encode(verb, args...))
}

// Close shuts down the underlying connection and closes every open sink.
func (s *Subscriber) Close() error {
	err := s.conn.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	closed := make(map[chan Message]struct{})
	for _, ch := range s.channels {
		if _, ok := closed[ch]; !ok {
			close(ch)
			closed[ch] = struct{}{}
		}
	}
	for _, ch := range s.patterns {
		if _, ok := closed[ch]; !ok {
			close(ch)
			closed[ch] = struct{}{}
		}
	}
	s.channels = map[string]chan Message{}
	s.patterns = map[string]chan Message{}
	return err
}

// dispatch is registered as the connection's PushSink and receives every
// Push-kind frame: [kind, channel-or-pattern, (pattern,) payload, ...].
func (s *Subscriber) dispatch(v resp.Value) {
	if v.Kind != resp.KindPush || len(v.Arr) < 2 {
		return
	}
	kind := strings.ToLower(v.Arr[0].String())
	switch kind {
	case "message":
		if len(v.Arr) < 3 {
			return
		}
		s.deliverChannel(v.Arr[1].String(), Message{Kind: kind, Channel: v.Arr[1].String(), Payload: v.Arr[2].Bytes})
	case "pmessage":
		if len(v.Arr) < 4 {
			return
		}
		pattern := v.Arr[1].String()
		s.deliverPattern(pattern, Message{Kind: kind, Pattern: pattern, Channel: v.Arr[2].String(), Payload: v.Arr[3].Bytes})
	case "subscribe", "unsubscribe":
		name := v.Arr[1].String()
		var count int64
		if len(v.Arr) > 2 {
			count = v.Arr[2].Int
		}
		s.ackChannel(kind, name, count)
	case "psubscribe", "punsubscribe":
		name := v.Arr[1].String()
		var count int64
		if len(v.Arr) > 2 {
			count = v.Arr[2].Int
		}
		s.ackPattern(kind, name, count)
	default:
		nlog.Warningf("pubsub: unrecognized push frame kind %q", kind)
	}
}

func (s *Subscriber) deliverChannel(name string, msg Message) {
	s.mu.Lock()
	ch := s.channels[name]
	s.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
		nlog.Warningf("pubsub: sink for channel %q full, dropping message", name)
	}
}

func (s *Subscriber) deliverPattern(pattern string, msg Message) {
	s.mu.Lock()
	ch := s.patterns[pattern]
	s.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
		nlog.Warningf("pubsub: sink for pattern %q full, dropping message", pattern)
	}
}

func (s *Subscriber) ackChannel(kind, name string, count int64) {
	s.mu.Lock()
	ch := s.channels[name]
	if kind == "unsubscribe" {
		delete(s.channels, name)
	}
	s.mu.Unlock()
	if ch == nil {
		return
	}
	if kind == "unsubscribe" && !s.stillReferenced(ch) {
		close(ch)
	} else {
		select {
		case ch <- Message{Kind: kind, Channel: name, Count: count}:
		default:
		}
	}
}

func (s *Subscriber) ackPattern(kind, name string, count int64) {
	s.mu.Lock()
	ch := s.patterns[name]
	if kind == "punsubscribe" {
		delete(s.patterns, name)
	}
	s.mu.Unlock()
	if ch == nil {
		return
	}
	if kind == "punsubscribe" && !s.stillReferenced(ch) {
		close(ch)
	} else {
		select {
		case ch <- Message{Kind: kind, Pattern: name, Count: count}:
		default:
		}
	}
}

// stillReferenced reports whether any channel/pattern name still maps to
// ch, i.e. it was shared by a prior multi-name Subscribe/PSubscribe call
// and should stay open until every name backing it has unsubscribed.
// Caller must not hold s.mu.
func (s *Subscriber) stillReferenced(ch chan Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.channels {
		if c == ch {
			return true
		}
	}
	for _, c := range s.patterns {
		if c == ch {
			return true
		}
	}
	return false
}
