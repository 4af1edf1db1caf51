package pubsub

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
)

// fakePubSubServer accepts HELLO (replying with an empty RESP3 map, never
// an error, so the dispatcher always negotiates RESP3), SUBSCRIBE (replying
// with a subscribe-ack Push frame followed immediately by one published
// message Push frame), and UNSUBSCRIBE (replying with an unsubscribe-ack
// Push frame).
func fakePubSubServer(t *testing.T, side net.Conn) {
	t.Helper()
	go func() {
		p := resp.NewParser(resp.DefaultLimits())
		var buf []byte
		chunk := make([]byte, 4096)
		for {
			for {
				v, n, err := p.Parse(buf)
				if err == nil {
					buf = buf[n:]
					if v.Kind != resp.KindArray || len(v.Arr) == 0 {
						continue
					}
					verb := strings.ToUpper(v.Arr[0].String())
					switch verb {
					case "HELLO":
						side.Write([]byte("%0\r\n"))
					case "SUBSCRIBE":
						name := v.Arr[1].String()
						side.Write([]byte(">3\r\n$9\r\nsubscribe\r\n$" + itoa(len(name)) + "\r\n" + name + "\r\n:1\r\n"))
						side.Write([]byte(">3\r\n$7\r\nmessage\r\n$" + itoa(len(name)) + "\r\n" + name + "\r\n$5\r\nhello\r\n"))
					case "UNSUBSCRIBE":
						name := v.Arr[1].String()
						side.Write([]byte(">3\r\n$11\r\nunsubscribe\r\n$" + itoa(len(name)) + "\r\n" + name + "\r\n:0\r\n"))
					}
					continue
				}
				break
			}
			n, err := side.Read(chunk)
			if err != nil {
				return
			}
			buf = append(buf, chunk[:n]...)
		}
	}()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func TestSubscribeReceivesMessage(t *testing.T) {
	client, server := net.Pipe()
	fakePubSubServer(t, server)

	opts := cmn.DefaultOptions()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub, err := newSubscriberOverTransport(ctx, client, "pipe", opts, stats.NewRegistry())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sub.Close()

	msgs, err := sub.Subscribe("ch")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// The sink carries both the subscribe acknowledgement and published
	// messages; read until the data message arrives.
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-msgs:
			if m.Kind == "subscribe" {
				continue
			}
			if m.Channel != "ch" || string(m.Payload) != "hello" {
				t.Fatalf("unexpected message: %+v", m)
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for message")
		}
	}
}
