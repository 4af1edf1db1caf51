package api

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
	"github.com/aistorehq/vkclient/respconn"
)

func fakeServer(t *testing.T, side net.Conn, handle func(verb string, args [][]byte) []byte) {
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
					args := make([][]byte, len(v.Arr)-1)
					for i := 1; i < len(v.Arr); i++ {
						args[i-1] = v.Arr[i].Bytes
					}
					reply := handle(verb, args)
					if reply == nil {
						return
					}
					if _, err := side.Write(reply); err != nil {
						return
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

func newTestClient(t *testing.T, handle func(string, [][]byte) []byte) *Client {
	t.Helper()
	client, server := net.Pipe()
	fakeServer(t, server, func(verb string, args [][]byte) []byte {
		switch verb {
		case "HELLO":
			return []byte("-ERR unknown command 'HELLO'\r\n")
		case "AUTH", "CLIENT", "SELECT":
			return []byte("+OK\r\n")
		default:
			return handle(verb, args)
		}
	})
	conn := respconn.New(client, "pipe", cmn.DefaultOptions(), stats.NewRegistry())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewDirect(conn)
}

func TestGetFoundAndMissing(t *testing.T) {
	c := newTestClient(t, func(verb string, args [][]byte) []byte {
		if string(args[0]) == "present" {
			return []byte("$5\r\nhello\r\n")
		}
		return []byte("$-1\r\n")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	v, ok, err := c.Get(ctx, "present")
	if err != nil || !ok || v != "hello" {
		t.Fatalf("got %q, %v, %v", v, ok, err)
	}
	_, ok, err = c.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("expected ok=false for missing key, got %v, %v", ok, err)
	}
}

func TestDelAndExpireAndIncr(t *testing.T) {
	c := newTestClient(t, func(verb string, args [][]byte) []byte {
		switch verb {
		case "DEL":
			return []byte(":2\r\n")
		case "EXPIRE":
			return []byte(":1\r\n")
		case "INCR":
			return []byte(":42\r\n")
		}
		return []byte("-ERR unexpected\r\n")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n, err := c.Del(ctx, "a", "b")
	if err != nil || n != 2 {
		t.Fatalf("Del: %v, %v", n, err)
	}
	ok, err := c.Expire(ctx, "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expire: %v, %v", ok, err)
	}
	v, err := c.Incr(ctx, "ctr")
	if err != nil || v != 42 {
		t.Fatalf("Incr: %v, %v", v, err)
	}
}

func TestHGetAllBothShapes(t *testing.T) {
	flat := newTestClient(t, func(verb string, args [][]byte) []byte {
		return []byte("*4\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\nb\r\n$1\r\n2\r\n")
	})
	asMap := newTestClient(t, func(verb string, args [][]byte) []byte {
		return []byte("%2\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\nb\r\n$1\r\n2\r\n")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, c := range []*Client{flat, asMap} {
		m, err := c.HGetAll(ctx, "h")
		if err != nil {
			t.Fatalf("HGetAll: %v", err)
		}
		if m["a"] != "1" || m["b"] != "2" {
			t.Fatalf("got %v", m)
		}
	}
}

func TestBLPopTimesOut(t *testing.T) {
	c := newTestClient(t, func(verb string, args [][]byte) []byte {
		return []byte("*-1\r\n")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, _, ok, err := c.BLPop(ctx, 10*time.Millisecond, "q")
	if err != nil || ok {
		t.Fatalf("expected ok=false on null reply, got %v, %v", ok, err)
	}
}

func TestBLPopReturnsElement(t *testing.T) {
	c := newTestClient(t, func(verb string, args [][]byte) []byte {
		return []byte("*2\r\n$1\r\nq\r\n$3\r\nfoo\r\n")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch, val, ok, err := c.BLPop(ctx, 0, "q")
	if err != nil || !ok || ch != "q" || val != "foo" {
		t.Fatalf("got %q, %q, %v, %v", ch, val, ok, err)
	}
}

// TestXReadSendsBlockInMilliseconds guards against sending XREAD's BLOCK
// option in seconds, the unit BLPOP/BRPOP/BLMOVE use but XREAD does not.
func TestXReadSendsBlockInMilliseconds(t *testing.T) {
	var blockArg string
	c := newTestClient(t, func(verb string, args [][]byte) []byte {
		if verb == "XREAD" {
			for i, a := range args {
				if string(a) == "BLOCK" && i+1 < len(args) {
					blockArg = string(args[i+1])
				}
			}
		}
		return []byte("*-1\r\n")
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := c.XRead(ctx, 5*time.Second, 0, map[string]string{"s": "$"}); err != nil {
		t.Fatalf("XRead: %v", err)
	}
	if blockArg != "5000" {
		t.Fatalf("BLOCK arg = %q, want \"5000\" (milliseconds)", blockArg)
	}
}
