package txn

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

// fakeMultiServer answers HELLO with an error (RESP2 fallback), AUTH/
// CLIENT/SELECT with +OK, MULTI with +OK, every staged command with
// +QUEUED, and EXEC with a pre-built reply built from the recorded verbs.
func fakeMultiServer(t *testing.T, side net.Conn, execReply func(staged [][]byte) []byte) {
	t.Helper()
	go func() {
		p := resp.NewParser(resp.DefaultLimits())
		var buf []byte
		chunk := make([]byte, 4096)
		var staged [][]byte
		for {
			for {
				v, n, err := p.Parse(buf)
				if err == nil {
					buf = buf[n:]
					if v.Kind != resp.KindArray || len(v.Arr) == 0 {
						continue
					}
					verb := strings.ToUpper(v.Arr[0].String())
					var reply []byte
					switch verb {
					case "HELLO":
						reply = []byte("-ERR unknown command 'HELLO'\r\n")
					case "AUTH", "CLIENT", "SELECT", "MULTI":
						reply = []byte("+OK\r\n")
					case "EXEC":
						reply = execReply(staged)
						staged = nil
					default:
						staged = append(staged, []byte(verb))
						reply = []byte("+QUEUED\r\n")
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

func dialFakeMulti(t *testing.T, execReply func([][]byte) []byte) *respconn.Conn {
	t.Helper()
	client, server := net.Pipe()
	fakeMultiServer(t, server, execReply)
	c := respconn.New(client, "pipe", cmn.DefaultOptions(), stats.NewRegistry())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestTxExecSplitsReplyArray(t *testing.T) {
	conn := dialFakeMulti(t, func(staged [][]byte) []byte {
		// two staged commands -> EXEC replies with a 2-element array
		return []byte("*2\r\n:1\r\n+OK\r\n")
	})
	tx := New(conn)
	tx.Queue("INCR", []byte("ctr"))
	tx.Queue("SET", []byte("k"), []byte("v"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	results, err := tx.Exec(ctx)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Int != 1 {
		t.Fatalf("expected first result 1, got %v", results[0])
	}
	if conn.Locked() {
		t.Fatal("connection should be unlocked after Exec returns")
	}
}

func TestTxExecAbortedReturnsTxAbortedError(t *testing.T) {
	conn := dialFakeMulti(t, func(staged [][]byte) []byte {
		return []byte("*-1\r\n")
	})
	tx := New(conn)
	tx.Queue("INCR", []byte("ctr"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := tx.Exec(ctx)
	if err == nil {
		t.Fatal("expected TxAbortedError")
	}
	if _, ok := err.(*cmn.TxAbortedError); !ok {
		t.Fatalf("expected *cmn.TxAbortedError, got %T: %v", err, err)
	}
}

func TestTxNoStagedCommandsIsNoop(t *testing.T) {
	conn := dialFakeMulti(t, func(staged [][]byte) []byte { return nil })
	tx := New(conn)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	results, err := tx.Exec(ctx)
	if err != nil || results != nil {
		t.Fatalf("expected no-op, got %v, %v", results, err)
	}
}
