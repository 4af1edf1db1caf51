package respconn

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Transport is the minimal surface a Conn needs from its byte stream.
// *net.TCPConn and any TLS-wrapped net.Conn (an external transport
// provider per spec.md §1/§6) satisfy it directly.
type Transport interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	SetDeadline(t time.Time) error
}

// Dial opens a TCP connection to endpoint ("host:port") with the given
// connect timeout and keepalive period. TCP_NODELAY is set through
// net.TCPConn.SetNoDelay; the keepalive idle interval is set by
// tuneKeepalive, which on unix platforms goes through the raw fd
// (golang.org/x/sys/unix).
func Dial(ctx context.Context, endpoint string, connectTimeout, keepalive time.Duration) (*net.TCPConn, error) {
	d := net.Dialer{Timeout: connectTimeout}
	if keepalive > 0 {
		d.KeepAlive = keepalive
	}
	conn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", endpoint)
	}
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, errors.Errorf("dial %s: not a TCP connection", endpoint)
	}
	if err := tc.SetNoDelay(true); err != nil {
		tc.Close()
		return nil, errors.Wrapf(err, "setnodelay %s", endpoint)
	}
	tuneKeepalive(tc, keepalive)
	return tc, nil
}
