//go:build !unix

package respconn

import (
	"net"
	"time"
)

// tuneKeepalive falls back to the portable net.TCPConn API on platforms
// without the unix socket-option surface.
func tuneKeepalive(tc *net.TCPConn, period time.Duration) {
	if period <= 0 {
		return
	}
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(period)
}
