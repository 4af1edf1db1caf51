//go:build unix

package respconn

import (
	"net"
	"time"

	"golang.org/x/sys/unix"

	"github.com/aistorehq/vkclient/cmn/nlog"
)

// tuneKeepalive reaches below net.TCPConn to set the keepalive idle
// interval at the socket-option level via golang.org/x/sys/unix, matching
// the design's "keepalive (duration): Transport-level keepalive period"
// more precisely than the per-OS defaults net.TCPConn.SetKeepAlivePeriod
// alone provides.
func tuneKeepalive(tc *net.TCPConn, period time.Duration) {
	if period <= 0 {
		return
	}
	if err := tc.SetKeepAlive(true); err != nil {
		nlog.Warningf("setkeepalive: %v", err)
		return
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}
	secs := int(period.Seconds())
	if secs <= 0 {
		secs = 1
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs)
	})
}
