package cluster

import (
	"context"
	"sync"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/respconn"
)

// dialFunc opens and starts one connection; substitutable in tests.
type dialFunc func(ctx context.Context, endpoint string) (*respconn.Conn, error)

// nodePool caches one live connection per endpoint. A sync.Map gives
// lock-free reads of the common case (connection already cached); a
// single pool-wide mutex, with the cache checked again under it before
// the dial, keeps two concurrent first-callers for the same endpoint from
// both dialing (§4.4, §9 double-checked-lock on first creation). Dials
// to different endpoints are serialized by that mutex as well.
type nodePool struct {
	conns sync.Map // endpoint string -> *respconn.Conn
	mu    sync.Mutex

	dial dialFunc
	opts cmn.Options
	reg  *stats.Registry
}

func newNodePool(opts cmn.Options, reg *stats.Registry, dial dialFunc) *nodePool {
	return &nodePool{dial: dial, opts: opts, reg: reg}
}

func (p *nodePool) get(ctx context.Context, endpoint string) (*respconn.Conn, error) {
	if v, ok := p.conns.Load(endpoint); ok {
		c := v.(*respconn.Conn)
		if c.State() == respconn.StateReady {
			return c, nil
		}
		p.conns.Delete(endpoint)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.conns.Load(endpoint); ok {
		c := v.(*respconn.Conn)
		if c.State() == respconn.StateReady {
			return c, nil
		}
		p.conns.Delete(endpoint)
	}

	c, err := p.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	p.conns.Store(endpoint, c)
	return c, nil
}

// invalidate drops a cached connection, forcing the next get to redial.
// Called by Router.refreshAndRetry when a connection-level failure (a
// broken socket, a dial error) sends a routed call through its one
// refresh-and-retry, so the stale entry isn't handed out again before the
// retry's own Router.pool.get redials it.
func (p *nodePool) invalidate(endpoint string) {
	if v, ok := p.conns.LoadAndDelete(endpoint); ok {
		c := v.(*respconn.Conn)
		go c.Close()
	}
}

func (p *nodePool) closeAll() {
	p.conns.Range(func(_, v any) bool {
		v.(*respconn.Conn).Close()
		return true
	})
}

// defaultDial dials a raw TCP transport and runs the connection handshake,
// the dialFunc real Routers use (tests substitute an in-memory one).
// Cluster connections never issue SELECT: DatabaseIndex applies to direct
// mode only.
func defaultDial(opts cmn.Options, reg *stats.Registry) dialFunc {
	connOpts := opts
	connOpts.DatabaseIndex = 0
	return func(ctx context.Context, endpoint string) (*respconn.Conn, error) {
		tc, err := respconn.Dial(ctx, endpoint, opts.ConnectTimeout, opts.Keepalive)
		if err != nil {
			return nil, err
		}
		c := respconn.New(tc, endpoint, connOpts, reg)
		if err := c.Start(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}
}
