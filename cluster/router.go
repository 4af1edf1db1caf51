package cluster

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/nlog"
	"github.com/aistorehq/vkclient/cmn/stats"
	"github.com/aistorehq/vkclient/resp"
)

// Router is the cluster-mode entry point: it resolves a command's target
// slot, routes it to the connection that currently owns that slot, and
// transparently follows MOVED/ASK redirections up to MaxRedirects times
// (§4.4 Cluster Router).
type Router struct {
	slotMap atomic.Pointer[SlotMap]
	pool    *nodePool
	opts    cmn.Options
	version atomic.Uint64

	refreshing atomic.Bool
}

// NewRouter discovers the initial topology from opts.Endpoints (treated
// as seeds) and returns a ready Router. reg may be nil.
func NewRouter(ctx context.Context, opts cmn.Options, reg *stats.Registry) (*Router, error) {
	return NewRouterWithDialer(ctx, opts, reg, defaultDial(opts, reg))
}

// NewRouterWithDialer is NewRouter with an injectable dialFunc, used by
// tests to avoid real sockets.
func NewRouterWithDialer(ctx context.Context, opts cmn.Options, reg *stats.Registry, dial dialFunc) (*Router, error) {
	r := &Router{pool: newNodePool(opts, reg, dial), opts: opts}
	if err := r.Refresh(ctx, opts.Endpoints); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh re-runs topology discovery against seeds and atomically swaps
// in the new slot map. Safe to call concurrently with routing; readers
// always see either the old or the new snapshot, never a partial one.
func (r *Router) Refresh(ctx context.Context, seeds []string) error {
	nodes, _, err := discover(ctx, seeds, r.pool)
	if err != nil {
		return err
	}
	v := r.version.Add(1)
	r.slotMap.Store(BuildSlotMap(nodes, v))
	return nil
}

func (r *Router) asyncRefresh() {
	if !r.refreshing.CompareAndSwap(false, true) {
		return // a refresh is already in flight
	}
	go func() {
		defer r.refreshing.Store(false)
		sm := r.slotMap.Load()
		seeds := sm.Endpoints()
		if len(seeds) == 0 {
			seeds = r.opts.Endpoints
		}
		if err := r.Refresh(context.Background(), seeds); err != nil {
			nlog.Warningf("cluster: async topology refresh failed: %v", err)
		}
	}()
}

// SlotMap returns the current routing snapshot, for diagnostics.
func (r *Router) SlotMap() *SlotMap { return r.slotMap.Load() }

// Do routes one command by the slots its keys hash to: a single owner for
// every key (or no keys, in which case a random primary is chosen),
// following MOVED/ASK redirects until the reply is final or
// MaxRedirects is exceeded (§4.4, §7 RedirectionLoopError,
// CrossSlotError).
func (r *Router) Do(ctx context.Context, verb string, keys []string, args ...[]byte) (resp.Value, error) {
	slots := Slots(keys)
	if len(slots) > 1 {
		return resp.Value{}, &cmn.CrossSlotError{Slots: slots}
	}

	var (
		slot       uint16
		haveSlot   bool
		endpoint   string
		askPrefix  bool
		primaryKey string
	)
	if len(slots) == 1 {
		slot, haveSlot = slots[0], true
		primaryKey = keys[0]
	}

	refreshedOnFailure := false

	for attempt := 0; ; attempt++ {
		if attempt > r.opts.MaxRedirects {
			if reg := r.pool.reg; reg != nil {
				reg.RedirectionLoops.Inc()
			}
			return resp.Value{}, &cmn.RedirectionLoopError{Key: primaryKey, MaxRedirs: r.opts.MaxRedirects}
		}

		if endpoint == "" {
			sm := r.slotMap.Load()
			if haveSlot {
				endpoint = sm.Owner(slot)
				if endpoint == "" {
					return resp.Value{}, &cmn.NoNodeForSlotError{Slot: slot}
				}
			} else {
				eps := sm.Endpoints()
				if len(eps) == 0 {
					return resp.Value{}, &cmn.TopologyUnavailableError{Tried: r.opts.Endpoints, Cause: errNoSeeds}
				}
				endpoint = eps[rand.Intn(len(eps))]
			}
		}

		conn, err := r.pool.get(ctx, endpoint)
		if err != nil {
			if retryEndpoint, ok := r.refreshAndRetry(ctx, endpoint, &refreshedOnFailure); ok {
				endpoint = retryEndpoint
				continue
			}
			return resp.Value{}, err
		}

		if askPrefix {
			if _, err := conn.Submit(ctx, false, "ASKING"); err != nil {
				if retryEndpoint, ok := r.refreshAndRetry(ctx, endpoint, &refreshedOnFailure); ok {
					endpoint, askPrefix = retryEndpoint, false
					continue
				}
				return resp.Value{}, err
			}
			askPrefix = false
		}

		v, err := conn.Submit(ctx, false, verb, args...)
		// Error frames reach us as a *cmn.ServerError from Submit; only
		// other errors are connection-level failures.
		var serr *cmn.ServerError
		if err != nil && !errors.As(err, &serr) {
			if retryEndpoint, ok := r.refreshAndRetry(ctx, endpoint, &refreshedOnFailure); ok {
				endpoint = retryEndpoint
				continue
			}
			return resp.Value{}, err
		}

		if serr != nil {
			text := serr.Text
			switch {
			case strings.HasPrefix(text, "MOVED "):
				if !r.opts.AutoHandleMoved {
					return v, &cmn.ServerError{Text: text}
				}
				newSlot, newEndpoint, ok := parseRedirect(text)
				if !ok {
					return v, &cmn.ServerError{Text: text}
				}
				endpoint = newEndpoint
				slot, haveSlot = newSlot, true
				if reg := r.pool.reg; reg != nil {
					reg.Redirections.WithLabelValues("moved").Inc()
				}
				r.asyncRefresh()
				continue
			case strings.HasPrefix(text, "ASK "):
				if !r.opts.AutoHandleAsk {
					return v, &cmn.ServerError{Text: text}
				}
				_, newEndpoint, ok := parseRedirect(text)
				if !ok {
					return v, &cmn.ServerError{Text: text}
				}
				endpoint = newEndpoint
				askPrefix = true
				if reg := r.pool.reg; reg != nil {
					reg.Redirections.WithLabelValues("ask").Inc()
				}
				continue // no topology refresh for ASK (§4.4)
			default:
				return v, &cmn.ServerError{Text: text}
			}
		}

		return v, nil
	}
}

// refreshAndRetry implements the single refresh-and-retry a connection-level
// failure (a broken socket, a dial error) gets before the error is
// propagated to the caller (§4.4, §7 ConnectionLostError during a routed
// call): it drops the pool's cached connection to failedEndpoint, so a
// stale entry isn't reused, re-discovers topology once synchronously, and
// signals the caller to re-resolve its target from the fresh slot map.
// refreshedOnFailure ensures this happens at most once per Do call; a
// second connection failure after the refresh propagates immediately.
func (r *Router) refreshAndRetry(ctx context.Context, failedEndpoint string, refreshedOnFailure *bool) (endpoint string, retry bool) {
	if *refreshedOnFailure {
		return "", false
	}
	*refreshedOnFailure = true
	r.pool.invalidate(failedEndpoint)

	seeds := r.opts.Endpoints
	if sm := r.slotMap.Load(); sm != nil {
		if eps := sm.Endpoints(); len(eps) > 0 {
			seeds = eps
		}
	}
	if err := r.Refresh(ctx, seeds); err != nil {
		return "", false
	}
	return "", true
}

// parseRedirect parses "MOVED <slot> <host:port>" or "ASK <slot> <host:port>".
func parseRedirect(text string) (slot uint16, endpoint string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) != 3 {
		return 0, "", false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", false
	}
	return uint16(n), fields[2], true
}

// Close shuts down every pooled connection.
func (r *Router) Close() { r.pool.closeAll() }
