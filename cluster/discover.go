package cluster

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aistorehq/vkclient/cmn"
	"github.com/aistorehq/vkclient/cmn/cos"
)

// discover tries every seed endpoint concurrently (bounded by
// errgroup.SetLimit) and returns the first successful CLUSTER NODES
// parse. The remaining in-flight attempts are left to finish and are
// simply ignored — canceling them would need a second context layered
// over the pool's dial calls for no real benefit, since discovery only
// runs a handful of times per process lifetime (§4.4 Topology discovery).
func discover(ctx context.Context, seeds []string, pool *nodePool) ([]Node, string, error) {
	if len(seeds) == 0 {
		return nil, "", &cmn.TopologyUnavailableError{Tried: nil, Cause: errNoSeeds}
	}

	var (
		once    sync.Once
		result  []Node
		winner  string
		errs    cos.Errs
		tried   = make([]string, 0, len(seeds))
		triedMu sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, seed := range seeds {
		seed := seed
		g.Go(func() error {
			triedMu.Lock()
			tried = append(tried, seed)
			triedMu.Unlock()

			conn, err := pool.get(gctx, seed)
			if err != nil {
				errs.Add(err)
				return nil // try the next seed; this one just didn't pan out
			}
			reply, err := conn.Submit(gctx, false, "CLUSTER", []byte("NODES"))
			if err != nil {
				errs.Add(err)
				return nil
			}
			nodes := ParseClusterNodes(reply.String())
			if len(nodes) == 0 {
				return nil
			}
			once.Do(func() {
				result = nodes
				winner = seed
			})
			return nil
		})
	}
	_ = g.Wait()

	if result == nil {
		triedMu.Lock()
		defer triedMu.Unlock()
		return nil, "", &cmn.TopologyUnavailableError{Tried: tried, Cause: errs.JoinErr()}
	}
	return result, winner, nil
}

var errNoSeeds = staticDiscoverErr("no seed endpoints configured")

type staticDiscoverErr string

func (e staticDiscoverErr) Error() string { return string(e) }
