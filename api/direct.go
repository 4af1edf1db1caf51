package api

import (
	"context"

	"github.com/aistorehq/vkclient/resp"
	"github.com/aistorehq/vkclient/respconn"
)

// DirectExecutor adapts a single respconn.Conn (no cluster routing) to
// the Executor interface; keys are accepted for interface parity but
// otherwise ignored since there is only ever one connection to route to.
type DirectExecutor struct {
	Conn *respconn.Conn
}

func (d DirectExecutor) Do(ctx context.Context, verb string, _ []string, args ...[]byte) (resp.Value, error) {
	return d.Conn.Submit(ctx, isBlockingVerb(verb), verb, args...)
}

// NewDirect builds a Client talking to a single connection, the
// non-cluster configuration (§6 direct mode).
func NewDirect(conn *respconn.Conn) *Client {
	return New(DirectExecutor{Conn: conn})
}

var blockingVerbs = map[string]bool{
	"BLPOP": true, "BRPOP": true, "BLMOVE": true, "BRPOPLPUSH": true,
	"BLMPOP": true, "BZPOPMIN": true, "BZPOPMAX": true, "WAIT": true,
	"XREAD": true,
}

func isBlockingVerb(verb string) bool { return blockingVerbs[verb] }
