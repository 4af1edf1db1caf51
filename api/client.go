// Package api is the command surface: one exported method per server
// verb over resp/respconn/cluster. It is deliberately the least novel
// package in the module — each method is a thin encode-submit-decode
// wrapper — but it is what makes the module usable without every caller
// hand-building wire commands.
package api

import (
	"context"

	"github.com/aistorehq/vkclient/resp"
)

// Executor is satisfied by both a single direct connection and a cluster
// router, letting Client work unmodified against either (§4.4 "keyless
// calls" and single-node calls share routing through the same surface).
type Executor interface {
	Do(ctx context.Context, verb string, keys []string, args ...[]byte) (resp.Value, error)
}

// Client wraps an Executor with one typed method per server verb.
type Client struct {
	exec Executor
}

// New builds a Client over any Executor (a direct connection adapter, a
// cluster Router, or a test double).
func New(exec Executor) *Client { return &Client{exec: exec} }

func (c *Client) do(ctx context.Context, verb string, keys []string, args ...[]byte) (resp.Value, error) {
	return c.exec.Do(ctx, verb, keys, args...)
}

// Raw issues any verb directly, for callers (or the demo CLI) that need
// a command not covered by one of Client's typed methods.
func (c *Client) Raw(ctx context.Context, verb string, keys []string, args ...[]byte) (resp.Value, error) {
	return c.do(ctx, verb, keys, args...)
}
