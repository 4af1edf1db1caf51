package api

import "github.com/aistorehq/vkclient/cluster"

// NewCluster builds a Client routed through a cluster Router (§6 cluster
// mode). *cluster.Router already satisfies Executor directly.
func NewCluster(r *cluster.Router) *Client {
	return New(r)
}
