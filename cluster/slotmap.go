package cluster

// SlotMap is an immutable snapshot of slot ownership: which endpoint
// currently owns each of the NumSlots slots. Routing reads a *SlotMap via
// an atomic pointer load (Router.slotMap), never a mutex, so the hot path
// never blocks behind a topology refresh (§4.4, §9 Design Notes: atomic
// pointer swap over a snapshot, not RWMutex, for the hot read path).
type SlotMap struct {
	owners  [NumSlots]string // primary endpoint per slot, "" if unassigned
	nodes   []Node
	version uint64
}

// BuildSlotMap converts a freshly parsed Node list into a routable
// snapshot. version should be a monotonically increasing counter supplied
// by the caller (e.g. a discovery sequence number) for diagnostics.
func BuildSlotMap(nodes []Node, version uint64) *SlotMap {
	sm := &SlotMap{nodes: nodes, version: version}
	for _, n := range nodes {
		if n.Role != RolePrimary {
			continue
		}
		for _, r := range n.Slots {
			for s := r.Start; ; s++ {
				sm.owners[s] = n.Endpoint
				if s == r.End {
					break
				}
			}
		}
	}
	return sm
}

// Owner returns the endpoint owning slot, or "" if the slot map has no
// assignment for it (§7 NoNodeForSlotError is raised by the caller in
// that case).
func (sm *SlotMap) Owner(slot uint16) string {
	if sm == nil {
		return ""
	}
	return sm.owners[slot]
}

// Endpoints returns every distinct primary endpoint in the map, used by
// Router to pick a random node for keyless calls and as the seed list for
// topology refreshes.
func (sm *SlotMap) Endpoints() []string {
	if sm == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(sm.nodes))
	var out []string
	for _, n := range sm.nodes {
		if n.Role != RolePrimary {
			continue
		}
		if _, ok := seen[n.Endpoint]; ok {
			continue
		}
		seen[n.Endpoint] = struct{}{}
		out = append(out, n.Endpoint)
	}
	return out
}

// Version returns the discovery sequence number this snapshot was built
// from, surfaced for diagnostics.
func (sm *SlotMap) Version() uint64 {
	if sm == nil {
		return 0
	}
	return sm.version
}

// Nodes returns the full node list this snapshot was built from.
func (sm *SlotMap) Nodes() []Node {
	if sm == nil {
		return nil
	}
	return sm.nodes
}
