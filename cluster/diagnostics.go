package cluster

import (
	"github.com/OneOfOne/xxhash"
	jsoniter "github.com/json-iterator/go"

	"github.com/aistorehq/vkclient/cmn/cos"
)

// Snapshot is the JSON-serializable view of a SlotMap used for
// diagnostics endpoints and debug logging — never for routing decisions,
// which always go through the live *SlotMap (§9 Design Notes).
type Snapshot struct {
	Version uint64          `json:"version"`
	Nodes   []SnapshotNode  `json:"nodes"`
	Fingerprint string      `json:"fingerprint"`
}

type SnapshotNode struct {
	ID       string      `json:"id"`
	Endpoint string      `json:"endpoint"`
	Primary  bool        `json:"primary"`
	Slots    []SlotRange `json:"slots,omitempty"`
}

// Diagnose renders the router's current slot map as a Snapshot. The
// fingerprint is an xxhash digest of the node list's JSON encoding, so
// two snapshots with identical ownership compare equal without a
// structural diff (diagnostics use only; routing never calls this).
func (r *Router) Diagnose() (Snapshot, error) {
	sm := r.slotMap.Load()
	snap := Snapshot{Version: sm.Version()}
	for _, n := range sm.Nodes() {
		snap.Nodes = append(snap.Nodes, SnapshotNode{
			ID:       n.ID,
			Endpoint: n.Endpoint,
			Primary:  n.Role == RolePrimary,
			Slots:    n.Slots,
		})
	}
	b, err := jsoniter.Marshal(snap.Nodes)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Fingerprint = fingerprint(b)
	return snap, nil
}

func fingerprint(b []byte) string {
	h := xxhash.Checksum64S(b, cos.MLCG32)
	return formatHex(h)
}

func formatHex(v uint64) string {
	const digits = "0123456789abcdef"
	var buf [16]byte
	for i := 15; i >= 0; i-- {
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[:])
}
