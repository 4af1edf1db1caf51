package cluster

import (
	"strconv"
	"strings"
)

// NodeRole distinguishes a primary from a replica in CLUSTER NODES output.
type NodeRole int

const (
	RolePrimary NodeRole = iota
	RoleReplica
)

// Node is one line of a CLUSTER NODES reply, reduced to what routing
// needs: address, role, and (for primaries) the slot ranges it owns.
type Node struct {
	ID       string
	Endpoint string
	Role     NodeRole
	Slots    []SlotRange
}

// SlotRange is an inclusive [Start, End] range of owned slots.
type SlotRange struct {
	Start, End uint16
}

func (r SlotRange) contains(slot uint16) bool { return slot >= r.Start && slot <= r.End }

// ParseClusterNodes parses the text bulk-string reply of CLUSTER NODES
// into a Node list. Lines with fewer than eight fields and lines whose
// address is empty or ":0" (noaddr) are skipped rather than failing the
// whole parse, since a partially-converged cluster still needs to be
// routable; other lines, including slotless or disconnected nodes, are
// kept, and slot tokens that do not parse are dropped.
func ParseClusterNodes(reply string) []Node {
	var nodes []Node
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 {
			continue
		}
		id := fields[0]
		addr := fields[1]
		// addr is "ip:port@cport" or "ip:port@cport,hostname"; keep ip:port.
		if at := strings.IndexByte(addr, '@'); at >= 0 {
			addr = addr[:at]
		}
		if addr == ":0" || addr == "" {
			continue // noaddr, handshake-in-progress
		}
		flags := fields[2]
		role := RolePrimary
		if strings.Contains(flags, "slave") || strings.Contains(flags, "replica") {
			role = RoleReplica
		}
		n := Node{ID: id, Endpoint: addr, Role: role}
		for _, tok := range fields[8:] {
			if strings.HasPrefix(tok, "[") {
				continue // migrating/importing slot marker, not an owned range
			}
			if r, ok := parseSlotToken(tok); ok {
				n.Slots = append(n.Slots, r)
			}
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func parseSlotToken(tok string) (SlotRange, bool) {
	if dash := strings.IndexByte(tok, '-'); dash >= 0 {
		start, err1 := strconv.Atoi(tok[:dash])
		end, err2 := strconv.Atoi(tok[dash+1:])
		if err1 != nil || err2 != nil {
			return SlotRange{}, false
		}
		return SlotRange{Start: uint16(start), End: uint16(end)}, true
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return SlotRange{}, false
	}
	return SlotRange{Start: uint16(n), End: uint16(n)}, true
}
