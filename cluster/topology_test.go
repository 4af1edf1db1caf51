package cluster

import "testing"

func TestParseClusterNodesMixedRoles(t *testing.T) {
	reply := "" +
		"07c3 10.0.0.1:7000@17000 myself,master - 0 0 1 connected 0-5460\n" +
		"a1b2 10.0.0.2:7000@17000 master - 0 1620000000000 2 connected 5461-10922\n" +
		"c3d4 10.0.0.3:7000@17000 slave a1b2 0 1620000000000 3 connected\n" +
		"\n"
	nodes := ParseClusterNodes(reply)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	sm := BuildSlotMap(nodes, 1)
	if sm.Owner(0) != "10.0.0.1:7000" {
		t.Fatalf("slot 0 owner = %q", sm.Owner(0))
	}
	if sm.Owner(5461) != "10.0.0.2:7000" {
		t.Fatalf("slot 5461 owner = %q", sm.Owner(5461))
	}
	if sm.Owner(16383) != "" {
		t.Fatalf("slot 16383 should be unassigned, got %q", sm.Owner(16383))
	}
	eps := sm.Endpoints()
	if len(eps) != 2 {
		t.Fatalf("expected 2 primary endpoints, got %d: %v", len(eps), eps)
	}
}

func TestParseClusterNodesSkipsNoAddr(t *testing.T) {
	reply := "07c3 :0 master,noaddr - 0 0 1 disconnected\n"
	nodes := ParseClusterNodes(reply)
	if len(nodes) != 0 {
		t.Fatalf("expected noaddr line to be skipped, got %d nodes", len(nodes))
	}
}
