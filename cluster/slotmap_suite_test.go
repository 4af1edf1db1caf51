// Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
package cluster

import (
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestSlotMapAtomicity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}

func nodesFor(endpoint string) []Node {
	return []Node{{ID: "n-" + endpoint, Endpoint: endpoint, Role: RolePrimary, Slots: []SlotRange{{Start: 0, End: NumSlots - 1}}}}
}

var _ = Describe("SlotMap copy-on-write swap", func() {
	It("never exposes a partially built map to a concurrent reader", func() {
		var ptr atomic.Pointer[SlotMap]
		ptr.Store(BuildSlotMap(nodesFor("a:1"), 1))

		const readers = 50
		const swaps = 200
		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(readers)
		for i := 0; i < readers; i++ {
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					sm := ptr.Load()
					// A reader must only ever see a fully-populated snapshot:
					// every slot owned, by exactly one of that snapshot's
					// own nodes, never a mix of old/new node identities.
					owner := sm.Owner(0)
					Expect(owner).NotTo(BeEmpty())
					found := false
					for _, n := range sm.Nodes() {
						if n.Endpoint == owner {
							found = true
						}
					}
					Expect(found).To(BeTrue())
				}
			}()
		}

		for i := 0; i < swaps; i++ {
			endpoint := "node:" + itoaTest(i)
			ptr.Store(BuildSlotMap(nodesFor(endpoint), uint64(i+2)))
		}
		close(stop)
		wg.Wait()
	})
})
