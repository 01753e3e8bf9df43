package main

import "fmt"

// NodeIndex identifies a cluster replica in [0, replicas).
type NodeIndex = int

// DirectedEdge names one direction of a node-to-node link.
type DirectedEdge struct {
	Sender   NodeIndex
	Receiver NodeIndex
}

func (e DirectedEdge) String() string {
	return fmt.Sprintf("node%d -> node%d", e.Sender, e.Receiver)
}

// interceptPort computes the listening port serving edge e in a cluster of
// n replicas. Injective over all sender != receiver in [0, n).
func interceptPort(base, n int, e DirectedEdge) int {
	return base + e.Sender*n + e.Receiver
}

// realPort is the port the receiver node actually listens on.
func realPort(base int, r NodeIndex) int {
	return base + r + 1
}

// buildPortMap enumerates every ordered pair of distinct replicas and
// assigns each pair its interception port. The result has exactly n*(n-1)
// entries and must never be written again once it is returned.
func buildPortMap(base, n int) map[int]DirectedEdge {
	table := make(map[int]DirectedEdge, n*(n-1))

	for s := 0; s < n; s++ {
		for r := 0; r < n; r++ {
			if s == r {
				continue
			}
			e := DirectedEdge{Sender: s, Receiver: r}
			table[interceptPort(base, n, e)] = e
		}
	}

	return table
}
