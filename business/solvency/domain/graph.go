package domain

import (
	"fmt"
	"sort"
)

// Graph is the deduplicated debtor-to-creditor dependency graph of one
// entity set. Multiple obligations between the same pair collapse into one
// edge; only modeled entities become nodes, external creditors do not.
type Graph struct {
	nodes []EntityID
	succ  map[EntityID][]EntityID
	inDeg map[EntityID]int
}

// BuildGraph constructs the dependency graph from an entity set.
func BuildGraph(set EntitySet) *Graph {
	g := &Graph{
		succ:  make(map[EntityID][]EntityID),
		inDeg: make(map[EntityID]int),
	}

	g.nodes = set.SortedIDs()
	for _, id := range g.nodes {
		g.inDeg[id] = 0
	}

	seen := make(map[EntityID]map[EntityID]bool)
	for _, id := range g.nodes {
		for _, o := range set[id].Obligations {
			if _, modeled := set[o.Creditor]; !modeled {
				continue
			}
			if seen[o.Debtor] == nil {
				seen[o.Debtor] = make(map[EntityID]bool)
			}
			if seen[o.Debtor][o.Creditor] {
				continue
			}
			seen[o.Debtor][o.Creditor] = true
			g.succ[o.Debtor] = append(g.succ[o.Debtor], o.Creditor)
			g.inDeg[o.Creditor]++
		}
	}

	for _, creditors := range g.succ {
		sort.Slice(creditors, func(i, j int) bool { return creditors[i] < creditors[j] })
	}
	return g
}

// Creditors returns the deduplicated creditors of one debtor, sorted.
func (g *Graph) Creditors(debtor EntityID) []EntityID {
	return g.succ[debtor]
}

// TopologicalOrder returns the nodes so that every debtor precedes all of
// its creditors. Ties break lexically so the order is deterministic. A cycle
// makes the whole analysis impossible and returns ErrCyclicGraph naming the
// entities stuck on it.
func (g *Graph) TopologicalOrder() ([]EntityID, error) {
	inDeg := make(map[EntityID]int, len(g.inDeg))
	for id, d := range g.inDeg {
		inDeg[id] = d
	}

	var ready []EntityID
	for _, id := range g.nodes {
		if inDeg[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]EntityID, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, creditor := range g.succ[id] {
			inDeg[creditor]--
			if inDeg[creditor] == 0 {
				ready = append(ready, creditor)
			}
		}
	}

	if len(order) != len(g.nodes) {
		var stuck []EntityID
		for _, id := range g.nodes {
			if inDeg[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrCyclicGraph, stuck)
	}
	return order, nil
}
