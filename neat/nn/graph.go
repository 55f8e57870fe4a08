package nn

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/baldhumanity/helix/neat"
)

// topology is the connection graph of a genome. Self-loops are kept aside
// because simple.DirectedGraph does not store them.
type topology struct {
	*simple.DirectedGraph
	selfLoops map[int64]bool
}

func buildTopology(g *neat.Genome) *topology {
	t := &topology{
		DirectedGraph: simple.NewDirectedGraph(),
		selfLoops:     make(map[int64]bool),
	}
	for _, id := range g.AllNodeIDs() {
		if t.Node(int64(id)) == nil {
			t.AddNode(simple.Node(id))
		}
	}
	for _, c := range g.Connections {
		from, to := int64(c.SourceID), int64(c.DestinationID)
		if from == to {
			t.selfLoops[from] = true
			continue
		}
		// Edges to unknown nodes add them; decodeLayout rejects those genomes.
		t.SetEdge(t.NewEdge(simple.Node(from), simple.Node(to)))
	}
	return t
}

// cyclicNodeSet returns the IDs of nodes on a cycle: members of a strongly
// connected component with more than one node, or nodes with a self-loop.
func (t *topology) cyclicNodeSet() map[int64]bool {
	cyclic := make(map[int64]bool, len(t.selfLoops))
	for id := range t.selfLoops {
		cyclic[id] = true
	}
	for _, scc := range topo.TarjanSCC(t) {
		if len(scc) < 2 {
			continue
		}
		for _, n := range scc {
			cyclic[n.ID()] = true
		}
	}
	return cyclic
}

// IsAcyclic reports whether g's connections form a directed acyclic graph.
func IsAcyclic(g *neat.Genome) bool {
	t := buildTopology(g)
	if len(t.selfLoops) > 0 {
		return false
	}
	_, err := topo.Sort(t)
	return err == nil
}

// CyclicNodeIDs returns the IDs of the nodes that participate in a cycle,
// in ascending order.
func CyclicNodeIDs(g *neat.Genome) []int {
	set := buildTopology(g).cyclicNodeSet()
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	return ids
}

func cyclicNodes(g *neat.Genome, idToIdx map[int]int) []bool {
	flags := make([]bool, g.TotalNodeCount())
	for id := range buildTopology(g).cyclicNodeSet() {
		if i, ok := idToIdx[int(id)]; ok {
			flags[i] = true
		}
	}
	return flags
}

// evaluationOrder returns the indices of hidden and output nodes in a
// topological order. Ties are broken by layout position.
func evaluationOrder(g *neat.Genome, l *Layout) ([]int, error) {
	t := buildTopology(g)
	if len(t.selfLoops) > 0 {
		return nil, ErrCyclicTopology
	}
	idToIdx := make(map[int64]int, len(l.NodeIDs))
	for i, id := range l.NodeIDs {
		idToIdx[int64(id)] = i
	}
	sorted, err := topo.SortStabilized(t, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return idToIdx[nodes[i].ID()] < idToIdx[nodes[j].ID()]
		})
	})
	if err != nil {
		if _, ok := err.(topo.Unorderable); ok {
			return nil, ErrCyclicTopology
		}
		return nil, fmt.Errorf("topological sort: %w", err)
	}
	order := make([]int, 0, len(sorted))
	for _, n := range sorted {
		if i := idToIdx[n.ID()]; i >= l.InputCount {
			order = append(order, i)
		}
	}
	return order, nil
}
