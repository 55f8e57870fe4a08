package nn

import (
	"errors"
	"fmt"

	"github.com/baldhumanity/helix/neat"
)

// ErrCyclicTopology is returned by DecodeAcyclic for genomes containing a cycle.
var ErrCyclicTopology = errors.New("genome topology is cyclic")

// Option configures decoding.
type Option func(*options)

type options struct {
	passes int
}

// DefaultPasses is the number of relaxation passes per cyclic activation.
const DefaultPasses = 2

// WithPasses sets the number of relaxation passes of a cyclic network. Values
// below 1 are ignored.
func WithPasses(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.passes = n
		}
	}
}

// Decode compiles any genome, cyclic or not, into a CyclicNetwork.
//
// Decode panics if a connection references a node ID absent from the genome.
func Decode(g *neat.Genome, opts ...Option) *CyclicNetwork {
	o := options{passes: DefaultPasses}
	for _, opt := range opts {
		opt(&o)
	}
	layout := decodeLayout(g)
	return newCyclicNetwork(layout, o.passes)
}

// DecodeAcyclic compiles a genome without cycles into a single-pass network.
// It returns ErrCyclicTopology if the genome has a cycle.
//
// DecodeAcyclic panics if a connection references a node ID absent from the genome.
func DecodeAcyclic(g *neat.Genome) (*AcyclicNetwork, error) {
	layout := decodeLayout(g)
	order, err := evaluationOrder(g, layout)
	if err != nil {
		return nil, fmt.Errorf("decode genome %d: %w", g.ID, err)
	}
	return newAcyclicNetwork(layout, order), nil
}

// DecodePhenome picks the network kind from cfg: the acyclic network when
// PreferAcyclic is set and the genome has no cycle, otherwise a cyclic network
// with cfg.CyclicPasses passes.
func DecodePhenome(g *neat.Genome, cfg neat.NetworkConfig) Phenome {
	if cfg.PreferAcyclic && IsAcyclic(g) {
		if net, err := DecodeAcyclic(g); err == nil {
			return net
		}
	}
	return Decode(g, WithPasses(cfg.CyclicPasses))
}

// decodeLayout builds the reverse-adjacency arrays for g.
func decodeLayout(g *neat.Genome) *Layout {
	total := g.TotalNodeCount()
	l := &Layout{
		InputCount:   len(g.Inputs),
		OutputCount:  len(g.Outputs),
		NodeIDs:      g.AllNodeIDs(),
		Activations:  make([]neat.ActivationFunction, total),
		Aggregations: make([]neat.AggregationFunction, total),
		Sources:      make([][]int, total),
		Weights:      make([][]float64, total),
		Integrators:  make([][]neat.Integrator, total),
	}

	idToIdx := make(map[int]int, total)
	for i, id := range l.NodeIDs {
		idToIdx[id] = i
	}

	offset := len(g.Inputs)
	for i, h := range g.Hidden {
		l.Activations[offset+i] = h.Activation
		l.Aggregations[offset+i] = h.Aggregation
	}
	offset += len(g.Hidden)
	for i, o := range g.Outputs {
		l.Activations[offset+i] = o.Activation
		l.Aggregations[offset+i] = o.Aggregation
	}

	for _, c := range g.Connections {
		src, ok := idToIdx[c.SourceID]
		if !ok {
			panic(fmt.Sprintf("nn: genome %d: connection %d references unknown source node %d", g.ID, c.ID, c.SourceID))
		}
		dst, ok := idToIdx[c.DestinationID]
		if !ok {
			panic(fmt.Sprintf("nn: genome %d: connection %d references unknown destination node %d", g.ID, c.ID, c.DestinationID))
		}
		if dst < l.InputCount {
			panic(fmt.Sprintf("nn: genome %d: connection %d targets input node %d", g.ID, c.ID, c.DestinationID))
		}
		l.Sources[dst] = append(l.Sources[dst], src)
		l.Weights[dst] = append(l.Weights[dst], c.Weight)
		l.Integrators[dst] = append(l.Integrators[dst], c.Integrator)
	}

	l.Cyclic = cyclicNodes(g, idToIdx)
	return l
}
