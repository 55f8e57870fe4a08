// Package nn decodes genomes into executable networks and activates them.
//
// A decoded network stores, for every hidden and output node, the array
// indices, weights and integrators of its incoming connections. Activation is
// then a forward scan with O(in-degree) work per node.
package nn

import (
	"math"

	"github.com/baldhumanity/helix/neat"
)

// Phenome is the contract exposed to fitness evaluators. Callers write
// Inputs, call Activate and read Outputs. Both views alias the network's
// internal buffer, so no copying happens at the boundary.
type Phenome interface {
	Inputs() []float64
	Outputs() []float64
	Activate()
}

// Resetter is implemented by networks carrying recurrent state.
type Resetter interface {
	Reset()
}

// Layout is the decoded, read-only form of a genome. Every slice is indexed
// by a node's position in [inputs..hidden..outputs].
type Layout struct {
	InputCount  int
	OutputCount int
	NodeIDs     []int

	// Activations and Aggregations are meaningless for inputs.
	Activations  []neat.ActivationFunction
	Aggregations []neat.AggregationFunction

	// Sources, Weights and Integrators describe each node's incoming edges.
	Sources     [][]int
	Weights     [][]float64
	Integrators [][]neat.Integrator

	// Cyclic marks nodes lying on a cycle.
	Cyclic []bool
}

// TotalCount returns the number of nodes.
func (l *Layout) TotalCount() int {
	return len(l.NodeIDs)
}

// Index returns the array index of a node ID, or -1.
func (l *Layout) Index(id int) int {
	for i, nid := range l.NodeIDs {
		if nid == id {
			return i
		}
	}
	return -1
}

// evalNode computes node i from the values in src. Aggregate inputs are
// combined by the node's aggregation function, then each Modulate input
// multiplies the result, then the activation is applied.
func (l *Layout) evalNode(i int, src []float64, act neat.ActivationFunc) float64 {
	srcIdx := l.Sources[i]
	weights := l.Weights[i]
	integrators := l.Integrators[i]

	v := 0.0
	switch l.Aggregations[i] {
	case neat.Sum:
		for j, s := range srcIdx {
			if integrators[j] != neat.Aggregate {
				continue
			}
			v = math.FMA(src[s], weights[j], v)
		}
	case neat.Average:
		n := 0
		for j, s := range srcIdx {
			if integrators[j] != neat.Aggregate {
				continue
			}
			v = math.FMA(src[s], weights[j], v)
			n++
		}
		if n > 0 {
			v /= float64(n)
		}
	case neat.Max, neat.Min:
		first := true
		for j, s := range srcIdx {
			if integrators[j] != neat.Aggregate {
				continue
			}
			x := src[s] * weights[j]
			switch {
			case first:
				v, first = x, false
			case l.Aggregations[i] == neat.Max:
				v = math.Max(v, x)
			default:
				v = math.Min(v, x)
			}
		}
	}

	for j, s := range srcIdx {
		if integrators[j] != neat.Modulate {
			continue
		}
		v *= src[s] * weights[j]
	}
	return act(v)
}

// activationFuncs resolves the activation of every node once per decode.
func (l *Layout) activationFuncs() []neat.ActivationFunc {
	fns := make([]neat.ActivationFunc, len(l.Activations))
	for i := l.InputCount; i < len(fns); i++ {
		fns[i] = l.Activations[i].Func()
	}
	return fns
}
