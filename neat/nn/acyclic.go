package nn

import "github.com/baldhumanity/helix/neat"

// AcyclicNetwork activates a feed-forward network in one pass. It holds no
// state between Activate calls other than the input values.
type AcyclicNetwork struct {
	layout *Layout
	acts   []neat.ActivationFunc
	order  []int
	values []float64
}

func newAcyclicNetwork(l *Layout, order []int) *AcyclicNetwork {
	return &AcyclicNetwork{
		layout: l,
		acts:   l.activationFuncs(),
		order:  order,
		values: make([]float64, l.TotalCount()),
	}
}

// Inputs returns the writable input slots.
func (n *AcyclicNetwork) Inputs() []float64 {
	return n.values[:n.layout.InputCount]
}

// Outputs returns the output slots, valid after Activate.
func (n *AcyclicNetwork) Outputs() []float64 {
	return n.values[len(n.values)-n.layout.OutputCount:]
}

// Activate evaluates every hidden and output node once, in topological order.
func (n *AcyclicNetwork) Activate() {
	for _, i := range n.order {
		n.values[i] = n.layout.evalNode(i, n.values, n.acts[i])
	}
}

// Layout returns the decoded arrays.
func (n *AcyclicNetwork) Layout() *Layout {
	return n.layout
}
