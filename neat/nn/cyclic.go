package nn

import "github.com/baldhumanity/helix/neat"

// CyclicNetwork activates networks that may contain cycles by running a fixed
// number of relaxation passes over a pair of buffers.
//
// Each pass visits hidden then output nodes in layout order. A node reads its
// sources from pre, which holds last pass's values for later nodes and this
// pass's values for nodes already visited. Values persist across Activate
// calls, so cycles carry memory until Reset.
type CyclicNetwork struct {
	layout *Layout
	acts   []neat.ActivationFunc
	passes int
	pre    []float64
	post   []float64
}

func newCyclicNetwork(l *Layout, passes int) *CyclicNetwork {
	return &CyclicNetwork{
		layout: l,
		acts:   l.activationFuncs(),
		passes: passes,
		pre:    make([]float64, l.TotalCount()),
		post:   make([]float64, l.TotalCount()),
	}
}

// Inputs returns the writable input slots.
func (n *CyclicNetwork) Inputs() []float64 {
	return n.pre[:n.layout.InputCount]
}

// Outputs returns the output slots, valid after Activate.
func (n *CyclicNetwork) Outputs() []float64 {
	return n.pre[len(n.pre)-n.layout.OutputCount:]
}

// Passes returns the number of relaxation passes per Activate.
func (n *CyclicNetwork) Passes() int {
	return n.passes
}

// Activate advances the network by one step.
func (n *CyclicNetwork) Activate() {
	total := len(n.pre)
	for p := 0; p < n.passes; p++ {
		for i := n.layout.InputCount; i < total; i++ {
			n.post[i] = n.layout.evalNode(i, n.pre, n.acts[i])
			n.pre[i] = n.post[i]
		}
		for i := n.layout.InputCount; i < total; i++ {
			n.pre[i] = n.post[i]
			n.post[i] = 0
		}
	}
}

// Reset zeroes both buffers, clearing recurrent memory and inputs.
func (n *CyclicNetwork) Reset() {
	clear(n.pre)
	clear(n.post)
}

// Layout returns the decoded arrays.
func (n *CyclicNetwork) Layout() *Layout {
	return n.layout
}
