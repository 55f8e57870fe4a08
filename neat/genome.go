package neat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInnovations reports a genome carrying duplicate hidden-neuron or connection IDs.
var ErrInvalidInnovations = errors.New("duplicate innovation IDs")

// Genome is the genetic encoding of one candidate network.
//
// Nodes and connections are stored in flat slices and reference each other
// only by integer ID. Hidden neurons keep their declaration order, which fixes
// their position in a decoded network.
type Genome struct {
	ID             int
	MetaParameters map[string]float64
	Inputs         []InputDescriptor
	Hidden         []HiddenNeuron
	Outputs        []OutputNeuron
	Connections    []Connection
	Fitness        Fitness
}

// AllNodeIDs returns every node ID in decode order: inputs, hidden, outputs.
func (g *Genome) AllNodeIDs() []int {
	ids := make([]int, 0, g.TotalNodeCount())
	for _, in := range g.Inputs {
		ids = append(ids, in.ID)
	}
	return append(ids, g.NeuronalNodeIDs()...)
}

// NeuronalNodeIDs returns the IDs of hidden and output neurons, the nodes that
// can be connection destinations.
func (g *Genome) NeuronalNodeIDs() []int {
	ids := make([]int, 0, len(g.Hidden)+len(g.Outputs))
	for _, h := range g.Hidden {
		ids = append(ids, h.ID)
	}
	for _, o := range g.Outputs {
		ids = append(ids, o.ID)
	}
	return ids
}

// TotalNodeCount returns the number of input, hidden and output nodes.
func (g *Genome) TotalNodeCount() int {
	return len(g.Inputs) + len(g.Hidden) + len(g.Outputs)
}

// HasHidden reports whether a hidden neuron with the given ID exists.
func (g *Genome) HasHidden(id int) bool {
	for _, h := range g.Hidden {
		if h.ID == id {
			return true
		}
	}
	return false
}

// HasNode reports whether any node (input, hidden or output) has the given ID.
func (g *Genome) HasNode(id int) bool {
	for _, nid := range g.AllNodeIDs() {
		if nid == id {
			return true
		}
	}
	return false
}

// HasConnection reports whether a connection src -> dst exists, regardless of integrator.
func (g *Genome) HasConnection(src, dst int) bool {
	for _, c := range g.Connections {
		if c.SourceID == src && c.DestinationID == dst {
			return true
		}
	}
	return false
}

// ConnectionIndex returns the slice index of the connection with the given ID, or -1.
func (g *Genome) ConnectionIndex(id int) int {
	for i, c := range g.Connections {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// removeConnectionAt deletes the connection at index i, keeping order.
func (g *Genome) removeConnectionAt(i int) {
	g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
}

// InvalidInnovations reports whether any hidden-neuron ID or connection ID is duplicated.
func (g *Genome) InvalidInnovations() bool {
	return g.Validate() != nil
}

// Validate returns an error wrapping ErrInvalidInnovations when a hidden-neuron
// or connection ID occurs more than once.
func (g *Genome) Validate() error {
	seenHidden := make(map[int]struct{}, len(g.Hidden))
	for _, h := range g.Hidden {
		if _, dup := seenHidden[h.ID]; dup {
			return fmt.Errorf("genome %d: hidden neuron %d: %w", g.ID, h.ID, ErrInvalidInnovations)
		}
		seenHidden[h.ID] = struct{}{}
	}
	seenConn := make(map[int]struct{}, len(g.Connections))
	for _, c := range g.Connections {
		if _, dup := seenConn[c.ID]; dup {
			return fmt.Errorf("genome %d: connection %d: %w", g.ID, c.ID, ErrInvalidInnovations)
		}
		seenConn[c.ID] = struct{}{}
	}
	return nil
}

// String returns a multi-line summary of the genome.
func (g *Genome) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Genome %d (fitness %.4f): %d inputs, %d hidden, %d outputs, %d connections\n",
		g.ID, g.Fitness.Primary, len(g.Inputs), len(g.Hidden), len(g.Outputs), len(g.Connections)))
	for _, h := range g.Hidden {
		sb.WriteString("  " + h.String() + "\n")
	}
	for _, o := range g.Outputs {
		sb.WriteString("  " + o.String() + "\n")
	}
	for _, c := range g.Connections {
		sb.WriteString("  " + c.String() + "\n")
	}
	return sb.String()
}

// clone copies every collection of g into a new genome with the given ID.
// Fitness is not carried over.
func (g *Genome) clone(id int) *Genome {
	meta := make(map[string]float64, len(g.MetaParameters))
	for k, v := range g.MetaParameters {
		meta[k] = v
	}
	return &Genome{
		ID:             id,
		MetaParameters: meta,
		Inputs:         append([]InputDescriptor(nil), g.Inputs...),
		Hidden:         append([]HiddenNeuron(nil), g.Hidden...),
		Outputs:        append([]OutputNeuron(nil), g.Outputs...),
		Connections:    append([]Connection(nil), g.Connections...),
	}
}
