package neat

import (
	"fmt"
)

// --------------------------- Node descriptors ---------------------------

// InputDescriptor describes an input slot. Inputs are fixed at genome creation.
type InputDescriptor struct {
	ID    int
	Label string
}

// HiddenNeuron describes a neuron added by mutation.
type HiddenNeuron struct {
	ID          int
	Activation  ActivationFunction
	Aggregation AggregationFunction
}

// String returns a string representation of the HiddenNeuron.
func (h HiddenNeuron) String() string {
	return fmt.Sprintf("Hidden(ID: %d, Activation: %s, Aggregation: %s)", h.ID, h.Activation, h.Aggregation)
}

// OutputNeuron describes an output neuron. The number of outputs never changes
// but their functions may be mutated.
type OutputNeuron struct {
	ID          int
	Label       string
	Activation  ActivationFunction
	Aggregation AggregationFunction
}

// String returns a string representation of the OutputNeuron.
func (o OutputNeuron) String() string {
	return fmt.Sprintf("Output(ID: %d, Label: %q, Activation: %s, Aggregation: %s)", o.ID, o.Label, o.Activation, o.Aggregation)
}

// --------------------------- Connection ---------------------------

// Connection is a weighted, typed edge between two nodes of a genome.
// Connections are plain values; copying one never shares state with a parent.
type Connection struct {
	ID            int
	SourceID      int
	DestinationID int
	Weight        float64
	Integrator    Integrator
}

// ConnectionKey identifies a connection gene by structure rather than by ID.
// Two connections with equal keys are considered the same gene.
type ConnectionKey struct {
	SourceID      int
	DestinationID int
	Integrator    Integrator
}

// Key returns the structural identity of the connection.
func (c Connection) Key() ConnectionKey {
	return ConnectionKey{SourceID: c.SourceID, DestinationID: c.DestinationID, Integrator: c.Integrator}
}

// String returns a string representation of the Connection.
func (c Connection) String() string {
	return fmt.Sprintf("Connection(ID: %d, %d -> %d, Weight: %.3f, %s)",
		c.ID, c.SourceID, c.DestinationID, c.Weight, c.Integrator)
}

// --------------------------- Fitness ---------------------------

// Fitness is the evaluation result for a genome. Auxiliary values feed
// behavior selectors and multi-criteria ranking.
type Fitness struct {
	Primary   float64
	Auxiliary map[string]float64
}

// Copy returns a deep copy of the fitness.
func (f Fitness) Copy() Fitness {
	out := Fitness{Primary: f.Primary}
	if f.Auxiliary != nil {
		out.Auxiliary = make(map[string]float64, len(f.Auxiliary))
		for k, v := range f.Auxiliary {
			out.Auxiliary[k] = v
		}
	}
	return out
}

// Aux returns the named auxiliary value and whether it was present.
func (f Fitness) Aux(name string) (float64, bool) {
	v, ok := f.Auxiliary[name]
	return v, ok
}
