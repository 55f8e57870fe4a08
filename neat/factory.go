package neat

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
)

// ErrInvalidShape is returned when a genome is requested with no inputs or no outputs.
var ErrInvalidShape = errors.New("genome needs at least one input and one output")

// InitialConnectionWeight is the weight of the single connection seeded into a new genome.
const InitialConnectionWeight = 0.8

// Factory creates minimal genomes and clones existing ones. Genome IDs are
// handed out from a counter owned by the factory and are never reused.
//
// A Factory is safe for concurrent CreateFrom calls; Create draws from the
// factory's random source and must not be called concurrently.
type Factory struct {
	innovations *InnovationRegistry
	rng         *rand.Rand
	lastID      atomic.Int64

	// InputLabels and OutputLabels are copied onto new genomes when their
	// lengths match the requested shape.
	InputLabels  []string
	OutputLabels []string
}

// NewFactory creates a factory that registers innovations in reg and draws
// randomness from rng.
func NewFactory(reg *InnovationRegistry, rng *rand.Rand) *Factory {
	return &Factory{innovations: reg, rng: rng}
}

// Innovations returns the registry used by the factory.
func (f *Factory) Innovations() *InnovationRegistry {
	return f.innovations
}

// Rand returns the factory's random source.
func (f *Factory) Rand() *rand.Rand {
	return f.rng
}

// NextGenomeID allocates a new genome ID.
func (f *Factory) NextGenomeID() int {
	return int(f.lastID.Add(1))
}

// Create builds a minimal genome with inputs and outputs numbered 1..inputs+outputs
// and one connection from a random input to a random output.
//
// Node IDs restart at 1 for every genome so that independently created
// genomes line up for crossover and distance. The returned genome should still
// be checked with Validate; a non-nil error here only reports a bad shape.
func (f *Factory) Create(inputs, outputs int) (*Genome, error) {
	if inputs <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("create genome %dx%d: %w", inputs, outputs, ErrInvalidShape)
	}

	nodeID := 0
	g := &Genome{
		ID:             f.NextGenomeID(),
		MetaParameters: make(map[string]float64),
		Inputs:         make([]InputDescriptor, 0, inputs),
		Outputs:        make([]OutputNeuron, 0, outputs),
	}
	for i := 0; i < inputs; i++ {
		nodeID++
		in := InputDescriptor{ID: nodeID}
		if len(f.InputLabels) == inputs {
			in.Label = f.InputLabels[i]
		}
		g.Inputs = append(g.Inputs, in)
	}
	for i := 0; i < outputs; i++ {
		nodeID++
		out := OutputNeuron{ID: nodeID, Activation: LogisticApproximantSteep, Aggregation: Sum}
		if len(f.OutputLabels) == outputs {
			out.Label = f.OutputLabels[i]
		}
		g.Outputs = append(g.Outputs, out)
	}

	f.innovations.BoostNodeID(nodeID)

	src := g.Inputs[f.rng.Intn(inputs)].ID
	dst := g.Outputs[f.rng.Intn(outputs)].ID
	g.Connections = []Connection{{
		ID:            f.innovations.ConnectionInnovationID(src, dst),
		SourceID:      src,
		DestinationID: dst,
		Weight:        InitialConnectionWeight,
		Integrator:    Aggregate,
	}}

	return g, nil
}

// CreateFrom deep-clones genome under a new ID. Meta-parameters are copied by
// value; fitness is reset.
func (f *Factory) CreateFrom(genome *Genome) *Genome {
	return genome.clone(f.NextGenomeID())
}

// CreatePopulation creates n minimal genomes.
func (f *Factory) CreatePopulation(n, inputs, outputs int) ([]*Genome, error) {
	pop := make([]*Genome, 0, n)
	for i := 0; i < n; i++ {
		g, err := f.Create(inputs, outputs)
		if err != nil {
			return nil, err
		}
		pop = append(pop, g)
	}
	return pop, nil
}
