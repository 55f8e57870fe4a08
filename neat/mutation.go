package neat

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrMutationExhausted is returned when AddConnection finds no new edge within its attempt budget.
	ErrMutationExhausted = errors.New("mutation exhausted its attempts")
	// ErrNoConnections is returned by mutations that need at least one connection.
	ErrNoConnections = errors.New("genome has no connections")
	// ErrNoEligibleConnections is returned when no connection may change its integrator.
	ErrNoEligibleConnections = errors.New("no connection eligible for mutation")
)

// IsNoop reports whether err only signals that a mutation left the genome unchanged.
func IsNoop(err error) bool {
	return errors.Is(err, ErrMutationExhausted) ||
		errors.Is(err, ErrNoConnections) ||
		errors.Is(err, ErrNoEligibleConnections)
}

// MutationStrategy mutates a freshly cloned genome in place.
// A returned error matching IsNoop means the genome was left unchanged.
type MutationStrategy interface {
	Name() string
	Mutate(g *Genome, rng *rand.Rand) error
}

// --- AddConnection ---

// AddConnectionMutation adds a Gaussian-weighted Aggregate connection between
// a random node and a random hidden or output neuron.
type AddConnectionMutation struct {
	Innovations *InnovationRegistry
	Attempts    int
}

func (m *AddConnectionMutation) Name() string { return "add_connection" }

func (m *AddConnectionMutation) Mutate(g *Genome, rng *rand.Rand) error {
	allIDs := g.AllNodeIDs()
	neuronIDs := g.NeuronalNodeIDs()
	attempts := m.Attempts
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		src := allIDs[rng.Intn(len(allIDs))]
		dst := neuronIDs[rng.Intn(len(neuronIDs))]
		if g.HasConnection(src, dst) {
			continue
		}
		g.Connections = append(g.Connections, Connection{
			ID:            m.Innovations.ConnectionInnovationID(src, dst),
			SourceID:      src,
			DestinationID: dst,
			Weight:        gaussian(rng, 0, 1),
			Integrator:    Aggregate,
		})
		return nil
	}
	return fmt.Errorf("add connection after %d attempts: %w", attempts, ErrMutationExhausted)
}

// --- AddNode ---

// AddNodeMutation splits a random connection src -> dst into src -> new -> dst.
// The incoming half keeps the original weight; the outgoing half gets a fresh
// Gaussian weight and the original integrator.
type AddNodeMutation struct {
	Innovations *InnovationRegistry
}

func (m *AddNodeMutation) Name() string { return "add_node" }

func (m *AddNodeMutation) Mutate(g *Genome, rng *rand.Rand) error {
	if len(g.Connections) == 0 {
		return fmt.Errorf("add node: %w", ErrNoConnections)
	}
	idx := rng.Intn(len(g.Connections))
	existing := g.Connections[idx]

	id := m.Innovations.HiddenNodeInnovationID(existing.SourceID, existing.DestinationID)
	// The same split can recur after the edge was re-added by AddConnection.
	if g.HasHidden(id) {
		id = m.Innovations.NextNodeID()
	}
	node := HiddenNeuron{ID: id, Activation: ReLU, Aggregation: Sum}

	pre := Connection{
		ID:            m.Innovations.ConnectionInnovationID(existing.SourceID, node.ID),
		SourceID:      existing.SourceID,
		DestinationID: node.ID,
		Weight:        existing.Weight,
		Integrator:    Aggregate,
	}
	post := Connection{
		ID:            m.Innovations.ConnectionInnovationID(node.ID, existing.DestinationID),
		SourceID:      node.ID,
		DestinationID: existing.DestinationID,
		Weight:        gaussian(rng, 0, 1),
		Integrator:    existing.Integrator,
	}

	g.removeConnectionAt(idx)
	g.Hidden = append(g.Hidden, node)
	g.Connections = append(g.Connections, pre, post)
	return nil
}

// --- MutateWeights ---

// MutateWeightsMutation perturbs or replaces the weights of a few random connections.
type MutateWeightsMutation struct {
	// Selection holds relative weights for mutating 1, 2, 3... connections.
	Selection *DiscreteDistribution
	// DeltaProbability is the chance of a delta shift instead of a replacement.
	DeltaProbability float64
	DeltaStdev       float64
}

// NewMutateWeightsMutation returns the weight mutation with its usual tuning:
// 1..4 connections at 12:4:2:1, delta shift σ=0.2 with probability 0.8.
func NewMutateWeightsMutation() *MutateWeightsMutation {
	sel, _ := NewDiscreteDistribution([]float64{12, 4, 2, 1})
	return &MutateWeightsMutation{Selection: sel, DeltaProbability: 0.8, DeltaStdev: 0.2}
}

func (m *MutateWeightsMutation) Name() string { return "mutate_weights" }

func (m *MutateWeightsMutation) Mutate(g *Genome, rng *rand.Rand) error {
	if len(g.Connections) == 0 {
		return fmt.Errorf("mutate weights: %w", ErrNoConnections)
	}
	n := m.Selection.Sample(rng) + 1
	if n > len(g.Connections) {
		n = len(g.Connections)
	}
	// First n entries of a permutation: uniform without replacement.
	for _, i := range rng.Perm(len(g.Connections))[:n] {
		c := &g.Connections[i]
		if rng.Float64() < m.DeltaProbability {
			c.Weight += gaussian(rng, 0, m.DeltaStdev)
		} else {
			c.Weight = gaussian(rng, 0, 1)
		}
	}
	return nil
}

// --- MutateActivation ---

// MutateActivationMutation gives a random hidden or output neuron a different activation function.
type MutateActivationMutation struct{}

func (m *MutateActivationMutation) Name() string { return "mutate_activation" }

func (m *MutateActivationMutation) Mutate(g *Genome, rng *rand.Rand) error {
	total := len(g.Hidden) + len(g.Outputs)
	if total == 0 {
		return nil
	}
	idx := rng.Intn(total)
	var current *ActivationFunction
	if idx < len(g.Hidden) {
		current = &g.Hidden[idx].Activation
	} else {
		current = &g.Outputs[idx-len(g.Hidden)].Activation
	}

	choices := make([]ActivationFunction, 0, 2)
	for _, fn := range AllActivationFunctions() {
		if fn != *current {
			choices = append(choices, fn)
		}
	}
	*current = choices[rng.Intn(len(choices))]
	return nil
}

// --- MutateIntegrator ---

// MutateIntegratorMutation flips one connection between Aggregate and Modulate
// and resamples its weight. An Aggregate connection may only become Modulate if
// another source still feeds its destination additively.
type MutateIntegratorMutation struct{}

func (m *MutateIntegratorMutation) Name() string { return "mutate_integrator" }

func (m *MutateIntegratorMutation) Mutate(g *Genome, rng *rand.Rand) error {
	eligible := EligibleIntegratorFlips(g)
	if len(eligible) == 0 {
		return fmt.Errorf("mutate integrator: %w", ErrNoEligibleConnections)
	}
	c := &g.Connections[eligible[rng.Intn(len(eligible))]]
	c.Integrator = c.Integrator.Toggle()
	c.Weight = gaussian(rng, 0, 1)
	return nil
}

// EligibleIntegratorFlips returns the indices of connections whose integrator may be toggled.
func EligibleIntegratorFlips(g *Genome) []int {
	var toModulate, toAggregate []int
	for i, c := range g.Connections {
		if c.Integrator == Modulate {
			toAggregate = append(toAggregate, i)
			continue
		}
		for _, s := range g.Connections {
			if s.SourceID != c.SourceID && s.DestinationID == c.DestinationID && s.Integrator == Aggregate {
				toModulate = append(toModulate, i)
				break
			}
		}
	}
	return append(toModulate, toAggregate...)
}
