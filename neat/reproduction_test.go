package neat

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyProbabilitiesAreNormalized(t *testing.T) {
	f := testFactory(t, 1)
	repro, err := NewAsexualReproduction(f, DefaultConfig().Mutation, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.05/1.15, repro.StrategyProbability("add_node"), 1e-12)
	assert.InDelta(t, 0.10/1.15, repro.StrategyProbability("add_connection"), 1e-12)
	assert.InDelta(t, 0.80/1.15, repro.StrategyProbability("mutate_weights"), 1e-12)
	assert.Zero(t, repro.StrategyProbability("unknown"))

	total := 0.0
	for _, name := range []string{"add_node", "add_connection", "mutate_integrator", "mutate_activation", "mutate_weights"} {
		total += repro.StrategyProbability(name)
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestAsexualRejectsBadWeights(t *testing.T) {
	f := testFactory(t, 1)
	cfg := DefaultConfig().Mutation
	cfg.AddNodeWeight, cfg.AddConnectionWeight, cfg.MutateIntegratorWeight = 0, 0, 0
	cfg.MutateActivationWeight, cfg.MutateWeightsWeight = 0, 0
	_, err := NewAsexualReproduction(f, cfg, nil)
	assert.Error(t, err)

	_, err = NewAsexualReproductionWith(f, []float64{1}, nil, nil)
	assert.Error(t, err)
}

type failingMutation struct{ err error }

func (m failingMutation) Name() string                         { return "failing" }
func (m failingMutation) Mutate(_ *Genome, _ *rand.Rand) error { return m.err }

func TestCreateChildReturnsChildOnNoop(t *testing.T) {
	f := testFactory(t, 1)
	repro, err := NewAsexualReproductionWith(f, []float64{1},
		[]MutationStrategy{failingMutation{ErrNoConnections}}, nil)
	require.NoError(t, err)

	parent := withFitness(blankGenome(t, f, 2, 1), 3, nil)
	child, err := repro.CreateChild(parent)
	require.NotNil(t, child)
	assert.True(t, IsNoop(err))
	assert.NotEqual(t, parent.ID, child.ID)
	assert.Zero(t, child.Fitness.Primary)
}

func TestCreateChildMutatesClone(t *testing.T) {
	f := testFactory(t, 1)
	repro, err := NewAsexualReproductionWith(f, []float64{1},
		[]MutationStrategy{&AddConnectionMutation{Innovations: f.Innovations()}}, nil)
	require.NoError(t, err)

	parent := blankGenome(t, f, 2, 1)
	child, err := repro.CreateChild(parent)
	require.NoError(t, err)
	assert.Len(t, child.Connections, 1)
	assert.Empty(t, parent.Connections)
}

func TestCreateChildReportsDuplicateInnovations(t *testing.T) {
	f := testFactory(t, 1)
	dup := mutationFunc(func(g *Genome) {
		g.Connections = append(g.Connections,
			Connection{ID: 9, SourceID: 1, DestinationID: 3},
			Connection{ID: 9, SourceID: 2, DestinationID: 3})
	})
	repro, err := NewAsexualReproductionWith(f, []float64{1}, []MutationStrategy{dup}, nil)
	require.NoError(t, err)

	child, err := repro.CreateChild(blankGenome(t, f, 2, 1))
	require.NotNil(t, child)
	assert.True(t, errors.Is(err, ErrInvalidInnovations))
	assert.False(t, IsNoop(err))
}

type mutationFunc func(g *Genome)

func (m mutationFunc) Name() string { return "func" }
func (m mutationFunc) Mutate(g *Genome, _ *rand.Rand) error {
	m(g)
	return nil
}

func crossoverParents(t *testing.T, f *Factory) (*Genome, *Genome) {
	p1 := blankGenome(t, f, 2, 1)
	p2 := blankGenome(t, f, 2, 1)
	p1.Hidden = []HiddenNeuron{{ID: 10}, {ID: 11}}
	p2.Hidden = []HiddenNeuron{{ID: 10}, {ID: 12}}
	p1.Connections = []Connection{
		{ID: 1, SourceID: 1, DestinationID: 3, Weight: 1},
		{ID: 2, SourceID: 2, DestinationID: 3, Weight: 1},
	}
	p2.Connections = []Connection{
		{ID: 1, SourceID: 1, DestinationID: 3, Weight: 2},
		{ID: 3, SourceID: 1, DestinationID: 10, Weight: 2},
	}
	return p1, p2
}

func connectionIDs(g *Genome) []int {
	ids := make([]int, len(g.Connections))
	for i, c := range g.Connections {
		ids[i] = c.ID
	}
	return ids
}

func hiddenIDs(g *Genome) []int {
	ids := make([]int, len(g.Hidden))
	for i, h := range g.Hidden {
		ids[i] = h.ID
	}
	return ids
}

func TestCrossoverFitterParentKeepsDisjointGenes(t *testing.T) {
	f := testFactory(t, 4)
	p1, p2 := crossoverParents(t, f)
	withFitness(p1, 1, nil)
	withFitness(p2, 5, nil)

	child, err := NewSexualReproduction(f, nil).CreateChild(p1, p2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, connectionIDs(child))
	assert.ElementsMatch(t, []int{10, 12}, hiddenIDs(child))
	assert.NotEqual(t, p1.ID, child.ID)
	assert.NotEqual(t, p2.ID, child.ID)

	withFitness(p1, 9, nil)
	child, err = NewSexualReproduction(f, nil).CreateChild(p1, p2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, connectionIDs(child))
	assert.ElementsMatch(t, []int{10, 11}, hiddenIDs(child))
}

func TestCrossoverEqualFitnessKeepsEverything(t *testing.T) {
	f := testFactory(t, 4)
	p1, p2 := crossoverParents(t, f)
	withFitness(p1, 2, nil)
	withFitness(p2, 2+EqualFitnessTolerance/2, nil)

	child, err := NewSexualReproduction(f, nil).CreateChild(p1, p2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, connectionIDs(child))
	assert.ElementsMatch(t, []int{10, 11, 12}, hiddenIDs(child))
}

func TestCrossoverMatchingGenesComeFromEitherParent(t *testing.T) {
	f := testFactory(t, 4)
	p1, p2 := crossoverParents(t, f)
	repro := NewSexualReproduction(f, nil)

	seen := map[float64]bool{}
	for i := 0; i < 64; i++ {
		child, err := repro.CreateChild(p1, p2)
		require.NoError(t, err)
		idx := child.ConnectionIndex(1)
		require.GreaterOrEqual(t, idx, 0)
		seen[child.Connections[idx].Weight] = true
	}
	assert.True(t, seen[1])
	assert.True(t, seen[2])
}

func TestCrossoverDoesNotAliasParents(t *testing.T) {
	f := testFactory(t, 4)
	p1, p2 := crossoverParents(t, f)
	child, err := NewSexualReproduction(f, nil).CreateChild(p1, p2)
	require.NoError(t, err)
	child.Connections[0].Weight = 100
	assert.NotEqual(t, 100.0, p1.Connections[0].Weight)
	assert.NotEqual(t, 100.0, p2.Connections[0].Weight)
}
