package neat

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
)

// EqualFitnessTolerance is the difference below which two parents count as equally fit.
const EqualFitnessTolerance = 1e-8

type weightedStrategy struct {
	weight   float64
	strategy MutationStrategy
}

// AsexualReproduction creates children by cloning a parent and applying one
// mutation strategy chosen by relative weight.
type AsexualReproduction struct {
	factory    *Factory
	strategies []weightedStrategy
	dist       *DiscreteDistribution
	logger     *zap.Logger
}

// NewAsexualReproduction builds the five standard strategies from cfg.
func NewAsexualReproduction(factory *Factory, cfg MutationConfig, logger *zap.Logger) (*AsexualReproduction, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sel, err := NewDiscreteDistribution(cfg.WeightSelectionWeights)
	if err != nil {
		return nil, fmt.Errorf("weight selection: %w", err)
	}
	reg := factory.Innovations()
	strategies := []weightedStrategy{
		{cfg.AddNodeWeight, &AddNodeMutation{Innovations: reg}},
		{cfg.AddConnectionWeight, &AddConnectionMutation{Innovations: reg, Attempts: cfg.AddConnectionAttempts}},
		{cfg.MutateIntegratorWeight, &MutateIntegratorMutation{}},
		{cfg.MutateActivationWeight, &MutateActivationMutation{}},
		{cfg.MutateWeightsWeight, &MutateWeightsMutation{
			Selection:        sel,
			DeltaProbability: cfg.WeightDeltaProbability,
			DeltaStdev:       cfg.WeightDeltaStdev,
		}},
	}
	return newAsexualReproduction(factory, strategies, logger)
}

// NewAsexualReproductionWith uses a custom set of strategies. weights and
// strategies are matched by index.
func NewAsexualReproductionWith(factory *Factory, weights []float64, strategies []MutationStrategy, logger *zap.Logger) (*AsexualReproduction, error) {
	if len(weights) != len(strategies) {
		return nil, fmt.Errorf("got %d weights for %d strategies", len(weights), len(strategies))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ws := make([]weightedStrategy, len(strategies))
	for i := range strategies {
		ws[i] = weightedStrategy{weights[i], strategies[i]}
	}
	return newAsexualReproduction(factory, ws, logger)
}

func newAsexualReproduction(factory *Factory, strategies []weightedStrategy, logger *zap.Logger) (*AsexualReproduction, error) {
	weights := make([]float64, len(strategies))
	for i, s := range strategies {
		weights[i] = s.weight
	}
	dist, err := NewDiscreteDistribution(weights)
	if err != nil {
		return nil, fmt.Errorf("mutation weights: %w", err)
	}
	return &AsexualReproduction{factory: factory, strategies: strategies, dist: dist, logger: logger}, nil
}

// StrategyProbability returns the normalized selection probability of the named strategy.
func (a *AsexualReproduction) StrategyProbability(name string) float64 {
	for i, s := range a.strategies {
		if s.strategy.Name() == name {
			return a.dist.Probability(i)
		}
	}
	return 0
}

// CreateChild clones parent and applies one weighted-random mutation.
//
// The child is always non-nil. The error is non-nil when the mutation left the
// child unchanged (IsNoop) or when the child carries duplicate innovation IDs
// (ErrInvalidInnovations); in both cases the child is still usable.
func (a *AsexualReproduction) CreateChild(parent *Genome) (*Genome, error) {
	rng := a.factory.Rand()
	strategy := a.strategies[a.dist.Sample(rng)].strategy
	child := a.factory.CreateFrom(parent)

	if err := strategy.Mutate(child, rng); err != nil {
		a.logger.Debug("mutation left genome unchanged",
			zap.String("strategy", strategy.Name()),
			zap.Int("parent", parent.ID),
			zap.Error(err))
		return child, err
	}
	if err := child.Validate(); err != nil {
		a.logger.Warn("mutation produced invalid genome",
			zap.String("strategy", strategy.Name()),
			zap.Int("genome", child.ID),
			zap.Error(err))
		return child, err
	}
	return child, nil
}

// SexualReproduction aligns two parents by innovation ID and recombines them.
type SexualReproduction struct {
	factory *Factory
	logger  *zap.Logger
}

// NewSexualReproduction creates a crossover operator.
func NewSexualReproduction(factory *Factory, logger *zap.Logger) *SexualReproduction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SexualReproduction{factory: factory, logger: logger}
}

// CreateChild recombines two parents.
//
// Matching genes (same ID in both parents) come from a random parent. Genes
// unique to one parent are inherited only from the fitter parent, or from both
// when the primary fitness values are within EqualFitnessTolerance. Hidden
// neurons and connections follow the same rule independently.
//
// The child is always returned. A non-nil error wraps ErrInvalidInnovations
// and is diagnostic only.
func (s *SexualReproduction) CreateChild(parent1, parent2 *Genome) (*Genome, error) {
	rng := s.factory.Rand()

	equal := math.Abs(parent1.Fitness.Primary-parent2.Fitness.Primary) < EqualFitnessTolerance
	keep1, keep2 := true, true
	base := parent1
	if !equal {
		if parent1.Fitness.Primary > parent2.Fitness.Primary {
			keep2 = false
		} else {
			keep1 = false
			base = parent2
		}
	}

	child := s.factory.CreateFrom(base)
	child.Hidden = crossoverGenes(parent1.Hidden, parent2.Hidden, keep1, keep2, rng,
		func(h HiddenNeuron) int { return h.ID })
	child.Connections = crossoverGenes(parent1.Connections, parent2.Connections, keep1, keep2, rng,
		func(c Connection) int { return c.ID })

	if err := child.Validate(); err != nil {
		s.logger.Warn("crossover produced invalid genome",
			zap.Int("parent1", parent1.ID),
			zap.Int("parent2", parent2.ID),
			zap.Error(err))
		return child, err
	}
	return child, nil
}

// crossoverGenes walks parent 1's genes and then parent 2's disjoint genes.
// Genes are values, so the result never aliases a parent.
func crossoverGenes[T any](genes1, genes2 []T, keep1, keep2 bool, rng *rand.Rand, id func(T) int) []T {
	byID2 := make(map[int]T, len(genes2))
	for _, g := range genes2 {
		byID2[id(g)] = g
	}
	inParent1 := make(map[int]struct{}, len(genes1))

	out := make([]T, 0, len(genes1)+len(genes2))
	for _, g1 := range genes1 {
		inParent1[id(g1)] = struct{}{}
		if g2, ok := byID2[id(g1)]; ok {
			if rng.Float64() < 0.5 {
				out = append(out, g1)
			} else {
				out = append(out, g2)
			}
			continue
		}
		if keep1 {
			out = append(out, g1)
		}
	}
	if keep2 {
		for _, g2 := range genes2 {
			if _, ok := inParent1[id(g2)]; !ok {
				out = append(out, g2)
			}
		}
	}
	return out
}
