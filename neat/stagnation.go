package neat

import (
	"fmt"
	"math"
	"strings"
)

// Stagnation tracks how long a run has gone without improving its best
// primary fitness and computes a fitness value for each species.
type Stagnation struct {
	Config             StagnationConfig
	SpeciesFitnessFunc func([]float64) float64

	best         float64
	lastImproved int
}

// NewStagnation creates a tracker using the configured statistic.
func NewStagnation(config StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{
		Config:             config,
		SpeciesFitnessFunc: fn,
		best:               math.Inf(-1),
	}, nil
}

// StagnationInfo summarises one Update call.
type StagnationInfo struct {
	Improved                    bool
	GenerationsSinceImprovement int
	IsStagnant                  bool
}

// Update records the best fitness seen in generation and assigns each
// species its fitness.
func (s *Stagnation) Update(generation int, best float64, species []*Species) StagnationInfo {
	for _, sp := range species {
		if sp.Population.Len() == 0 {
			sp.Fitness = math.Inf(-1)
			continue
		}
		sp.Fitness = s.SpeciesFitnessFunc(sp.Population.Fitnesses())
	}

	improved := best > s.best
	if improved {
		s.best = best
		s.lastImproved = generation
	}
	since := generation - s.lastImproved
	return StagnationInfo{
		Improved:                    improved,
		GenerationsSinceImprovement: since,
		IsStagnant:                  since >= s.Config.MaxStagnation,
	}
}
