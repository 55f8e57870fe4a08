package neat

import (
	"errors"
	"math/rand"
	"time"
)

// NewRand returns a random source for the given seed. A zero seed selects a
// time-based seed, matching an unseeded run.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// DiscreteDistribution samples indices proportionally to a set of relative
// weights. Weights need not sum to 1.
type DiscreteDistribution struct {
	cumulative []float64
	total      float64
}

// NewDiscreteDistribution builds a sampler from non-negative relative weights.
func NewDiscreteDistribution(weights []float64) (*DiscreteDistribution, error) {
	if len(weights) == 0 {
		return nil, errors.New("discrete distribution: no weights")
	}
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, errors.New("discrete distribution: negative weight")
		}
		total += w
		cum[i] = total
	}
	if total <= 0 {
		return nil, errors.New("discrete distribution: weights sum to zero")
	}
	return &DiscreteDistribution{cumulative: cum, total: total}, nil
}

// Sample returns a zero-based index drawn from the distribution.
func (d *DiscreteDistribution) Sample(rng *rand.Rand) int {
	next := rng.Float64() * d.total
	for i, c := range d.cumulative {
		if next < c {
			return i
		}
	}
	// Float rounding can leave next == total.
	return len(d.cumulative) - 1
}

// Probability returns the normalized probability of index i.
func (d *DiscreteDistribution) Probability(i int) float64 {
	prev := 0.0
	if i > 0 {
		prev = d.cumulative[i-1]
	}
	return (d.cumulative[i] - prev) / d.total
}

// gaussian samples N(mean, stdev).
func gaussian(rng *rand.Rand, mean, stdev float64) float64 {
	return mean + stdev*rng.NormFloat64()
}
