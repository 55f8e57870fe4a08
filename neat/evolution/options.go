package evolution

import (
	"math/rand"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/baldhumanity/helix/neat"
	"github.com/baldhumanity/helix/neat/journal"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger. The same logger is handed to the
// reproduction, speciation and archive components.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRand replaces the config-seeded random source.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// WithBestGenomeObserver registers fn to receive the best genome after every generation.
func WithBestGenomeObserver(fn func(*neat.Genome)) Option {
	return func(r *Runner) { r.bestObservers = append(r.bestObservers, fn) }
}

// WithGenerationObserver registers fn to receive every generation report.
func WithGenerationObserver(fn func(Report)) Option {
	return func(r *Runner) { r.generationObservers = append(r.generationObservers, fn) }
}

// WithJournal appends a record per generation to store. The store must
// already be initialised.
func WithJournal(store journal.Store) Option {
	return func(r *Runner) { r.journal = store }
}

// WithRegisterer exports runner metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runner) { r.registerer = reg }
}
