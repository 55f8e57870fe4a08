// Package evolution runs the generational loop: speciate, reproduce, evaluate,
// merge and integrate into the MAP-Elites archives.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/baldhumanity/helix/neat"
	"github.com/baldhumanity/helix/neat/journal"
	"github.com/baldhumanity/helix/neat/nn"
)

// Evaluator scores one decoded genome. It is called concurrently for
// distinct genomes and must not retain the phenome.
type Evaluator func(p nn.Phenome) neat.Fitness

// ErrAlreadyStarted is returned by Start on a runner that is not idle.
var ErrAlreadyStarted = errors.New("runner already started")

// Report summarises one generation.
type Report struct {
	RunID      string
	Generation int
	Best       *neat.Genome

	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64

	PopulationSize int
	// Evaluated counts offspring and emitted genomes sent to the evaluator.
	Evaluated int
	// Failed counts evaluations that panicked.
	Failed  int
	Species int

	Stagnation neat.StagnationInfo

	// Archives names each archive as "x:y"; ArchiveCoverage is index-aligned.
	Archives        []string
	ArchiveCoverage []float64

	Duration time.Duration
}

// Runner owns a population and evolves it one generation at a time, either
// synchronously through Step or on a background goroutine through Start.
//
// A stuck evaluator blocks its generation; cancellation is only observed
// between generations.
type Runner struct {
	cfg       *neat.Config
	evaluator Evaluator
	logger    *zap.Logger
	rng       *rand.Rand
	runID     string

	factory    *neat.Factory
	asexual    *neat.AsexualReproduction
	speciation *neat.Speciation
	stagnation *neat.Stagnation
	archives   []*neat.Archive
	archiveIDs []string

	bestObservers       []func(*neat.Genome)
	generationObservers []func(Report)
	journal             journal.Store
	registerer          prometheus.Registerer
	metrics             *metrics

	// stepMu serialises generations and guards the fields below it.
	stepMu     sync.Mutex
	population []*neat.Genome
	generation int
	evaluated  bool

	control
}

// New builds a runner with a fresh population of cfg.Evolution.PopulationSize
// minimal genomes.
func New(cfg *neat.Config, evaluator Evaluator, opts ...Option) (*Runner, error) {
	if cfg == nil {
		cfg = neat.DefaultConfig()
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:       cfg,
		evaluator: evaluator,
		logger:    zap.NewNop(),
		runID:     uuid.NewString(),
	}
	r.done = make(chan struct{})
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = neat.NewRand(cfg.Evolution.Seed)
	}
	r.logger = r.logger.With(zap.String("run_id", r.runID))

	r.factory = neat.NewFactory(neat.NewInnovationRegistry(), r.rng)
	r.factory.InputLabels = cfg.Evolution.InputLabels
	r.factory.OutputLabels = cfg.Evolution.OutputLabels

	var err error
	r.asexual, err = neat.NewAsexualReproduction(r.factory, cfg.Mutation, r.logger)
	if err != nil {
		return nil, fmt.Errorf("asexual reproduction: %w", err)
	}
	r.stagnation, err = neat.NewStagnation(cfg.Stagnation)
	if err != nil {
		return nil, err
	}
	r.speciation = neat.NewSpeciation(neat.Distance, cfg.Speciation, r.logger)

	r.population, err = r.factory.CreatePopulation(cfg.Evolution.PopulationSize,
		cfg.Evolution.NumInputs, cfg.Evolution.NumOutputs)
	if err != nil {
		return nil, fmt.Errorf("initial population: %w", err)
	}

	axes, err := cfg.MapElites.Axes()
	if err != nil {
		return nil, err
	}
	for _, ax := range axes {
		r.archives = append(r.archives, neat.NewAuxiliaryArchive(cfg.MapElites.GridSize, ax,
			neat.WithSeedEmitter(r.population[0]),
			neat.WithArchiveLogger(r.logger)))
		r.archiveIDs = append(r.archiveIDs, ax.X+":"+ax.Y)
	}

	if r.registerer != nil {
		r.metrics, err = newMetrics(r.registerer, r.runID)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return r, nil
}

// RunID identifies this run in logs, metrics and the journal.
func (r *Runner) RunID() string { return r.runID }

// Factory returns the genome factory shared by all reproduction operators.
func (r *Runner) Factory() *neat.Factory { return r.factory }

// Archives returns the MAP-Elites archives in config order.
func (r *Runner) Archives() []*neat.Archive { return r.archives }

// Population returns a snapshot of the current population, fittest first
// once the first generation has completed.
func (r *Runner) Population() []*neat.Genome {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()
	return append([]*neat.Genome(nil), r.population...)
}

// Generation returns the number of completed generations.
func (r *Runner) Generation() int {
	r.stepMu.Lock()
	defer r.stepMu.Unlock()
	return r.generation
}

// Step runs exactly one generation. It returns ctx.Err() without doing any
// work if ctx is already done.
func (r *Runner) Step(ctx context.Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	r.stepMu.Lock()
	defer r.stepMu.Unlock()

	start := time.Now()
	failed := 0
	if !r.evaluated {
		if r.cfg.Evolution.EvaluateInitial {
			failed += r.evaluate(r.population)
		}
		r.evaluated = true
	}

	species := r.speciation.Speciate(r.population)
	var offspring []*neat.Genome
	for _, sp := range species {
		offspring = append(offspring, sp.Population.ProduceOffspring(r.asexual)...)
	}
	if r.cfg.Evolution.EmitFromArchives {
		for _, a := range r.archives {
			offspring = append(offspring, a.Emit(r.emitChild)...)
		}
	}

	failed += r.evaluate(offspring)
	r.population = r.merge(r.population, offspring)

	for _, a := range r.archives {
		a.IntegratePopulation(r.population)
	}

	r.generation++
	rep := r.report(species, len(offspring), failed)
	rep.Duration = time.Since(start)
	r.publish(ctx, rep)
	return rep, nil
}

// emitChild mutates an archive elite. No-op and invalid children are kept;
// AsexualReproduction already logs them.
func (r *Runner) emitChild(elite *neat.Genome) *neat.Genome {
	child, _ := r.asexual.CreateChild(elite)
	return child
}

// evaluate decodes and scores genomes in parallel. A panicking decode or
// evaluation zeroes that genome's fitness and is counted as a failure; the
// rest of the batch is unaffected.
func (r *Runner) evaluate(genomes []*neat.Genome) int {
	var failures atomic.Int64
	p := pool.New().WithMaxGoroutines(r.cfg.Evolution.EvaluationWorkers())
	for _, g := range genomes {
		p.Go(func() {
			defer func() {
				if rec := recover(); rec != nil {
					g.Fitness = neat.Fitness{}
					failures.Add(1)
					r.logger.Error("genome evaluation panicked",
						zap.Int("genome", g.ID),
						zap.Any("panic", rec))
				}
			}()
			fit := r.evaluator(nn.DecodePhenome(g, r.cfg.Network))
			if math.IsNaN(fit.Primary) || math.IsInf(fit.Primary, 0) {
				r.logger.Warn("non-finite fitness replaced with zero",
					zap.Int("genome", g.ID),
					zap.Float64("fitness", fit.Primary))
				fit.Primary = 0
			}
			g.Fitness = fit
		})
	}
	p.Wait()
	return int(failures.Load())
}

// merge appends offspring, sorts by descending primary fitness and applies
// the max_population cap. Ties keep their previous order.
func (r *Runner) merge(population, offspring []*neat.Genome) []*neat.Genome {
	merged := make([]*neat.Genome, 0, len(population)+len(offspring))
	merged = append(merged, population...)
	merged = append(merged, offspring...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Fitness.Primary > merged[j].Fitness.Primary
	})
	if limit := r.cfg.Evolution.MaxPopulation; limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (r *Runner) report(species []*neat.Species, evaluated, failed int) Report {
	fitnesses := make([]float64, len(r.population))
	for i, g := range r.population {
		fitnesses[i] = g.Fitness.Primary
	}
	best := r.population[0]
	rep := Report{
		RunID:          r.runID,
		Generation:     r.generation,
		Best:           best,
		BestFitness:    best.Fitness.Primary,
		MeanFitness:    neat.Mean(fitnesses),
		StdevFitness:   neat.Stdev(fitnesses),
		PopulationSize: len(r.population),
		Evaluated:      evaluated,
		Failed:         failed,
		Species:        len(species),
		Stagnation:     r.stagnation.Update(r.generation, best.Fitness.Primary, species),
		Archives:       r.archiveIDs,
	}
	for _, a := range r.archives {
		rep.ArchiveCoverage = append(rep.ArchiveCoverage, a.Coverage())
	}
	return rep
}

func (r *Runner) publish(ctx context.Context, rep Report) {
	r.logger.Info("generation complete",
		zap.Int("generation", rep.Generation),
		zap.Float64("best_fitness", rep.BestFitness),
		zap.Float64("mean_fitness", rep.MeanFitness),
		zap.Int("species", rep.Species),
		zap.Int("evaluated", rep.Evaluated),
		zap.Int("failed", rep.Failed),
		zap.Int("since_improvement", rep.Stagnation.GenerationsSinceImprovement),
		zap.Duration("duration", rep.Duration))
	if rep.Stagnation.IsStagnant && rep.Stagnation.GenerationsSinceImprovement == r.cfg.Stagnation.MaxStagnation {
		r.logger.Warn("population stagnant",
			zap.Int("generations", rep.Stagnation.GenerationsSinceImprovement))
	}

	r.metrics.observe(rep)

	if r.journal != nil {
		rec := journal.Record{
			RunID:            rep.RunID,
			Generation:       rep.Generation,
			Time:             time.Now(),
			BestGenomeID:     rep.Best.ID,
			BestFitness:      rep.BestFitness,
			MeanFitness:      rep.MeanFitness,
			StdevFitness:     rep.StdevFitness,
			PopulationSize:   rep.PopulationSize,
			Evaluated:        rep.Evaluated,
			Species:          rep.Species,
			SinceImprovement: rep.Stagnation.GenerationsSinceImprovement,
			ArchiveCoverage:  rep.ArchiveCoverage,
		}
		// Journal failures are reported but do not stop the run.
		if err := r.journal.Append(context.WithoutCancel(ctx), rec); err != nil {
			r.logger.Warn("journal append failed", zap.Int("generation", rep.Generation), zap.Error(err))
		}
	}

	for _, fn := range r.bestObservers {
		fn(rep.Best)
	}
	for _, fn := range r.generationObservers {
		fn(rep)
	}
}
