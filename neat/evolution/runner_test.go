package evolution

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/baldhumanity/helix/neat"
	"github.com/baldhumanity/helix/neat/journal"
	"github.com/baldhumanity/helix/neat/nn"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *neat.Config {
	cfg := neat.DefaultConfig()
	cfg.Evolution.PopulationSize = 12
	cfg.Evolution.MaxPopulation = 30
	cfg.Evolution.NumInputs = 2
	cfg.Evolution.NumOutputs = 1
	cfg.MapElites.GridSize = 4
	cfg.MapElites.Archives = []string{"out:square"}
	return cfg
}

func outputEvaluator(p nn.Phenome) neat.Fitness {
	in := p.Inputs()
	in[0], in[1] = 1, 0.5
	p.Activate()
	o := p.Outputs()[0]
	return neat.Fitness{Primary: o, Auxiliary: map[string]float64{"out": o, "square": o * o}}
}

func newTestRunner(t *testing.T, cfg *neat.Config, eval Evaluator, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewSource(1))), WithLogger(zaptest.NewLogger(t))}, opts...)
	r, err := New(cfg, eval, opts...)
	require.NoError(t, err)
	return r
}

func TestNewValidatesInput(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Evolution.PopulationSize = 0
	_, err = New(cfg, outputEvaluator)
	assert.ErrorContains(t, err, "population_size")
}

func TestStep(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	var bests []*neat.Genome
	var reports []Report
	r := newTestRunner(t, testConfig(), outputEvaluator,
		WithJournal(store),
		WithBestGenomeObserver(func(g *neat.Genome) { bests = append(bests, g) }),
		WithGenerationObserver(func(rep Report) { reports = append(reports, rep) }))
	assert.Len(t, r.Population(), 12)
	assert.Len(t, r.Archives(), 1)

	for i := 1; i <= 3; i++ {
		rep, err := r.Step(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, rep.Generation)
		assert.Equal(t, r.RunID(), rep.RunID)
		assert.Positive(t, rep.Evaluated)
		assert.Zero(t, rep.Failed)
		assert.Positive(t, rep.Species)
		assert.LessOrEqual(t, rep.PopulationSize, 30)
		assert.Equal(t, []string{"out:square"}, rep.Archives)
		require.Len(t, rep.ArchiveCoverage, 1)
		assert.Positive(t, rep.ArchiveCoverage[0])
	}
	assert.Equal(t, 3, r.Generation())
	assert.Len(t, bests, 3)
	assert.Len(t, reports, 3)

	pop := r.Population()
	for i := 1; i < len(pop); i++ {
		assert.GreaterOrEqual(t, pop[i-1].Fitness.Primary, pop[i].Fitness.Primary)
	}
	assert.Same(t, pop[0], bests[2])
	assert.GreaterOrEqual(t, reports[2].BestFitness, reports[0].BestFitness, "merge keeps the best genome")

	records, err := store.Records(ctx, r.RunID())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, reports[2].BestFitness, records[2].BestFitness)
	assert.Equal(t, reports[2].Best.ID, records[2].BestGenomeID)
}

func TestStepHonoursCancelledContext(t *testing.T) {
	r := newTestRunner(t, testConfig(), outputEvaluator)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, r.Generation())
}

func TestEvaluationFailuresAreIsolated(t *testing.T) {
	var calls atomic.Int64
	eval := func(p nn.Phenome) neat.Fitness {
		if calls.Add(1)%3 == 0 {
			panic("simulator crashed")
		}
		return outputEvaluator(p)
	}
	r := newTestRunner(t, testConfig(), eval)

	rep, err := r.Step(context.Background())
	require.NoError(t, err)
	assert.Positive(t, rep.Failed)
	assert.Equal(t, 1, rep.Generation)
	assert.Positive(t, rep.BestFitness)

	zero := 0
	for _, g := range r.Population() {
		if g.Fitness.Primary == 0 {
			zero++
		}
	}
	assert.GreaterOrEqual(t, zero, rep.Failed)
}

func TestNonFiniteFitnessIsZeroed(t *testing.T) {
	r := newTestRunner(t, testConfig(), func(nn.Phenome) neat.Fitness {
		return neat.Fitness{Primary: nanValue()}
	})
	rep, err := r.Step(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.BestFitness)
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestRunsAreReproducibleForASeed(t *testing.T) {
	run := func() []float64 {
		r := newTestRunner(t, testConfig(), outputEvaluator)
		var out []float64
		for i := 0; i < 4; i++ {
			rep, err := r.Step(context.Background())
			require.NoError(t, err)
			out = append(out, rep.BestFitness, rep.MeanFitness, float64(rep.PopulationSize))
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRunner(t, testConfig(), outputEvaluator, WithRegisterer(reg))
	_, err := r.Step(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetGauge() != nil:
			values[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, values["helix_evolution_generation"])
	assert.Positive(t, values["helix_evolution_genomes_evaluated_total"])
	assert.Positive(t, values["helix_evolution_archive_coverage"])

	// A second runner gets its own run_id label, so registration succeeds.
	_, err = New(testConfig(), outputEvaluator, WithRegisterer(reg))
	assert.NoError(t, err)
}

func waitForState(t *testing.T, r *Runner, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return r.State() == want }, 5*time.Second, time.Millisecond)
}

func TestStartPauseResumeStop(t *testing.T) {
	generations := make(chan int, 1024)
	r := newTestRunner(t, testConfig(), outputEvaluator,
		WithGenerationObserver(func(rep Report) {
			select {
			case generations <- rep.Generation:
			default:
			}
		}))
	assert.Equal(t, Idle, r.State())

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyStarted)
	<-generations

	r.TogglePause()
	assert.Equal(t, Paused, r.State())
	// At most the generation in flight completes after pausing.
	time.Sleep(100 * time.Millisecond)
	paused := r.Generation()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, paused, r.Generation())

	r.TogglePause()
	assert.Equal(t, Running, r.State())
	require.Eventually(t, func() bool { return r.Generation() > paused }, 5*time.Second, time.Millisecond)

	r.Stop()
	require.NoError(t, r.Wait())
	assert.Equal(t, Stopped, r.State())
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyStarted)
}

func TestStopWhilePaused(t *testing.T) {
	r := newTestRunner(t, testConfig(), outputEvaluator)
	require.NoError(t, r.Start(context.Background()))
	r.Pause()
	r.Stop()
	require.NoError(t, r.Wait())
	waitForState(t, r, Stopped)
}

func TestContextCancellationStopsLoop(t *testing.T) {
	r := newTestRunner(t, testConfig(), outputEvaluator)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	cancel()
	require.NoError(t, r.Wait())
	assert.Equal(t, Stopped, r.State())
}

func TestStopIdleRunner(t *testing.T) {
	r := newTestRunner(t, testConfig(), outputEvaluator)
	r.Stop()
	r.Stop()
	require.NoError(t, r.Wait())
	assert.Equal(t, Stopped, r.State())
	r.Resume()
	r.Pause()
	assert.Equal(t, Stopped, r.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "unknown", State(42).String())
}
