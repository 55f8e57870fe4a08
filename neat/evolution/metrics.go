package evolution

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	generation      prometheus.Gauge
	bestFitness     prometheus.Gauge
	meanFitness     prometheus.Gauge
	species         prometheus.Gauge
	population      prometheus.Gauge
	evaluated       prometheus.Counter
	failures        prometheus.Counter
	duration        prometheus.Histogram
	archiveCoverage *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer, runID string) (*metrics, error) {
	labels := prometheus.Labels{"run_id": runID}
	m := &metrics{
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helix_evolution_generation", ConstLabels: labels,
			Help: "Number of completed generations."}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helix_evolution_best_fitness", ConstLabels: labels,
			Help: "Primary fitness of the best genome in the population."}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helix_evolution_mean_fitness", ConstLabels: labels,
			Help: "Mean primary fitness of the population."}),
		species: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helix_evolution_species", ConstLabels: labels,
			Help: "Number of species in the last generation."}),
		population: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helix_evolution_population_size", ConstLabels: labels,
			Help: "Population size after merging offspring."}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helix_evolution_genomes_evaluated_total", ConstLabels: labels,
			Help: "Genomes passed to the fitness evaluator."}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helix_evolution_evaluation_failures_total", ConstLabels: labels,
			Help: "Evaluations that panicked and were assigned zero fitness."}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "helix_evolution_generation_seconds", ConstLabels: labels,
			Help:    "Wall time of one generation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10)}),
		archiveCoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "helix_evolution_archive_coverage", ConstLabels: labels,
			Help: "Fraction of filled MAP-Elites cells."}, []string{"archive"}),
	}
	for _, c := range []prometheus.Collector{
		m.generation, m.bestFitness, m.meanFitness, m.species, m.population,
		m.evaluated, m.failures, m.duration, m.archiveCoverage,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(rep Report) {
	if m == nil {
		return
	}
	m.generation.Set(float64(rep.Generation))
	m.bestFitness.Set(rep.BestFitness)
	m.meanFitness.Set(rep.MeanFitness)
	m.species.Set(float64(rep.Species))
	m.population.Set(float64(rep.PopulationSize))
	m.evaluated.Add(float64(rep.Evaluated))
	m.failures.Add(float64(rep.Failed))
	m.duration.Observe(rep.Duration.Seconds())
	for i, c := range rep.ArchiveCoverage {
		m.archiveCoverage.WithLabelValues(rep.Archives[i]).Set(c)
	}
}
