package neat

import (
	"sort"

	"go.uber.org/zap"
)

// --------------------------- Population ---------------------------

// Population is a bounded collection of genomes kept sorted by descending
// primary fitness. Every insert trims it back to its capacity.
type Population struct {
	capacity int
	genomes  []*Genome
}

// NewPopulation creates an empty population holding at most capacity genomes.
func NewPopulation(capacity int) *Population {
	return &Population{capacity: capacity}
}

// Add inserts genomes, re-sorts and trims to capacity. Ties keep insertion order.
func (p *Population) Add(genomes ...*Genome) {
	p.genomes = append(p.genomes, genomes...)
	sort.SliceStable(p.genomes, func(i, j int) bool {
		return p.genomes[i].Fitness.Primary > p.genomes[j].Fitness.Primary
	})
	if len(p.genomes) > p.capacity {
		// Clear the dropped tail so trimmed genomes can be collected.
		for i := p.capacity; i < len(p.genomes); i++ {
			p.genomes[i] = nil
		}
		p.genomes = p.genomes[:p.capacity]
	}
}

// Genomes returns the members, fittest first. The slice must not be modified.
func (p *Population) Genomes() []*Genome {
	return p.genomes
}

// Len returns the number of members.
func (p *Population) Len() int {
	return len(p.genomes)
}

// Capacity returns the maximum number of members.
func (p *Population) Capacity() int {
	return p.capacity
}

// Best returns the fittest member, or nil when empty.
func (p *Population) Best() *Genome {
	if len(p.genomes) == 0 {
		return nil
	}
	return p.genomes[0]
}

// Parents returns the top half of the members (rounded up), the genomes
// allowed to reproduce.
func (p *Population) Parents() []*Genome {
	return p.genomes[:(len(p.genomes)+1)/2]
}

// ProduceOffspring creates one asexual child per parent. Mutation no-ops and
// invalid children are logged by the reproduction and still returned.
func (p *Population) ProduceOffspring(repro *AsexualReproduction) []*Genome {
	parents := p.Parents()
	children := make([]*Genome, 0, len(parents))
	for _, parent := range parents {
		child, _ := repro.CreateChild(parent)
		children = append(children, child)
	}
	return children
}

// Fitnesses returns the primary fitness of each member.
func (p *Population) Fitnesses() []float64 {
	out := make([]float64, len(p.genomes))
	for i, g := range p.genomes {
		out[i] = g.Fitness.Primary
	}
	return out
}

// --------------------------- Species ---------------------------

// Species represents a group of genetically similar genomes.
type Species struct {
	ID             int
	Representative *Genome
	Population     *Population
	// Fitness is filled in by a Stagnation tracker.
	Fitness float64
}

// --------------------------- Speciation ---------------------------

// Speciation partitions a population by genetic distance. Assignment is
// first-fit in input order: a genome joins the first species whose
// representative is strictly closer than the threshold, otherwise it founds a
// new species and becomes its representative.
type Speciation struct {
	distance  DistanceFunc
	threshold float64
	capacity  int
	species   []*Species
	logger    *zap.Logger
}

// NewSpeciation creates a speciation step. A nil distance uses Distance.
func NewSpeciation(distance DistanceFunc, cfg SpeciationConfig, logger *zap.Logger) *Speciation {
	if distance == nil {
		distance = Distance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Speciation{
		distance:  distance,
		threshold: cfg.DistanceThreshold,
		capacity:  cfg.SpeciesCapacity,
		logger:    logger,
	}
}

// Speciate rebuilds the species list from scratch for population.
func (s *Speciation) Speciate(population []*Genome) []*Species {
	s.species = make([]*Species, 0, len(s.species))
	cache := NewDistanceCache(s.distance)

	for _, g := range population {
		found := false
		for _, sp := range s.species {
			if cache.Distance(sp.Representative, g) < s.threshold {
				sp.Population.Add(g)
				found = true
				break
			}
		}
		if !found {
			sp := &Species{
				ID:             len(s.species) + 1,
				Representative: g,
				Population:     NewPopulation(s.capacity),
			}
			sp.Population.Add(g)
			s.species = append(s.species, sp)
		}
	}

	s.logger.Debug("speciated population",
		zap.Int("genomes", len(population)),
		zap.Int("species", len(s.species)),
		zap.Int("distance_cache_hits", cache.Hits),
		zap.Int("distance_cache_misses", cache.Misses))
	return s.species
}

// Species returns the species from the last Speciate call.
func (s *Speciation) Species() []*Species {
	return s.species
}
