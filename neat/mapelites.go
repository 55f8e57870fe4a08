package neat

import (
	"math"
	"sync"

	"go.uber.org/zap"
)

// BehaviorSelector maps a genome to one behavior-characteristic value.
// ok=false means the genome has no value on this axis and is skipped.
type BehaviorSelector func(g *Genome) (value float64, ok bool)

// AuxiliarySelector reads the named auxiliary fitness value.
func AuxiliarySelector(name string) BehaviorSelector {
	return func(g *Genome) (float64, bool) {
		v, ok := g.Fitness.Aux(name)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
}

// Emitter proposes offspring from one archive cell. It follows the cell's
// current elite.
type Emitter struct {
	X, Y  int
	Elite *Genome
}

// Generate applies create to the emitter's elite. A nil elite yields nil.
func (e *Emitter) Generate(create func(*Genome) *Genome) *Genome {
	if e.Elite == nil {
		return nil
	}
	return create(e.Elite)
}

// Archive is a MAP-Elites grid keeping the fittest genome per cell of a 2D
// behavior space, plus one emitter per occupied cell.
//
// Behavior bounds only ever grow. A cell is replaced only by a strictly
// fitter genome, so each cell's elite fitness never decreases.
// Archive is safe for concurrent use.
type Archive struct {
	mu sync.RWMutex

	gridSize     int
	xName, yName string
	xSel, ySel   BehaviorSelector

	minBehavior [2]float64
	maxBehavior [2]float64
	elites      [][]*Genome

	emitters []*Emitter
	// species mirrors the set of genomes currently on the grid.
	species []*Genome

	logger *zap.Logger
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*Archive)

// WithSeedEmitter adds an emitter at cell (0,0) bound to seed, so the archive
// can emit before anything has been integrated.
func WithSeedEmitter(seed *Genome) ArchiveOption {
	return func(a *Archive) {
		a.emitters = append(a.emitters, &Emitter{X: 0, Y: 0, Elite: seed})
	}
}

// WithArchiveLogger sets the archive logger.
func WithArchiveLogger(l *zap.Logger) ArchiveOption {
	return func(a *Archive) { a.logger = l }
}

// NewArchive creates an empty gridSize x gridSize archive.
func NewArchive(gridSize int, xName string, xSel BehaviorSelector, yName string, ySel BehaviorSelector, opts ...ArchiveOption) *Archive {
	a := &Archive{
		gridSize:    gridSize,
		xName:       xName,
		yName:       yName,
		xSel:        xSel,
		ySel:        ySel,
		minBehavior: [2]float64{math.MaxFloat64, math.MaxFloat64},
		maxBehavior: [2]float64{-math.MaxFloat64, -math.MaxFloat64},
		elites:      make([][]*Genome, gridSize),
		logger:      zap.NewNop(),
	}
	for i := range a.elites {
		a.elites[i] = make([]*Genome, gridSize)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewAuxiliaryArchive creates an archive whose axes are two auxiliary fitness values.
func NewAuxiliaryArchive(gridSize int, axes ArchiveAxes, opts ...ArchiveOption) *Archive {
	return NewArchive(gridSize, axes.X, AuxiliarySelector(axes.X), axes.Y, AuxiliarySelector(axes.Y), opts...)
}

// GridSize returns the number of cells per axis.
func (a *Archive) GridSize() int { return a.gridSize }

// Description returns the names of the x and y axes.
func (a *Archive) Description() (x, y string) { return a.xName, a.yName }

// IntegratePopulation places every genome with positive primary fitness into
// its behavior cell, replacing the cell's elite if strictly fitter. Bounds are
// widened over the whole batch before any genome is placed.
func (a *Archive) IntegratePopulation(population []*Genome) {
	type placed struct {
		g    *Genome
		x, y float64
	}
	batch := make([]placed, 0, len(population))
	for _, g := range population {
		if g == nil || !(g.Fitness.Primary > 0) {
			continue
		}
		x, okX := a.xSel(g)
		y, okY := a.ySel(g)
		if !okX || !okY {
			continue
		}
		batch = append(batch, placed{g, x, y})
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range batch {
		a.minBehavior[0] = math.Min(a.minBehavior[0], p.x)
		a.maxBehavior[0] = math.Max(a.maxBehavior[0], p.x)
		a.minBehavior[1] = math.Min(a.minBehavior[1], p.y)
		a.maxBehavior[1] = math.Max(a.maxBehavior[1], p.y)
	}
	replaced := 0
	for _, p := range batch {
		if a.updateCell(p.g, a.index(0, p.x), a.index(1, p.y)) {
			replaced++
		}
	}
	a.syncSpecies()

	a.logger.Debug("integrated population into archive",
		zap.String("x", a.xName),
		zap.String("y", a.yName),
		zap.Int("candidates", len(batch)),
		zap.Int("replaced", replaced),
		zap.Int("occupied", len(a.species)))
}

// index maps a behavior value to a cell on the given axis. The exact bounds
// map to the first and last cells.
func (a *Archive) index(axis int, v float64) int {
	lo, hi := a.minBehavior[axis], a.maxBehavior[axis]
	if v == lo {
		return 0
	}
	if v == hi {
		return a.gridSize - 1
	}
	i := int(math.Floor((v - lo) / (hi - lo) * float64(a.gridSize-1)))
	if i < 0 {
		i = 0
	}
	if i >= a.gridSize {
		i = a.gridSize - 1
	}
	return i
}

// updateCell must be called with mu held. It reports whether the elite changed.
func (a *Archive) updateCell(g *Genome, x, y int) bool {
	cur := a.elites[x][y]
	replaced := cur == nil || g.Fitness.Primary > cur.Fitness.Primary
	if replaced {
		a.elites[x][y] = g
	}
	elite := a.elites[x][y]
	for _, e := range a.emitters {
		if e.X == x && e.Y == y {
			e.Elite = elite
			return replaced
		}
	}
	a.emitters = append(a.emitters, &Emitter{X: x, Y: y, Elite: elite})
	return replaced
}

// syncSpecies must be called with mu held.
func (a *Archive) syncSpecies() {
	onGrid := make(map[int]*Genome)
	var order []*Genome
	for _, row := range a.elites {
		for _, g := range row {
			if g == nil {
				continue
			}
			if _, ok := onGrid[g.ID]; !ok {
				onGrid[g.ID] = g
				order = append(order, g)
			}
		}
	}

	kept := a.species[:0]
	inSpecies := make(map[int]struct{}, len(a.species))
	for _, g := range a.species {
		if _, ok := onGrid[g.ID]; ok {
			kept = append(kept, g)
			inSpecies[g.ID] = struct{}{}
		}
	}
	for _, g := range order {
		if _, ok := inSpecies[g.ID]; !ok {
			kept = append(kept, g)
		}
	}
	a.species = kept
}

// Emit applies create to every emitter's elite and returns the non-nil
// results. The offspring are not integrated; evaluate them first.
// create is called without the archive lock held.
func (a *Archive) Emit(create func(*Genome) *Genome) []*Genome {
	a.mu.RLock()
	emitters := make([]Emitter, len(a.emitters))
	for i, e := range a.emitters {
		emitters[i] = *e
	}
	a.mu.RUnlock()

	out := make([]*Genome, 0, len(emitters))
	for i := range emitters {
		if g := emitters[i].Generate(create); g != nil {
			out = append(out, g)
		}
	}
	return out
}

// EmitAndUpdate emits one offspring per emitter and integrates them. Only
// offspring that create has already given a positive fitness can be placed.
func (a *Archive) EmitAndUpdate(create func(*Genome) *Genome) []*Genome {
	offspring := a.Emit(create)
	a.IntegratePopulation(offspring)
	return offspring
}

// Elite returns the genome stored at cell (x, y), or nil.
func (a *Archive) Elite(x, y int) *Genome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.elites[x][y]
}

// Elites returns a copy of the grid.
func (a *Archive) Elites() [][]*Genome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([][]*Genome, a.gridSize)
	for i, row := range a.elites {
		out[i] = append([]*Genome(nil), row...)
	}
	return out
}

// Species returns the distinct genomes currently on the grid.
func (a *Archive) Species() []*Genome {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Genome(nil), a.species...)
}

// Emitters returns a snapshot of the emitters.
func (a *Archive) Emitters() []Emitter {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Emitter, len(a.emitters))
	for i, e := range a.emitters {
		out[i] = *e
	}
	return out
}

// Bounds returns the running behavior bounds for the x and y axes.
func (a *Archive) Bounds() (min, max [2]float64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.minBehavior, a.maxBehavior
}

// Occupied returns the number of filled cells.
func (a *Archive) Occupied() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, row := range a.elites {
		for _, g := range row {
			if g != nil {
				n++
			}
		}
	}
	return n
}

// Coverage returns the fraction of filled cells.
func (a *Archive) Coverage() float64 {
	return float64(a.Occupied()) / float64(a.gridSize*a.gridSize)
}
