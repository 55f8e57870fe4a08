package neat

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func behaviorGenome(id int, primary, x, y float64) *Genome {
	return withFitness(&Genome{ID: id}, primary, map[string]float64{"x": x, "y": y})
}

func testArchive(opts ...ArchiveOption) *Archive {
	return NewAuxiliaryArchive(10, ArchiveAxes{X: "x", Y: "y"}, opts...)
}

func TestArchiveIndexMapping(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{
		behaviorGenome(1, 1, 0, 0),
		behaviorGenome(2, 1, 10, 10),
		behaviorGenome(3, 1, 5, 9.99),
	})
	assert.Equal(t, 1, a.Elite(0, 0).ID)
	assert.Equal(t, 2, a.Elite(9, 9).ID)
	// floor(5/10 * 9) = 4, floor(9.99/10 * 9) = 8
	assert.Equal(t, 3, a.Elite(4, 8).ID)
	assert.Equal(t, 3, a.Occupied())
	assert.InDelta(t, 0.03, a.Coverage(), 1e-12)

	lo, hi := a.Bounds()
	assert.Equal(t, [2]float64{0, 0}, lo)
	assert.Equal(t, [2]float64{10, 10}, hi)
}

func TestArchiveSkipsUnfitAndUndescribedGenomes(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{
		behaviorGenome(1, 0, 1, 1),
		behaviorGenome(2, -3, 1, 1),
		withFitness(&Genome{ID: 3}, 5, map[string]float64{"x": 1}),
		behaviorGenome(4, 2, math.NaN(), 1),
		withFitness(&Genome{ID: 5}, math.NaN(), map[string]float64{"x": 1, "y": 1}),
		nil,
	})
	assert.Zero(t, a.Occupied())
	assert.Empty(t, a.Emitters())
	assert.Empty(t, a.Species())
}

func TestArchiveEliteFitnessNeverDecreases(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{behaviorGenome(1, 5, 0, 0), behaviorGenome(2, 1, 10, 10)})

	a.IntegratePopulation([]*Genome{behaviorGenome(3, 4, 0, 0)})
	assert.Equal(t, 1, a.Elite(0, 0).ID)

	a.IntegratePopulation([]*Genome{behaviorGenome(4, 5, 0, 0)})
	assert.Equal(t, 1, a.Elite(0, 0).ID, "ties keep the incumbent")

	a.IntegratePopulation([]*Genome{behaviorGenome(5, 6, 0, 0)})
	assert.Equal(t, 5, a.Elite(0, 0).ID)
}

func TestArchiveBoundsOnlyGrow(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{behaviorGenome(1, 1, 2, 2), behaviorGenome(2, 1, 4, 4)})
	a.IntegratePopulation([]*Genome{behaviorGenome(3, 1, 3, 3)})
	lo, hi := a.Bounds()
	assert.Equal(t, [2]float64{2, 2}, lo)
	assert.Equal(t, [2]float64{4, 4}, hi)

	a.IntegratePopulation([]*Genome{behaviorGenome(4, 1, -6, 14)})
	lo, hi = a.Bounds()
	assert.Equal(t, [2]float64{-6, 2}, lo)
	assert.Equal(t, [2]float64{4, 14}, hi)
}

func TestArchiveEmittersFollowElites(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{behaviorGenome(1, 1, 0, 0), behaviorGenome(2, 1, 10, 10)})
	require.Len(t, a.Emitters(), 2)

	a.IntegratePopulation([]*Genome{behaviorGenome(3, 9, 10, 10)})
	emitters := a.Emitters()
	require.Len(t, emitters, 2)
	for _, e := range emitters {
		assert.Same(t, a.Elite(e.X, e.Y), e.Elite)
	}
}

func TestArchiveSpeciesMirrorsGrid(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{behaviorGenome(1, 1, 0, 0), behaviorGenome(2, 1, 10, 10)})
	a.IntegratePopulation([]*Genome{behaviorGenome(3, 2, 0, 0)})

	ids := []int{}
	for _, g := range a.Species() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int{2, 3}, ids)
}

func TestArchiveSeedEmitter(t *testing.T) {
	seed := &Genome{ID: 42}
	a := testArchive(WithSeedEmitter(seed))

	offspring := a.Emit(func(g *Genome) *Genome { return &Genome{ID: g.ID + 1} })
	require.Len(t, offspring, 1)
	assert.Equal(t, 43, offspring[0].ID)
	assert.Zero(t, a.Occupied(), "emitting does not integrate")

	a.IntegratePopulation([]*Genome{behaviorGenome(1, 1, 3, 3)})
	emitters := a.Emitters()
	require.Len(t, emitters, 1)
	assert.Equal(t, 1, emitters[0].Elite.ID, "seed emitter adopts the elite of its cell")
}

func TestArchiveEmitAndUpdate(t *testing.T) {
	a := testArchive()
	a.IntegratePopulation([]*Genome{behaviorGenome(1, 1, 0, 0), behaviorGenome(2, 1, 10, 10)})

	next := 100
	offspring := a.EmitAndUpdate(func(g *Genome) *Genome {
		next++
		return behaviorGenome(next, g.Fitness.Primary+1, 5, 5)
	})
	require.Len(t, offspring, 2)
	assert.Equal(t, 3, a.Occupied())
	assert.Equal(t, 2.0, a.Elite(4, 4).Fitness.Primary)
}

func TestArchiveEmitSkipsNil(t *testing.T) {
	a := testArchive(WithSeedEmitter(&Genome{ID: 1}))
	assert.Empty(t, a.Emit(func(*Genome) *Genome { return nil }))
}

func TestArchiveDescription(t *testing.T) {
	a := NewAuxiliaryArchive(4, ArchiveAxes{X: "profit", Y: "drawdown"})
	x, y := a.Description()
	assert.Equal(t, "profit", x)
	assert.Equal(t, "drawdown", y)
	assert.Equal(t, 4, a.GridSize())
	assert.Len(t, a.Elites(), 4)
}

func TestArchiveConcurrentIntegration(t *testing.T) {
	a := testArchive()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a.IntegratePopulation([]*Genome{behaviorGenome(w*100+i, float64(i+1), float64(i), float64(w))})
				a.Emit(func(g *Genome) *Genome { return g })
			}
		}(w)
	}
	wg.Wait()
	assert.Positive(t, a.Occupied())
}
