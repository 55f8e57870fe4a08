package neat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testFactory(t *testing.T, seed int64) *Factory {
	t.Helper()
	return NewFactory(NewInnovationRegistry(), rand.New(rand.NewSource(seed)))
}

// blankGenome returns a factory genome with its seeded connection removed.
func blankGenome(t *testing.T, f *Factory, in, out int) *Genome {
	t.Helper()
	g, err := f.Create(in, out)
	require.NoError(t, err)
	g.Connections = nil
	return g
}

func withFitness(g *Genome, primary float64, aux map[string]float64) *Genome {
	g.Fitness = Fitness{Primary: primary, Auxiliary: aux}
	return g
}
