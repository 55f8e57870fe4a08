package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopsis(t *testing.T) {
	criteria := []Criterion{
		{Name: "profit", Weight: 1, Benefit: true},
		{Name: "drawdown", Weight: 1, Benefit: false},
	}
	scores, err := Topsis([][]float64{
		{10, 1}, // best on both
		{5, 5},
		{1, 10}, // worst on both
	}, criteria)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.InDelta(t, 1.0, scores[0], 1e-12)
	assert.InDelta(t, 0.0, scores[2], 1e-12)
	assert.Greater(t, scores[1], scores[2])
	assert.Less(t, scores[1], scores[0])
}

func TestTopsisErrors(t *testing.T) {
	scores, err := Topsis(nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, scores)

	_, err = Topsis([][]float64{{1}}, nil)
	assert.Error(t, err)

	_, err = Topsis([][]float64{{1, 2}}, []Criterion{{Name: "a", Weight: 1}})
	assert.Error(t, err)
}

func TestTopsisIdenticalAlternatives(t *testing.T) {
	scores, err := Topsis([][]float64{{1, 1}, {1, 1}}, []Criterion{{Weight: 1, Benefit: true}, {Weight: 1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, scores)
}

func TestTopsisFitness(t *testing.T) {
	genomes := []*Genome{
		withFitness(&Genome{ID: 1}, 0, map[string]float64{"profit": 3}),
		withFitness(&Genome{ID: 2}, 0, map[string]float64{"profit": 9}),
		withFitness(&Genome{ID: 3}, 0, nil),
	}
	scores, err := TopsisFitness(genomes, []Criterion{{Name: "profit", Weight: 1, Benefit: true}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[1], 1e-12)
	assert.InDelta(t, 0.0, scores[2], 1e-12)
	assert.Greater(t, scores[0], scores[2])
}
