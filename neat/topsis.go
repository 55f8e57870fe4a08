package neat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Criterion is one column of a TOPSIS ranking.
type Criterion struct {
	Name   string
	Weight float64
	// Benefit is true when larger values are better.
	Benefit bool
}

// Topsis scores alternatives by their relative closeness to the ideal
// solution. rows[i][j] is alternative i's value on criterion j. Scores lie in
// [0, 1]; higher is better.
func Topsis(rows [][]float64, criteria []Criterion) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if len(criteria) == 0 {
		return nil, errors.New("topsis: no criteria")
	}
	m := make([][]float64, len(rows))
	for i, r := range rows {
		if len(r) != len(criteria) {
			return nil, fmt.Errorf("topsis: row %d has %d values for %d criteria", i, len(r), len(criteria))
		}
		m[i] = append([]float64(nil), r...)
	}

	col := make([]float64, len(m))
	idealPos := make([]float64, len(criteria))
	idealNeg := make([]float64, len(criteria))
	for j, c := range criteria {
		for i := range m {
			col[i] = m[i][j]
		}
		// Vector-normalize, then weight.
		norm := floats.Norm(col, 2)
		for i := range m {
			if norm != 0 {
				m[i][j] /= norm
			}
			m[i][j] *= c.Weight
			col[i] = m[i][j]
		}
		hi, lo := floats.Max(col), floats.Min(col)
		if c.Benefit {
			idealPos[j], idealNeg[j] = hi, lo
		} else {
			idealPos[j], idealNeg[j] = lo, hi
		}
	}

	scores := make([]float64, len(m))
	for i, r := range m {
		dPos := floats.Distance(r, idealPos, 2)
		dNeg := floats.Distance(r, idealNeg, 2)
		if dPos+dNeg == 0 {
			scores[i] = 0
			continue
		}
		scores[i] = dNeg / (dPos + dNeg)
	}
	return scores, nil
}

// TopsisFitness ranks genomes by their auxiliary values for the given
// criteria and returns one score per genome. Missing or non-finite
// auxiliary values count as 0.
func TopsisFitness(genomes []*Genome, criteria []Criterion) ([]float64, error) {
	rows := make([][]float64, len(genomes))
	for i, g := range genomes {
		rows[i] = make([]float64, len(criteria))
		for j, c := range criteria {
			v, ok := g.Fitness.Aux(c.Name)
			if ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				rows[i][j] = v
			}
		}
	}
	return Topsis(rows, criteria)
}
