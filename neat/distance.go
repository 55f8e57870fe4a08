package neat

import "math"

// Distance measures the genetic dissimilarity of two genomes:
// connections only in g1, plus connections only in g2, plus the absolute
// weight difference of every connection present in both. Connections are
// matched by ConnectionKey, not by ID. The result is symmetric and is zero
// for a genome compared with itself.
func Distance(g1, g2 *Genome) float64 {
	w1 := connectionWeights(g1)
	w2 := connectionWeights(g2)

	excess := 0
	weightDiff := 0.0
	for k, a := range w1 {
		if b, ok := w2[k]; ok {
			weightDiff += math.Abs(a - b)
		} else {
			excess++
		}
	}
	for k := range w2 {
		if _, ok := w1[k]; !ok {
			excess++
		}
	}
	return float64(excess) + weightDiff
}

// connectionWeights maps each distinct connection key to the weight of its first occurrence.
func connectionWeights(g *Genome) map[ConnectionKey]float64 {
	m := make(map[ConnectionKey]float64, len(g.Connections))
	for _, c := range g.Connections {
		if _, ok := m[c.Key()]; !ok {
			m[c.Key()] = c.Weight
		}
	}
	return m
}

// DistanceFunc is the signature used by Speciation.
type DistanceFunc func(g1, g2 *Genome) float64

// DistanceCache memoizes Distance for pairs of genome IDs. It is not safe for
// concurrent use.
type DistanceCache struct {
	fn        DistanceFunc
	distances map[[2]int]float64
	Hits      int
	Misses    int
}

// NewDistanceCache wraps fn. A nil fn uses Distance.
func NewDistanceCache(fn DistanceFunc) *DistanceCache {
	if fn == nil {
		fn = Distance
	}
	return &DistanceCache{fn: fn, distances: make(map[[2]int]float64)}
}

// Distance returns the cached distance or computes and stores it.
// Genomes must not change structure while cached.
func (c *DistanceCache) Distance(g1, g2 *Genome) float64 {
	key := [2]int{g1.ID, g2.ID}
	if g1.ID > g2.ID {
		key = [2]int{g2.ID, g1.ID}
	}
	if d, ok := c.distances[key]; ok {
		c.Hits++
		return d
	}
	c.Misses++
	d := c.fn(g1, g2)
	c.distances[key] = d
	return d
}
