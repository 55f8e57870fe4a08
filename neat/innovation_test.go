package neat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInnovationIDsAreCached(t *testing.T) {
	r := NewInnovationRegistry()
	a := r.ConnectionInnovationID(1, 2)
	b := r.ConnectionInnovationID(2, 1)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, r.ConnectionInnovationID(1, 2))

	h := r.HiddenNodeInnovationID(1, 2)
	assert.Equal(t, h, r.HiddenNodeInnovationID(1, 2))
	assert.Equal(t, 3, r.Len())
}

func TestBoostNodeID(t *testing.T) {
	r := NewInnovationRegistry()
	r.BoostNodeID(10)
	assert.Equal(t, 11, r.HiddenNodeInnovationID(1, 2))
	// Boosting below the counter is a no-op.
	r.BoostNodeID(5)
	assert.Equal(t, 12, r.NextNodeID())
}

func TestClearCache(t *testing.T) {
	r := NewInnovationRegistry()
	a := r.ConnectionInnovationID(1, 2)
	r.ClearCache()
	assert.Equal(t, a, r.ConnectionInnovationID(1, 2), "cache is kept unless clearing is enabled")

	c := NewInnovationRegistry(WithClearableCache())
	a = c.ConnectionInnovationID(1, 2)
	c.ClearCache()
	assert.Equal(t, 0, c.Len())
	assert.NotEqual(t, a, c.ConnectionInnovationID(1, 2), "IDs are never reused")
}

func TestInnovationRegistryConcurrent(t *testing.T) {
	r := NewInnovationRegistry()
	const workers = 8
	ids := make([][]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ids[w] = append(ids[w], r.ConnectionInnovationID(i, i+1))
			}
		}(w)
	}
	wg.Wait()
	for w := 1; w < workers; w++ {
		assert.Equal(t, ids[0], ids[w])
	}
	assert.Equal(t, 100, r.Len())
}
