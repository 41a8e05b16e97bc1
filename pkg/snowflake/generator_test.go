package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_GetID(t *testing.T) {
	g, err := NewGenerator(42)
	require.NoError(t, err)

	const workers, perWorker = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[uint64]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := g.GetID()
				assert.NoError(t, err)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestGenerator_Increasing(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	prev, err := g.GetID()
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		id, err := g.GetID()
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestDecode(t *testing.T) {
	g, err := NewGenerator(7)
	require.NoError(t, err)

	before := time.Now()
	id, err := g.GetID()
	require.NoError(t, err)

	parts := Decode(id)
	assert.Equal(t, uint16(7), parts.MachineID)
	assert.WithinDuration(t, before, parts.IssuedAt, time.Second)
}
