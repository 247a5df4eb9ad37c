package record

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreate_Defaults(t *testing.T) {
	s := NewStore(100)

	a := s.GetOrCreate("42")
	assert.Equal(t, int64(100), a.Balance)
	assert.Equal(t, int64(0), a.Experience)
	assert.False(t, a.JoinedAt.IsZero())
	assert.True(t, a.LastActivityAt.IsZero())
}

func TestStoreGetOrCreate_Idempotent(t *testing.T) {
	s := NewStore(100)

	a := s.GetOrCreate("42")
	a.Balance = 7
	a.Experience = 3

	b := s.GetOrCreate("42")
	assert.Same(t, a, b, "same identity must observe one record instance")
	assert.Equal(t, int64(7), b.Balance)
	assert.Equal(t, int64(3), b.Experience)
	assert.Equal(t, 1, s.Len())
}

func TestStoreGetOrCreate_ConcurrentSingleInstance(t *testing.T) {
	s := NewStore(100)

	const n = 64
	results := make([]*Account, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.GetOrCreate("42")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestStoreSnapshot_DeepCopy(t *testing.T) {
	s := NewStore(100)
	a := s.GetOrCreate("42")

	snap := s.Snapshot()
	require.Contains(t, snap, "42")

	a.Balance = 999
	assert.Equal(t, int64(100), snap["42"].Balance,
		"snapshot must not observe later mutations")
}

func TestStoreReplace(t *testing.T) {
	s := NewStore(100)
	s.GetOrCreate("old")

	s.Replace(map[string]*Account{"new": {Balance: 50}})

	_, ok := s.Get("old")
	assert.False(t, ok)

	a, ok := s.Get("new")
	require.True(t, ok)
	assert.Equal(t, int64(50), a.Balance)

	s.Replace(nil)
	assert.Equal(t, 0, s.Len())
}
