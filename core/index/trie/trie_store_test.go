package trie

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_PutGetRemove(t *testing.T) {
	store := NewStore()

	_, ok := StoreGet[string](store, "k")
	require.False(t, ok)

	StorePut(store, "k", "v1")
	v, ok := StoreGet[string](store, "k")
	require.True(t, ok)
	require.Equal(t, "v1", v)

	StorePut(store, "k", "v2")
	v, ok = StoreGet[string](store, "k")
	require.True(t, ok)
	require.Equal(t, "v2", v)

	store.Remove("k")
	_, ok = StoreGet[string](store, "k")
	require.False(t, ok)
}

// TestStore_SnapshotIsolation checks that a snapshot taken before a write
// never observes it.
func TestStore_SnapshotIsolation(t *testing.T) {
	store := NewStore()
	StorePut(store, "stable", uint32(1))

	snap := store.Snapshot()
	StorePut(store, "later", uint32(2))
	store.Remove("stable")

	v, ok := Get[uint32](snap, "stable")
	require.True(t, ok)
	require.Equal(t, uint32(1), v)
	_, ok = Get[uint32](snap, "later")
	require.False(t, ok)

	// The live store sees the writes.
	_, ok = StoreGet[uint32](store, "stable")
	require.False(t, ok)
	v, ok = StoreGet[uint32](store, "later")
	require.True(t, ok)
	require.Equal(t, uint32(2), v)
}

// TestStore_ConcurrentReadersAndWriters hammers the store from parallel
// goroutines; every key a writer published must be readable afterwards.
func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	store := NewStore()
	const writers = 4
	const keysPerWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keysPerWriter; i++ {
				StorePut(store, fmt.Sprintf("w%d-k%d", w, i), i)
			}
		}(w)
	}
	// Readers run against whatever snapshot is current; they must never
	// see a torn version, only hit or miss.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if v, ok := StoreGet[int](store, fmt.Sprintf("w0-k%d", i%keysPerWriter)); ok {
					if v != i%keysPerWriter {
						t.Errorf("read %d for key w0-k%d", v, i%keysPerWriter)
					}
				}
			}
		}()
	}
	wg.Wait()

	for w := 0; w < writers; w++ {
		for i := 0; i < keysPerWriter; i++ {
			v, ok := StoreGet[int](store, fmt.Sprintf("w%d-k%d", w, i))
			require.True(t, ok)
			require.Equal(t, i, v)
		}
	}
}
