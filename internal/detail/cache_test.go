package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/dex/internal/pokeapi"
)

type fakeSource struct {
	calls   atomic.Int32
	fail    map[string]error
	release chan struct{}
	mu      sync.Mutex
}

func (f *fakeSource) PokemonByID(ctx context.Context, identity string) (*pokeapi.Pokemon, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	err := f.fail[identity]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var id int
	fmt.Sscanf(identity, "%d", &id)
	return &pokeapi.Pokemon{ID: id, Name: "pokemon-" + identity}, nil
}

func (f *fakeSource) setFail(identity string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.fail = map[string]error{}
	}
	if err == nil {
		delete(f.fail, identity)
		return
	}
	f.fail[identity] = err
}

func TestCacheIdempotence(t *testing.T) {
	src := &fakeSource{}
	cache := NewCache(src)

	first, err := cache.Get(context.Background(), "25")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "25")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestCacheFailureNotCached(t *testing.T) {
	src := &fakeSource{}
	src.setFail("7", pokeapi.ErrNotFound)
	cache := NewCache(src)

	_, err := cache.Get(context.Background(), "7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pokeapi.ErrNotFound))
	_, ok := cache.Peek("7")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	src.setFail("7", nil)
	p, err := cache.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCacheConcurrentRequestsShareFetch(t *testing.T) {
	src := &fakeSource{release: make(chan struct{})}
	cache := NewCache(src)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*pokeapi.Pokemon, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := cache.Get(context.Background(), "150")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, p := range results {
		assert.Same(t, results[0], p)
	}
}

func TestCacheDistinctIdentities(t *testing.T) {
	src := &fakeSource{}
	cache := NewCache(src)

	for _, id := range []string{"1", "2", "3", "2", "1"} {
		_, err := cache.Get(context.Background(), id)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), src.calls.Load())
	assert.Equal(t, 3, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}
