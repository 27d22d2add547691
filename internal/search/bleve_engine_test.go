//go:build bleve

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBleveEngineMatchesLinearEngine(t *testing.T) {
	src := &fakeList{results: resources("bulbasaur", "ivysaur", "venusaur", "charmander", "mr-mime", "porygon2")}

	linear := NewIndex(100, "linear")
	require.NoError(t, linear.Build(context.Background(), src))
	bl := NewIndex(100, "bleve")
	require.NoError(t, bl.Build(context.Background(), src))

	for _, q := range []string{"saur", "char", "4", "mr-m", "2", "zzz", "."} {
		want, _ := linear.Filter(q)
		got, _ := bl.Filter(q)
		assert.Equal(t, names(want.Entries), names(got.Entries), "query %q", q)
	}
}

func TestBleveEngineDocCount(t *testing.T) {
	eng, err := NewBleveEngine()
	require.NoError(t, err)
	require.NoError(t, eng.Load(nil))

	statser, ok := eng.(DebugStatser)
	require.True(t, ok)
	n, err := statser.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
