package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/pokeapi"
	"github.com/pders01/dex/internal/search"
	"github.com/pders01/dex/internal/session"
)

// fixtureAPI serves recorded PokéAPI responses from ../fixtures, slicing the
// list fixture by limit and offset the way the real endpoint does.
type fixtureAPI struct {
	list    pokeapi.ListPage
	details map[string][]byte

	mu          sync.Mutex
	hits        map[string]int
	failOffsets map[int]int // offset -> remaining 503s
	throttled   map[string]int
}

func newFixtureAPI(t *testing.T) (*fixtureAPI, *httptest.Server) {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join("..", "fixtures", "pokemon.json"))
	require.NoError(t, err)

	api := &fixtureAPI{
		details:     make(map[string][]byte),
		hits:        make(map[string]int),
		failOffsets: make(map[int]int),
		throttled:   make(map[string]int),
	}
	require.NoError(t, json.Unmarshal(raw, &api.list))

	detail, err := os.ReadFile(filepath.Join("..", "fixtures", "pokemon-1.json"))
	require.NoError(t, err)
	api.details["1"] = detail
	api.details["bulbasaur"] = detail
	api.details["6"] = []byte(`{"id":6,"name":"charizard","height":17,"weight":905,"types":[{"slot":1,"type":{"name":"fire"}}]}`)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/pokemon", api.serveList)
	mux.HandleFunc("/api/v2/pokemon/", api.serveDetail)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return api, server
}

func (f *fixtureAPI) serveList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	f.mu.Lock()
	f.hits[r.URL.String()]++
	if f.failOffsets[offset] > 0 {
		f.failOffsets[offset]--
		f.mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	f.mu.Unlock()

	all := f.list.Results
	start := min(offset, len(all))
	end := min(offset+limit, len(all))
	page := pokeapi.ListPage{Count: len(all), Results: all[start:end]}
	if end < len(all) {
		next := fmt.Sprintf("http://%s/api/v2/pokemon?offset=%d&limit=%d", r.Host, end, limit)
		page.Next = &next
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (f *fixtureAPI) serveDetail(w http.ResponseWriter, r *http.Request) {
	key := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2/pokemon/"), "/")

	f.mu.Lock()
	f.hits[key]++
	if f.throttled[key] > 0 {
		f.throttled[key]--
		f.mu.Unlock()
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	f.mu.Unlock()

	body, ok := f.details[key]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (f *fixtureAPI) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func setupSession(t *testing.T, server *httptest.Server) *session.Session {
	t.Helper()
	cfg := config.TestConfig()
	cfg.API.BaseURL = server.URL + "/api/v2/"
	cfg.API.PageSize = 5

	client, err := pokeapi.NewClient(cfg)
	require.NoError(t, err)
	return session.New(client, cfg)
}

func TestIntegration_BrowseCatalog(t *testing.T) {
	api, server := newFixtureAPI(t)
	sess := setupSession(t, server)
	ctx := context.Background()

	require.NoError(t, sess.Init(ctx))
	assert.Equal(t, search.StatusReady, sess.IndexStatus())
	assert.Len(t, sess.View().Entries, 5)
	assert.Equal(t, 5, sess.Offset())

	api.mu.Lock()
	api.failOffsets[5] = 1
	api.mu.Unlock()

	_, err := sess.RequestNextPage(ctx)
	require.Error(t, err)
	assert.False(t, session.IsRefusal(err))
	var statusErr *pokeapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, time.Second, statusErr.RetryAfter)
	assert.Equal(t, catalog.Idle, sess.State(), "a failed load stays retryable")
	assert.Equal(t, 5, sess.Offset())

	_, err = sess.RequestNextPage(ctx)
	require.NoError(t, err)
	assert.Len(t, sess.View().Entries, 10)

	// The last page carries a malformed entry: it advances the cursor but is
	// not shown.
	res, err := sess.RequestNextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Exhausted, res.State)
	assert.Equal(t, 13, res.Offset)
	assert.Len(t, sess.View().Entries, 12)

	_, err = sess.RequestNextPage(ctx)
	assert.ErrorIs(t, err, catalog.ErrExhausted)
}

func TestIntegration_SearchAndClear(t *testing.T) {
	_, server := newFixtureAPI(t)
	sess := setupSession(t, server)
	ctx := context.Background()
	require.NoError(t, sess.Init(ctx))

	v := sess.SetSearchQuery("Char")
	require.Equal(t, catalog.ModeSearch, v.Mode)
	assert.Equal(t, []string{"charmander", "charmeleon", "charizard"}, entryNames(v.Entries))

	v = sess.SetSearchQuery("6")
	assert.Equal(t, []string{"charizard"}, entryNames(v.Entries))

	_, err := sess.RequestNextPage(ctx)
	assert.ErrorIs(t, err, catalog.ErrSearchActive)

	v = sess.SetSearchQuery("")
	assert.True(t, v.Reset)
	assert.True(t, v.Empty())

	_, err = sess.RequestNextPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon"}, entryNames(sess.View().Entries))
}

func TestIntegration_DetailFromFixture(t *testing.T) {
	api, server := newFixtureAPI(t)
	sess := setupSession(t, server)
	ctx := context.Background()

	p, err := sess.EntryDetail(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "bulbasaur", p.Name)
	assert.Equal(t, []string{"grass", "poison"}, p.TypeNames())
	assert.Equal(t, []string{"overgrow", "chlorophyll"}, p.AbilityNames())
	assert.InDelta(t, 0.7, p.HeightMeters(), 0.001)
	assert.InDelta(t, 6.9, p.WeightKilograms(), 0.001)
	assert.True(t, strings.HasSuffix(p.ArtworkURL(""), "/animated/1.gif"))
	require.Len(t, p.Stats, 6)
	assert.Equal(t, "sp. attack", pokeapi.StatLabel(p.Stats[3].Stat.Name))

	again, err := sess.EntryDetail(ctx, "1")
	require.NoError(t, err)
	assert.Same(t, p, again)
	assert.Equal(t, 1, api.hitCount("1"))

	_, err = sess.EntryDetail(ctx, "999")
	assert.True(t, pokeapi.IsNotFound(err))
	_, cached := sess.CachedDetail("999")
	assert.False(t, cached)
}

func TestIntegration_ThrottledDetailIsNotCached(t *testing.T) {
	api, server := newFixtureAPI(t)
	sess := setupSession(t, server)
	ctx := context.Background()

	api.mu.Lock()
	api.throttled["6"] = 1
	api.mu.Unlock()

	_, err := sess.EntryDetail(ctx, "6")
	var statusErr *pokeapi.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, 2*time.Second, statusErr.RetryAfter)

	p, err := sess.EntryDetail(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, "charizard", p.Name)
	assert.Equal(t, 2, api.hitCount("6"))
}

func entryNames(entries []catalog.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
