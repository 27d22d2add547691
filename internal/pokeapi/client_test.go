package pokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/dex/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.TestConfig()
	cfg.API.BaseURL = server.URL + "/api/v2"
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client, server
}

func TestClientList(t *testing.T) {
	var gotUA, gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/v2/pokemon", r.URL.Path)

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"count":1302,"next":"http://%s/api/v2/pokemon?offset=%d&limit=2","previous":null,"results":[
			{"name":"bulbasaur","url":"https://pokeapi.co/api/v2/pokemon/%d/"},
			{"name":"ivysaur","url":"https://pokeapi.co/api/v2/pokemon/%d/"}]}`,
			r.Host, offset+2, offset+1, offset+2)
	}))

	page, err := client.List(context.Background(), 2, 0)
	require.NoError(t, err)

	assert.Equal(t, "dex-test/1.0", gotUA)
	assert.Equal(t, "limit=2&offset=0", gotQuery)
	assert.Equal(t, 1302, page.Count)
	assert.True(t, page.HasNext())
	require.Len(t, page.Results, 2)
	assert.Equal(t, "ivysaur", page.Results[1].Name)
	assert.Equal(t, "https://pokeapi.co/api/v2/pokemon/2/", page.Results[1].URL)
}

func TestClientListLastPage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":3,"next":null,"previous":null,"results":[{"name":"mew","url":"https://pokeapi.co/api/v2/pokemon/151/"}]}`)
	}))

	page, err := client.List(context.Background(), 50, 150)
	require.NoError(t, err)
	assert.False(t, page.HasNext())
	assert.Len(t, page.Results, 1)
}

func TestClientPokemonByID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/pokemon/6/", r.URL.Path)
		fmt.Fprint(w, `{
			"id": 6, "name": "charizard", "height": 17, "weight": 905, "base_experience": 267,
			"types": [{"slot":1,"type":{"name":"fire","url":""}},{"slot":2,"type":{"name":"flying","url":""}}],
			"stats": [{"base_stat":109,"effort":3,"stat":{"name":"special-attack","url":""}}],
			"abilities": [{"ability":{"name":"solar-power","url":""},"is_hidden":true,"slot":3}],
			"sprites": {"front_default": "https://img/6.png", "other": {"official-artwork": {"front_default": "https://img/art/6.png"}}}
		}`)
	}))

	p, err := client.PokemonByID(context.Background(), "6")
	require.NoError(t, err)

	assert.Equal(t, 6, p.ID)
	assert.Equal(t, "charizard", p.Name)
	assert.Equal(t, []string{"fire", "flying"}, p.TypeNames())
	assert.Equal(t, []string{"solar power"}, p.AbilityNames())
	assert.InDelta(t, 1.7, p.HeightMeters(), 1e-9)
	assert.InDelta(t, 90.5, p.WeightKilograms(), 1e-9)
	assert.Equal(t, "https://img/art/6.png", p.ArtworkURL(""))
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		notFound   bool
		wantRetry  time.Duration
	}{
		{name: "not found", status: http.StatusNotFound, notFound: true},
		{name: "server error", status: http.StatusInternalServerError},
		{name: "throttled with header", status: http.StatusTooManyRequests, retryAfter: "7", wantRetry: 7 * time.Second},
		{name: "throttled without header", status: http.StatusTooManyRequests, wantRetry: time.Second},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantRetry: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
			}))

			_, err := client.PokemonByID(context.Background(), "9999")
			require.Error(t, err)
			assert.Equal(t, tt.notFound, IsNotFound(err))

			if tt.notFound {
				return
			}
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantRetry, statusErr.RetryAfter)
		})
	}
}

func TestClientMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": "lots"`)
	}))

	_, err := client.List(context.Background(), 50, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestClientHonorsContext(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.List(ctx, 50, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClientRejectsPrivateHostByDefault(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.AllowPrivateHosts = false
	cfg.API.BaseURL = "http://127.0.0.1:8080/api/v2/"

	_, err := NewClient(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API base URL")
}

func TestPokemonURL(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.BaseURL = "https://pokeapi.co/api/v2"
	client, err := NewClient(cfg)
	require.NoError(t, err)

	assert.Equal(t, "https://pokeapi.co/api/v2/pokemon/25/", client.PokemonURL("25"))
}
