package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(from, n int) []Entry {
	out := make([]Entry, 0, n)
	for i := from; i < from+n; i++ {
		id := fmt.Sprint(i + 1)
		out = append(out, Entry{ID: id, Name: "mon-" + id, URL: "https://pokeapi.co/api/v2/pokemon/" + id + "/"})
	}
	return out
}

// scriptedFetcher replays page sizes in order and records each request.
type scriptedFetcher struct {
	mu       sync.Mutex
	sizes    []int
	lastNext bool
	requests []PageRequest
	fail     map[int]error
}

func (f *scriptedFetcher) fetch(_ context.Context, req PageRequest) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if err, ok := f.fail[call]; ok {
		return Page{}, err
	}
	if len(f.sizes) == 0 {
		return Page{}, nil
	}
	n := f.sizes[0]
	f.sizes = f.sizes[1:]
	hasNext := len(f.sizes) > 0 || f.lastNext
	return Page{Entries: makeEntries(req.Offset, n), Fetched: n, HasNext: hasNext}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []EventKind
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestPaginationCompleteness(t *testing.T) {
	f := &scriptedFetcher{sizes: []int{50, 50, 13}}
	c := NewCoordinator(50)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.LoadNext(ctx, f.fetch)
		require.NoError(t, err)
	}

	assert.Equal(t, 113, c.Offset())
	feed := c.Feed()
	assert.Len(t, feed, 113)

	ids := make(map[string]bool)
	for _, e := range feed {
		assert.False(t, ids[e.ID], "duplicate identity %s", e.ID)
		ids[e.ID] = true
	}
	assert.Equal(t, []PageRequest{{Offset: 0, Limit: 50}, {Offset: 50, Limit: 50}, {Offset: 100, Limit: 50}}, f.requests)
}

func TestEndToEndScenario(t *testing.T) {
	f := &scriptedFetcher{sizes: []int{50, 20}}
	c := NewCoordinator(50)
	ctx := context.Background()

	res, err := c.LoadNext(ctx, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Offset)
	assert.Equal(t, Idle, res.State)
	assert.Equal(t, Idle, c.State())

	res, err = c.LoadNext(ctx, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 70, res.Offset)
	assert.Equal(t, Exhausted, res.State)
	assert.Len(t, c.Feed(), 70)

	_, err = c.LoadNext(ctx, f.fetch)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Len(t, f.requests, 2, "no request after exhaustion")
}

func TestExhaustionIdempotence(t *testing.T) {
	f := &scriptedFetcher{sizes: []int{10}}
	c := NewCoordinator(50)

	_, err := c.LoadNext(context.Background(), f.fetch)
	require.NoError(t, err)
	require.Equal(t, Exhausted, c.State())
	require.True(t, c.Exhausted())

	for i := 0; i < 5; i++ {
		_, err := c.Begin()
		assert.ErrorIs(t, err, ErrExhausted)
		assert.Equal(t, Exhausted, c.State())
	}
	assert.Len(t, f.requests, 1)
}

func TestZeroResultPageExhausts(t *testing.T) {
	c := NewCoordinator(50)
	req, err := c.Begin()
	require.NoError(t, err)

	res := c.Complete(req, Page{Fetched: 0, HasNext: true})
	assert.Equal(t, Exhausted, res.State)
	assert.Equal(t, 0, res.Offset)
}

func TestFailureRecovery(t *testing.T) {
	boom := errors.New("connection reset")
	f := &scriptedFetcher{sizes: []int{50, 50}, lastNext: true, fail: map[int]error{1: boom}}
	c := NewCoordinator(50)
	rec := &recorder{}
	c.AddListener(rec)
	ctx := context.Background()

	_, err := c.LoadNext(ctx, f.fetch)
	require.NoError(t, err)

	_, err = c.LoadNext(ctx, f.fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 50, c.Offset(), "offset unchanged by failure")
	assert.False(t, c.Exhausted())
	assert.Equal(t, Idle, c.State())
	assert.ErrorIs(t, c.LastError(), boom)

	_, err = c.LoadNext(ctx, f.fetch)
	require.NoError(t, err)
	require.Len(t, f.requests, 3)
	assert.Equal(t, f.requests[1], f.requests[2], "retry re-requests the same page")
	assert.Nil(t, c.LastError())

	var failed *Event
	for i := range rec.events {
		if rec.events[i].Kind == EventLoadFailed {
			failed = &rec.events[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, Errored, failed.State)
	assert.ErrorIs(t, failed.Err, boom)
}

func TestBeginRejectsOverlappingLoads(t *testing.T) {
	c := NewCoordinator(50)
	req, err := c.Begin()
	require.NoError(t, err)
	assert.Equal(t, Loading, c.State())

	_, err = c.Begin()
	assert.ErrorIs(t, err, ErrLoadInProgress)

	c.Complete(req, Page{Entries: makeEntries(0, 50), Fetched: 50, HasNext: true})
	_, err = c.Begin()
	assert.NoError(t, err)
}

func TestMergeSkipsDuplicateIdentities(t *testing.T) {
	c := NewCoordinator(3)
	req, err := c.Begin()
	require.NoError(t, err)
	c.Complete(req, Page{Entries: makeEntries(0, 3), Fetched: 3, HasNext: true})

	req, err = c.Begin()
	require.NoError(t, err)
	overlap := append(makeEntries(1, 2), makeEntries(3, 1)...)
	res := c.Complete(req, Page{Entries: overlap, Fetched: 3, HasNext: true})

	assert.Equal(t, []Entry{makeEntries(3, 1)[0]}, res.Appended)
	assert.Len(t, c.Feed(), 4)
	assert.Equal(t, 6, c.Offset())
}

func TestMalformedEntriesStillAdvanceOffset(t *testing.T) {
	c := NewCoordinator(3)
	req, err := c.Begin()
	require.NoError(t, err)
	res := c.Complete(req, Page{Entries: makeEntries(0, 2), Fetched: 3, HasNext: true})

	assert.Len(t, res.Appended, 2)
	assert.Equal(t, 3, res.Offset)
}

func TestSearchSuppressesPagination(t *testing.T) {
	c := NewCoordinator(50)

	mode, reset := c.SetQuery("  Saur ")
	assert.Equal(t, ModeSearch, mode)
	assert.False(t, reset)
	assert.Equal(t, "saur", c.Query())

	_, err := c.Begin()
	assert.ErrorIs(t, err, ErrSearchActive)
	assert.Equal(t, Idle, c.State())
}

func TestClearingSearchResetsCursor(t *testing.T) {
	f := &scriptedFetcher{sizes: []int{50, 20}}
	c := NewCoordinator(50)
	ctx := context.Background()
	_, _ = c.LoadNext(ctx, f.fetch)
	_, _ = c.LoadNext(ctx, f.fetch)
	require.Equal(t, Exhausted, c.State())

	c.SetQuery("pika")
	mode, reset := c.SetQuery("")
	assert.Equal(t, ModeFeed, mode)
	assert.True(t, reset)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 0, c.Offset())
	assert.False(t, c.Exhausted())
	assert.Empty(t, c.Feed())

	req, err := c.Begin()
	require.NoError(t, err)
	assert.Equal(t, 0, req.Offset)
}

func TestSetQueryUnchangedIsNoop(t *testing.T) {
	c := NewCoordinator(50)
	req, _ := c.Begin()
	c.Complete(req, Page{Entries: makeEntries(0, 5), Fetched: 5, HasNext: true})

	mode, reset := c.SetQuery("   ")
	assert.Equal(t, ModeFeed, mode)
	assert.False(t, reset)
	assert.Len(t, c.Feed(), 5)
}

func TestPageLandingDuringSearchIsMergedButHidden(t *testing.T) {
	c := NewCoordinator(50)
	rec := &recorder{}
	c.AddListener(rec)

	req, err := c.Begin()
	require.NoError(t, err)
	c.SetQuery("char")

	res := c.Complete(req, Page{Entries: makeEntries(0, 50), Fetched: 50, HasNext: true})
	assert.False(t, res.Visible)
	assert.False(t, res.Stale)
	assert.Equal(t, 50, c.Offset())
	assert.Len(t, c.Feed(), 50)
	assert.Equal(t, Idle, c.State())

	require.NotEmpty(t, rec.events)
	assert.False(t, rec.events[0].Visible)
	assert.Equal(t, ModeSearch, rec.events[0].Mode)
}

func TestPageFromResetGenerationIsDiscarded(t *testing.T) {
	c := NewCoordinator(50)
	req, err := c.Begin()
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, Idle, c.State())

	res := c.Complete(req, Page{Entries: makeEntries(100, 50), Fetched: 50, HasNext: true})
	assert.True(t, res.Stale)
	assert.Equal(t, 0, c.Offset())
	assert.Empty(t, c.Feed())

	c.Fail(req, errors.New("late failure"))
	assert.Nil(t, c.LastError())
}

func TestFailureFromResetGenerationIsStale(t *testing.T) {
	c := NewCoordinator(50)
	fetch := func(ctx context.Context, req PageRequest) (Page, error) {
		c.Reset()
		return Page{}, errors.New("connection reset")
	}

	res, err := c.LoadNext(context.Background(), fetch)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Nil(t, c.LastError())
	assert.Equal(t, Idle, c.State())
}

func TestEventsEmitted(t *testing.T) {
	f := &scriptedFetcher{sizes: []int{2}}
	c := NewCoordinator(2)
	rec := &recorder{}
	c.AddListener(ListenerFunc(rec.OnEvent))

	_, err := c.LoadNext(context.Background(), f.fetch)
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventPageLoaded, EventExhausted}, rec.kinds())
	assert.Len(t, rec.events[0].Entries, 2)
	assert.True(t, rec.events[0].Visible)
}

func TestConcurrentTriggersIssueOneRequest(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	fetch := func(ctx context.Context, req PageRequest) (Page, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return Page{Entries: makeEntries(req.Offset, 10), Fetched: 10, HasNext: true}, nil
	}

	c := NewCoordinator(10)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	started := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		_, err := c.LoadNext(context.Background(), fetch)
		errs <- err
	}()
	<-started
	require.Eventually(t, func() bool { return c.State() == Loading }, time.Second, time.Millisecond)

	for i := 0; i < 7; i++ {
		_, err := c.LoadNext(context.Background(), fetch)
		errs <- err
	}
	close(release)
	wg.Wait()
	close(errs)

	var inProgress int
	for err := range errs {
		if errors.Is(err, ErrLoadInProgress) {
			inProgress++
		}
	}
	assert.Equal(t, 7, inProgress)
	assert.Equal(t, 1, calls)
}
