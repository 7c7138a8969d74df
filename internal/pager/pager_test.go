package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/testutil"
)

// fakeFetcher serves pageSizes[page-1] rows for each page and records calls
type fakeFetcher struct {
	mu        sync.Mutex
	calls     []models.PageRequest
	pageSizes []int
	total     int64
	err       error
	block     bool
}

func (f *fakeFetcher) FetchPage(ctx context.Context, req models.PageRequest) (models.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block, err := f.block, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return models.Page{}, ctx.Err()
	}
	if err != nil {
		return models.Page{}, err
	}

	n := 0
	if req.Page-1 < len(f.pageSizes) {
		n = f.pageSizes[req.Page-1]
	}
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{"table": req.Table, "page": req.Page, "i": i}
	}
	return models.Page{Data: rows, Total: f.total, AllFields: []string{"table", "page", "i"}}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newController(t *testing.T, f *fakeFetcher, opts Options) *Controller {
	t.Helper()
	c := New(f, opts, testutil.NewTestLogger(t))
	c.Switch("net_logs", "flows")
	return c
}

func run(t *testing.T, c *Controller, cmd tea.Cmd) bool {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(PageLoadedMsg)
	require.True(t, ok, "expected PageLoadedMsg")
	return c.HandleLoaded(msg)
}

func scroll(t *testing.T, c *Controller) bool {
	t.Helper()
	tick := c.ScrollNearEnd()
	if tick == nil {
		return false
	}
	msg, ok := tick().(ScrollTickMsg)
	require.True(t, ok, "expected ScrollTickMsg")
	load := c.HandleTick(msg)
	require.NotNil(t, load)
	return run(t, c, load)
}

func TestLoad_RequiresTable(t *testing.T) {
	c := New(&fakeFetcher{}, Options{}, testutil.NewTestLogger(t))

	assert.Nil(t, c.Load(1, nil, ""))
	assert.Nil(t, c.ScrollNearEnd())
	assert.Nil(t, c.Retry())

	_, err := c.request(1, nil, "")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestLoad_BuildsRequest(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35}}
	c := newController(t, f, Options{})

	filters := []models.Predicate{{Field: "src_ip", Type: models.TypeEqual, Value: "10.0.0.1"}}
	cmd := c.Load(1, filters, "udp")
	require.NotNil(t, cmd)
	assert.True(t, c.Cursor().Loading)

	// The request owns its own copy of the filters
	filters[0].Value = "mutated"

	run(t, c, cmd)
	require.Equal(t, 1, f.callCount())
	req := f.calls[0]
	assert.Equal(t, "net_logs", req.Database)
	assert.Equal(t, "flows", req.Table)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPageSize, req.Limit)
	assert.Equal(t, "udp", req.Search)
	assert.Equal(t, "10.0.0.1", req.Filters[0].Value)
}

func TestLoad_MutualExclusion(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35}}
	c := newController(t, f, Options{})

	first := c.Load(1, nil, "")
	require.NotNil(t, first)
	assert.Nil(t, c.Load(2, nil, ""), "second load while loading is a no-op")
	assert.Nil(t, c.ScrollNearEnd(), "scroll while loading is a no-op")

	run(t, c, first)
	assert.Equal(t, 1, f.callCount())
	assert.False(t, c.Cursor().Loading)
}

func TestPagination_Monotonic(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35, 35, 12}, total: 117}
	c := newController(t, f, Options{})

	require.True(t, run(t, c, c.Load(1, nil, "")))
	assert.Len(t, c.Rows(), 35)
	assert.True(t, c.Cursor().HasMore)

	expected := 35
	for page := 2; page <= 4; page++ {
		require.True(t, scroll(t, c), "page %d should load", page)
		expected += f.pageSizes[page-1]
		assert.Len(t, c.Rows(), expected)
		assert.Equal(t, page, c.Cursor().Page)
		assert.Equal(t, page < 4, c.Cursor().HasMore, "has more after page %d", page)
	}

	assert.Nil(t, c.ScrollNearEnd(), "no loads after the short page")
	assert.Equal(t, 4, f.callCount())
	assert.Equal(t, int64(117), c.Total())
	assert.Equal(t, []string{"table", "page", "i"}, c.Fields())
}

func TestPagination_PageOneReplaces(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35}}
	c := newController(t, f, Options{})

	run(t, c, c.Load(1, nil, ""))
	scroll(t, c)
	require.Len(t, c.Rows(), 70)

	run(t, c, c.Reload(nil, "x"))
	assert.Len(t, c.Rows(), 35)
	assert.Equal(t, 1, c.Cursor().Page)
}

func TestScroll_Debounced(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35}}
	c := newController(t, f, Options{Debounce: 20 * time.Millisecond})
	run(t, c, c.Load(1, nil, ""))

	first := c.ScrollNearEnd()
	second := c.ScrollNearEnd()
	require.NotNil(t, first)
	require.NotNil(t, second)

	firstMsg := first().(ScrollTickMsg)
	secondMsg := second().(ScrollTickMsg)

	assert.Nil(t, c.HandleTick(firstMsg), "superseded tick must not load")
	load := c.HandleTick(secondMsg)
	require.NotNil(t, load)
	run(t, c, load)

	assert.Equal(t, 2, f.callCount(), "one page-1 call plus exactly one scroll call")
	assert.Equal(t, 2, f.calls[1].Page)
}

func TestStaleResponse_AfterSwitch(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35}}
	c := newController(t, f, Options{})

	pending := c.Load(1, nil, "")
	require.NotNil(t, pending)

	c.Switch("net_logs", "dns")
	newLoad := c.Load(1, nil, "")
	require.NotNil(t, newLoad, "switch releases the loading guard")

	// The old response arrives after the switch
	stale := pending().(PageLoadedMsg)
	assert.False(t, c.HandleLoaded(stale))
	assert.Empty(t, c.Rows())
	assert.True(t, c.Cursor().Loading, "stale response must not touch the new session cursor")

	require.True(t, run(t, c, newLoad))
	require.Len(t, c.Rows(), 35)
	assert.Equal(t, "dns", c.Rows()[0]["table"])
}

func TestStaleResponse_AfterReload(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35}}
	c := newController(t, f, Options{})
	run(t, c, c.Load(1, nil, ""))

	tick := c.ScrollNearEnd()
	load := c.HandleTick(tick().(ScrollTickMsg))
	require.NotNil(t, load)

	reload := c.Reload([]models.Predicate{{Field: "page", Type: models.TypeEqual, Value: "1"}}, "")
	require.NotNil(t, reload)

	assert.False(t, c.HandleLoaded(load().(PageLoadedMsg)), "superseded page 2 is dropped")
	assert.True(t, run(t, c, reload))
	assert.Len(t, c.Rows(), 35)
}

func TestSwitch_InvalidatesTicks(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35}}
	c := newController(t, f, Options{})
	run(t, c, c.Load(1, nil, ""))

	tick := c.ScrollNearEnd()
	require.NotNil(t, tick)
	msg := tick().(ScrollTickMsg)

	c.Switch("net_logs", "dns")
	assert.Nil(t, c.HandleTick(msg))

	c.Close()
	assert.False(t, c.Cursor().Loading)
}

func TestLoad_FailureStopsPagination(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35}}
	c := newController(t, f, Options{})
	run(t, c, c.Load(1, nil, ""))

	f.err = errors.New("connection refused")
	require.True(t, scroll(t, c))

	assert.Len(t, c.Rows(), 35, "existing rows stay")
	assert.False(t, c.Cursor().HasMore)
	assert.False(t, c.Cursor().Loading)
	assert.Error(t, c.Err())
	assert.Nil(t, c.ScrollNearEnd())
}

func TestLoad_TimeoutAndRetry(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35}, block: true}
	c := newController(t, f, Options{Timeout: 20 * time.Millisecond})

	require.True(t, run(t, c, c.Load(1, nil, "")))
	assert.ErrorIs(t, c.Err(), context.DeadlineExceeded)
	assert.False(t, c.Cursor().HasMore)
	assert.False(t, c.Cursor().Loading)

	f.mu.Lock()
	f.block = false
	f.mu.Unlock()

	retry := c.Retry()
	require.NotNil(t, retry)
	require.True(t, run(t, c, retry))
	assert.NoError(t, c.Err())
	assert.Len(t, c.Rows(), 35)
	assert.Equal(t, 1, f.calls[1].Page, "retry with an empty buffer reloads page 1")
}

func TestRetry_AfterFailedReloadStartsOver(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35, 35}}
	c := newController(t, f, Options{})
	run(t, c, c.Load(1, nil, ""))
	require.True(t, scroll(t, c))
	require.Len(t, c.Rows(), 70)

	filters := []models.Predicate{{Field: "src_ip", Type: models.TypeEqual, Value: "10.0.0.1"}}
	f.err = errors.New("bad gateway")
	require.True(t, run(t, c, c.Reload(filters, "")))
	require.Error(t, c.Err())

	f.err = nil
	retry := c.Retry()
	require.NotNil(t, retry)
	require.True(t, run(t, c, retry))

	last := f.calls[len(f.calls)-1]
	assert.Equal(t, 1, last.Page, "the filtered query has no page yet")
	assert.Equal(t, filters, last.Filters)
	assert.Len(t, c.Rows(), 35, "rows of the old query are replaced")
	assert.Equal(t, 1, c.Cursor().Page)
}

func TestRetry_AfterFailedScrollContinues(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{35, 35}}
	c := newController(t, f, Options{})
	run(t, c, c.Load(1, nil, ""))

	f.err = errors.New("bad gateway")
	require.True(t, scroll(t, c))

	f.err = nil
	require.True(t, run(t, c, c.Retry()))
	assert.Equal(t, 2, f.calls[len(f.calls)-1].Page)
	assert.Len(t, c.Rows(), 70)
}

func TestLoad_CancelledResponseDropped(t *testing.T) {
	f := &fakeFetcher{}
	c := newController(t, f, Options{})

	msg := PageLoadedMsg{Session: c.session, Generation: c.generation, Page: 1, Err: fmt.Errorf("wrapped: %w", context.Canceled)}
	c.cursor.Loading = true

	assert.False(t, c.HandleLoaded(msg))
	assert.Nil(t, c.Err())
	assert.True(t, c.Cursor().HasMore)
}

func TestResetCursorAndClearBuffer(t *testing.T) {
	f := &fakeFetcher{pageSizes: []int{10}}
	c := newController(t, f, Options{})
	run(t, c, c.Load(1, nil, ""))
	require.False(t, c.Cursor().HasMore)

	c.ResetCursor()
	assert.Equal(t, models.NewLoadCursor(), c.Cursor())

	c.ClearBuffer()
	assert.Empty(t, c.Rows())
	assert.Zero(t, c.Total())
}

func TestNearEnd(t *testing.T) {
	assert.False(t, NearEnd(0, 10, 0, 3))
	assert.False(t, NearEnd(0, 10, 35, 3))
	assert.True(t, NearEnd(22, 10, 35, 3))
	assert.True(t, NearEnd(30, 10, 35, 3))
}
