// Package pager drives incremental page loading for one table session.
//
// All methods are called from the bubbletea update loop. The commands they
// return only perform the fetch and report back with a PageLoadedMsg, so the
// controller state is never touched off the update goroutine.
package pager

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// ErrNoTable is reported when a load is requested before a table is selected
var ErrNoTable = errors.New("no table selected")

// DefaultPageSize is the number of rows requested per page
const DefaultPageSize = 35

// PageFetcher fetches one page of rows
type PageFetcher interface {
	FetchPage(ctx context.Context, req models.PageRequest) (models.Page, error)
}

// Options tune the controller
type Options struct {
	PageSize int
	Debounce time.Duration
	Timeout  time.Duration
}

// PageLoadedMsg carries the result of a page fetch back to the update loop
type PageLoadedMsg struct {
	Session    string
	Generation uint64
	Page       int
	Result     models.Page
	Err        error
}

// ScrollTickMsg fires when a scroll debounce window elapses
type ScrollTickMsg struct {
	Session string
	Seq     uint64
}

// Controller owns the page buffer and load cursor of the active table
type Controller struct {
	fetcher PageFetcher
	logger  *slog.Logger
	opts    Options

	database string
	table    string

	// session changes on every table switch; generation on every superseded
	// request. A response must match both to be applied.
	session    string
	generation uint64
	tickSeq    uint64
	cancel     context.CancelFunc

	cursor models.LoadCursor
	rows   []models.Row
	// loaded is the last page of the current query applied to rows, 0 until
	// its page 1 arrives
	loaded int
	total  int64
	fields []string
	err    error

	filters []models.Predicate
	search  string
}

// New creates a controller with no table selected
func New(fetcher PageFetcher, opts Options, logger *slog.Logger) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
		session: uuid.NewString(),
		cursor:  models.NewLoadCursor(),
	}
}

// Switch starts a new session for database.table. Any in-flight request is
// cancelled and its response, if it still arrives, is dropped.
func (c *Controller) Switch(database, table string) {
	c.abort()
	c.database = database
	c.table = table
	c.session = uuid.NewString()
	c.rows = nil
	c.loaded = 0
	c.total = 0
	c.fields = nil
	c.err = nil
	c.filters = nil
	c.search = ""
	c.cursor = models.NewLoadCursor()

	c.logger.Debug("pager session started", "database", database, "table", table, "session", c.session)
}

// Load requests the given page. It returns nil while a load is in flight or
// when no table is selected.
func (c *Controller) Load(page int, filters []models.Predicate, search string) tea.Cmd {
	if c.cursor.Loading {
		return nil
	}

	req, err := c.request(page, filters, search)
	if err != nil {
		c.logger.Debug("load skipped", "error", err)
		return nil
	}

	c.filters = req.Filters
	c.search = search
	c.cursor.Loading = true
	if req.Page == 1 {
		c.loaded = 0
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if c.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancel = cancel

	fetcher := c.fetcher
	session, generation := c.session, c.generation

	c.logger.Debug("loading page", "table", c.table, "page", page, "filters", len(req.Filters), "search", search)

	return func() tea.Msg {
		defer cancel()
		result, err := fetcher.FetchPage(ctx, req)
		return PageLoadedMsg{
			Session:    session,
			Generation: generation,
			Page:       page,
			Result:     result,
			Err:        err,
		}
	}
}

func (c *Controller) request(page int, filters []models.Predicate, search string) (models.PageRequest, error) {
	if c.table == "" {
		return models.PageRequest{}, ErrNoTable
	}
	if page < 1 {
		page = 1
	}

	snapshot := make([]models.Predicate, len(filters))
	copy(snapshot, filters)

	return models.PageRequest{
		Database: c.database,
		Table:    c.table,
		Filters:  snapshot,
		Page:     page,
		Limit:    c.opts.PageSize,
		Search:   search,
	}, nil
}

// HandleLoaded applies a fetch result. It reports whether the buffer or
// cursor changed; stale and cancelled responses are dropped.
func (c *Controller) HandleLoaded(msg PageLoadedMsg) bool {
	if msg.Session != c.session || msg.Generation != c.generation {
		c.logger.Debug("dropping stale page", "page", msg.Page)
		return false
	}

	c.cursor.Loading = false
	c.cancel = nil

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return false
		}
		c.logger.Error("failed to load page",
			"database", c.database, "table", c.table, "page", msg.Page, "error", msg.Err)
		c.err = msg.Err
		c.cursor.HasMore = false
		return true
	}

	data := msg.Result.Data
	if msg.Page == 1 {
		c.rows = append([]models.Row(nil), data...)
	} else {
		c.rows = append(c.rows, data...)
	}

	c.err = nil
	c.loaded = msg.Page
	c.cursor.Page = msg.Page
	c.cursor.HasMore = len(data) == c.opts.PageSize
	c.total = msg.Result.Total
	if len(msg.Result.AllFields) > 0 {
		c.fields = msg.Result.AllFields
	}

	c.logger.Debug("page loaded", "page", msg.Page, "rows", len(data), "buffered", len(c.rows), "has_more", c.cursor.HasMore)
	return true
}

// ScrollNearEnd schedules the next page behind the debounce window. Only the
// most recent trigger fires.
func (c *Controller) ScrollNearEnd() tea.Cmd {
	if c.table == "" || !c.cursor.HasMore || c.cursor.Loading {
		return nil
	}

	c.tickSeq++
	msg := ScrollTickMsg{Session: c.session, Seq: c.tickSeq}

	if c.opts.Debounce <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(c.opts.Debounce, func(time.Time) tea.Msg { return msg })
}

// HandleTick loads the next page if msg is the latest scroll trigger
func (c *Controller) HandleTick(msg ScrollTickMsg) tea.Cmd {
	if msg.Session != c.session || msg.Seq != c.tickSeq {
		return nil
	}
	if !c.cursor.HasMore {
		return nil
	}
	return c.Load(c.loaded+1, c.filters, c.search)
}

// Reload supersedes any in-flight fetch and loads page 1
func (c *Controller) Reload(filters []models.Predicate, search string) tea.Cmd {
	c.abort()
	return c.Load(1, filters, search)
}

// Retry re-enables loading after a failed or timed out fetch. It loads the
// page after the last one applied for the current query, which is page 1
// when that query has not produced a page yet.
func (c *Controller) Retry() tea.Cmd {
	if c.table == "" || c.cursor.Loading {
		return nil
	}
	c.cursor.HasMore = true
	c.err = nil
	return c.Load(c.loaded+1, c.filters, c.search)
}

// Close cancels in-flight work when the view goes away
func (c *Controller) Close() {
	c.abort()
}

// ResetCursor puts the cursor back to page 1 with more data expected
func (c *Controller) ResetCursor() {
	loading := c.cursor.Loading
	c.cursor = models.NewLoadCursor()
	c.cursor.Loading = loading
}

// ClearBuffer drops the buffered rows
func (c *Controller) ClearBuffer() {
	c.rows = nil
	c.loaded = 0
	c.total = 0
}

// abort cancels the in-flight request and invalidates pending responses and
// debounce ticks
func (c *Controller) abort() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.tickSeq++
	c.cursor.Loading = false
}

// Rows returns the page buffer
func (c *Controller) Rows() []models.Row { return c.rows }

// Cursor returns the load cursor
func (c *Controller) Cursor() models.LoadCursor { return c.cursor }

// Total returns the backend's total for the current query
func (c *Controller) Total() int64 { return c.total }

// Fields returns every field of the table as reported by the last page
func (c *Controller) Fields() []string { return c.fields }

// Err returns the error of the last failed load, if any
func (c *Controller) Err() error { return c.err }

// Database returns the selected database
func (c *Controller) Database() string { return c.database }

// Table returns the selected table
func (c *Controller) Table() string { return c.table }

// Filters returns the filters of the last issued request
func (c *Controller) Filters() []models.Predicate { return c.filters }

// Search returns the search term of the last issued request
func (c *Controller) Search() string { return c.search }

// PageSize returns the configured page size
func (c *Controller) PageSize() int { return c.opts.PageSize }

// NearEnd reports whether the viewport is within threshold rows of the end of
// the buffer
func NearEnd(offset, visible, total, threshold int) bool {
	if total == 0 {
		return false
	}
	return offset+visible >= total-threshold
}
