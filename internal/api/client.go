// Package api is the HTTP client for the table-browsing backend.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusError is returned when the backend answers with a non-2xx status
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, body)
}

// maxErrorBody caps how much of an error response is kept
const maxErrorBody = 4096

// Client talks to the backend REST API
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for baseURL. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// BaseURL returns the backend root the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListSources fetches the source catalog
func (c *Client) ListSources(ctx context.Context) ([]models.DataSource, error) {
	var sources []models.DataSource
	if err := c.getJSON(ctx, "/routers/", nil, &sources); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	if sources == nil {
		sources = []models.DataSource{}
	}
	return sources, nil
}

// ListTables fetches the table names of one database
func (c *Client) ListTables(ctx context.Context, database string) ([]string, error) {
	var tables []string
	if err := c.getJSON(ctx, "/tables/"+url.PathEscape(database), nil, &tables); err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", database, err)
	}
	if tables == nil {
		tables = []string{}
	}
	return tables, nil
}

// TableInfo fetches advisory metadata for a table under the given filters
func (c *Client) TableInfo(ctx context.Context, database, table string, filters []models.Predicate) (models.TableInfo, error) {
	query, err := filterQuery(filters)
	if err != nil {
		return models.TableInfo{}, err
	}

	var info models.TableInfo
	if err := c.getJSON(ctx, tablePath("/table-info", database, table), query, &info); err != nil {
		return models.TableInfo{}, fmt.Errorf("failed to load table info for %s.%s: %w", database, table, err)
	}
	info.Available = true
	return info, nil
}

// FetchPage fetches one page of rows
func (c *Client) FetchPage(ctx context.Context, req models.PageRequest) (models.Page, error) {
	query, err := filterQuery(req.Filters)
	if err != nil {
		return models.Page{}, err
	}
	query.Set("page", strconv.Itoa(req.Page))
	query.Set("limit", strconv.Itoa(req.Limit))
	query.Set("search", req.Search)

	var page models.Page
	if err := c.getJSON(ctx, tablePath("/tables", req.Database, req.Table), query, &page); err != nil {
		return models.Page{}, fmt.Errorf("failed to fetch page %d of %s.%s: %w", req.Page, req.Database, req.Table, err)
	}
	if page.Data == nil {
		page.Data = []models.Row{}
	}
	return page, nil
}

// ProgressFunc receives the bytes read so far and the expected total.
// total is -1 when the backend did not announce a length.
type ProgressFunc func(received, total int64)

// Export streams the spreadsheet export of a table into w
func (c *Client) Export(ctx context.Context, database, table string, filters []models.Predicate, search string, w io.Writer, progress ProgressFunc) (int64, error) {
	query, err := filterQuery(filters)
	if err != nil {
		return 0, err
	}
	query.Set("search", search)

	resp, err := c.do(ctx, http.MethodGet, tablePath("/export", database, table), query, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to export %s.%s: %w", database, table, err)
	}
	defer func() { _ = resp.Body.Close() }()

	src := io.Reader(resp.Body)
	if progress != nil {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress}
	}

	n, err := io.Copy(w, src)
	if err != nil {
		return n, fmt.Errorf("failed to download export of %s.%s: %w", database, table, err)
	}
	return n, nil
}

// Live posts the form fields to the live endpoint and returns the result rows
func (c *Client) Live(ctx context.Context, database, table string, fields map[string]string) ([]models.Row, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode live request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, tablePath("/live", database, table), nil, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("live query on %s.%s failed: %w", database, table, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read live response: %w", err)
	}
	return decodeRows(raw)
}

// decodeRows accepts a bare array of rows, a {"data": [...]} envelope or a
// single object
func decodeRows(raw []byte) ([]models.Row, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []models.Row{}, nil
	}

	switch raw[0] {
	case '[':
		var rows []models.Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode live rows: %w", err)
		}
		if rows == nil {
			rows = []models.Row{}
		}
		return rows, nil
	case '{':
		var envelope struct {
			Data []models.Row `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
			return envelope.Data, nil
		}
		var row models.Row
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("failed to decode live row: %w", err)
		}
		return []models.Row{row}, nil
	default:
		return nil, fmt.Errorf("unexpected live response: %.40s", raw)
	}
}

// EncodeFilters renders predicates as the backend's filters parameter.
// An empty set encodes as "[]", never "null".
func EncodeFilters(filters []models.Predicate) (string, error) {
	if filters == nil {
		filters = []models.Predicate{}
	}
	b, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("failed to encode filters: %w", err)
	}
	return string(b), nil
}

func filterQuery(filters []models.Predicate) (url.Values, error) {
	encoded, err := EncodeFilters(filters)
	if err != nil {
		return nil, err
	}
	return url.Values{"filters": []string{encoded}}, nil
}

func tablePath(prefix, database, table string) string {
	return prefix + "/" + url.PathEscape(database) + "/" + url.PathEscape(table)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do sends a request and returns the response when the status is 2xx.
// The caller owns the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(msg)}
	}

	return resp, nil
}

type progressReader struct {
	r        io.Reader
	total    int64
	received int64
	fn       ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.received += int64(n)
		p.fn(p.received, p.total)
	}
	return n, err
}

// Percent converts a progress report into a whole percentage.
// It returns -1 when the total is unknown.
func Percent(received, total int64) int {
	if total <= 0 {
		return -1
	}
	pct := int((received*100 + total/2) / total)
	if pct > 100 {
		pct = 100
	}
	return pct
}
