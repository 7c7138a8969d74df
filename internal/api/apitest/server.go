// Package apitest runs an in-memory table-browsing backend for tests.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Endpoint names used for failure injection and request inspection
const (
	EndpointSources   = "sources"
	EndpointTables    = "tables"
	EndpointTableInfo = "table-info"
	EndpointPage      = "page"
	EndpointExport    = "export"
	EndpointLive      = "live"
)

// Request is one recorded call to the fake backend
type Request struct {
	Endpoint string
	Database string
	Table    string
	Filters  []models.Predicate
	Page     int
	Limit    int
	Search   string
	RawQuery string
	Body     map[string]string
}

// Table is the fake content of one table
type Table struct {
	Fields []string
	Rows   []models.Row
	SizeMB float64
}

// Server is a fake backend. Configure it before issuing requests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string]map[string]*Table
	order    []string
	fail     map[string]int
	requests []Request

	// ExportBody is served by the export endpoint
	ExportBody []byte
	// LiveResponse is served verbatim by the live endpoint
	LiveResponse string
}

// NewServer starts a fake backend. It is closed when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		tables:       make(map[string]map[string]*Table),
		fail:         make(map[string]int),
		ExportBody:   []byte("PK\x03\x04fake-xlsx"),
		LiveResponse: `[]`,
	}

	r := mux.NewRouter()
	r.HandleFunc("/routers/", s.handleSources).Methods(http.MethodGet)
	r.HandleFunc("/tables/{database}", s.handleTables).Methods(http.MethodGet)
	r.HandleFunc("/tables/{database}/{table}", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/table-info/{database}/{table}", s.handleTableInfo).Methods(http.MethodGet)
	r.HandleFunc("/export/{database}/{table}", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/live/{database}/{table}", s.handleLive).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddTable registers a table with its rows
func (s *Server) AddTable(database, table string, content *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[database]; !ok {
		s.tables[database] = make(map[string]*Table)
		s.order = append(s.order, database)
	}
	s.tables[database][table] = content
}

// Fail makes every call to endpoint answer with the given status.
// A zero status clears the failure.
func (s *Server) Fail(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, endpoint)
		return
	}
	s.fail[endpoint] = status
}

// Requests returns the recorded calls, optionally limited to one endpoint
func (s *Server) Requests(endpoint string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if endpoint == "" || r.Endpoint == endpoint {
			out = append(out, r)
		}
	}
	return out
}

// GenerateRows builds n rows with the given fields. Values are
// "<field>-<index>" so every row is distinguishable.
func GenerateRows(n int, fields ...string) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		row := make(models.Row, len(fields))
		for _, f := range fields {
			row[f] = fmt.Sprintf("%s-%d", f, i)
		}
		rows[i] = row
	}
	return rows
}

func (s *Server) record(endpoint string, r *http.Request, body map[string]string) (Request, int, error) {
	vars := mux.Vars(r)
	q := r.URL.Query()

	req := Request{
		Endpoint: endpoint,
		Database: vars["database"],
		Table:    vars["table"],
		Search:   q.Get("search"),
		RawQuery: r.URL.RawQuery,
		Body:     body,
	}
	if raw := q.Get("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Filters); err != nil {
			return req, 0, fmt.Errorf("bad filters: %w", err)
		}
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.Limit, _ = strconv.Atoi(q.Get("limit"))

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status := s.fail[endpoint]
	s.mu.Unlock()

	return req, status, nil
}

func (s *Server) lookup(database, table string) (*Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[database][table]
	return t, ok
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if _, status, _ := s.record(EndpointSources, r, nil); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}

	s.mu.Lock()
	sources := make([]models.DataSource, 0, len(s.order))
	for _, db := range s.order {
		sources = append(sources, models.DataSource{Name: db, Tables: sortedKeys(s.tables[db])})
	}
	s.mu.Unlock()

	writeJSON(w, sources)
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	req, status, _ := s.record(EndpointTables, r, nil)
	if status != 0 {
		http.Error(w, "injected failure", status)
		return
	}

	s.mu.Lock()
	tables, ok := s.tables[req.Database]
	names := sortedKeys(tables)
	s.mu.Unlock()

	if !ok {
		http.Error(w, "unknown database", http.StatusNotFound)
		return
	}
	writeJSON(w, names)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.record(EndpointPage, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if status != 0 {
		http.Error(w, "injected failure", status)
		return
	}

	t, ok := s.lookup(req.Database, req.Table)
	if !ok {
		http.Error(w, "unknown table", http.StatusNotFound)
		return
	}

	matched := filterRows(t.Rows, req.Filters, req.Search)
	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(matched)
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, models.Page{
		Data:      matched[start:end],
		Total:     int64(len(matched)),
		AllFields: t.Fields,
	})
}

func (s *Server) handleTableInfo(w http.ResponseWriter, r *http.Request) {
	req, status, err := s.record(EndpointTableInfo, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if status != 0 {
		http.Error(w, "injected failure", status)
		return
	}

	t, ok := s.lookup(req.Database, req.Table)
	if !ok {
		http.Error(w, "unknown table", http.StatusNotFound)
		return
	}

	values := make(map[string][]string, len(t.Fields))
	for _, f := range t.Fields {
		seen := map[string]bool{}
		for _, row := range t.Rows {
			v := fmt.Sprint(row[f])
			if !seen[v] && len(values[f]) < 10 {
				seen[v] = true
				values[f] = append(values[f], v)
			}
		}
	}

	writeJSON(w, models.TableInfo{
		TotalRows:    int64(len(t.Rows)),
		SizeMB:       t.SizeMB,
		FilteredRows: int64(len(filterRows(t.Rows, req.Filters, ""))),
		FieldValues:  values,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if _, status, _ := s.record(EndpointExport, r, nil); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Length", strconv.Itoa(len(s.ExportBody)))
	_, _ = w.Write(s.ExportBody)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if _, status, _ := s.record(EndpointLive, r, body); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(s.LiveResponse))
}

// filterRows applies predicates and search the way the backend does,
// as far as tests need it
func filterRows(rows []models.Row, filters []models.Predicate, search string) []models.Row {
	out := make([]models.Row, 0, len(rows))
	search = strings.ToLower(search)

	for _, row := range rows {
		if !matchesAll(row, filters) {
			continue
		}
		if search != "" && !rowContains(row, search) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesAll(row models.Row, filters []models.Predicate) bool {
	for _, p := range filters {
		v := fmt.Sprint(row[p.Field])
		var ok bool
		switch p.Type {
		case models.TypeEqual:
			ok = v == p.Value
		case models.TypeNotEqual:
			ok = v != p.Value
		case models.TypeContains:
			ok = strings.Contains(v, p.Value)
		case models.TypeNotContains:
			ok = !strings.Contains(v, p.Value)
		case models.TypeBeginsWith:
			ok = strings.HasPrefix(v, p.Value)
		case models.TypeEndsWith:
			ok = strings.HasSuffix(v, p.Value)
		default:
			ok = compare(v, p.Value, p.Type)
		}
		if !ok {
			return false
		}
	}
	return true
}

func compare(a, b string, typ models.PredicateType) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	switch typ {
	case models.TypeGreaterThan:
		return x > y
	case models.TypeLessThan:
		return x < y
	case models.TypeGreaterOrEqual:
		return x >= y
	case models.TypeLessOrEqual:
		return x <= y
	}
	return false
}

func rowContains(row models.Row, search string) bool {
	for _, v := range row {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), search) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]*Table) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
