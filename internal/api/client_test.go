package api_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazygrid/internal/api"
	"github.com/rebeliceyang/lazygrid/internal/api/apitest"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/testutil"
)

func newBackend(t *testing.T) (*apitest.Server, *api.Client) {
	t.Helper()
	srv := apitest.NewServer(t)
	srv.AddTable("net_logs", "flows", &apitest.Table{
		Fields: []string{"src_ip", "dst_ip"},
		Rows:   apitest.GenerateRows(50, "src_ip", "dst_ip"),
		SizeMB: 1.5,
	})
	srv.AddTable("net_logs", "dns", &apitest.Table{Fields: []string{"query"}})
	srv.AddTable("audit", "events", &apitest.Table{Fields: []string{"actor"}})

	client := api.NewClient(srv.URL+"/", srv.Client(), testutil.NewTestLogger(t))
	return srv, client
}

func TestClient_ListSources(t *testing.T) {
	_, client := newBackend(t)

	sources, err := client.ListSources(context.Background())
	require.NoError(t, err)

	require.Len(t, sources, 2)
	assert.Equal(t, "net_logs", sources[0].Name)
	assert.Equal(t, []string{"dns", "flows"}, sources[0].Tables)
	assert.Equal(t, "audit", sources[1].Name)
}

func TestClient_ListTables(t *testing.T) {
	_, client := newBackend(t)

	tables, err := client.ListTables(context.Background(), "net_logs")
	require.NoError(t, err)
	assert.Equal(t, []string{"dns", "flows"}, tables)
}

func TestClient_FetchPage_EncodesRequest(t *testing.T) {
	srv, client := newBackend(t)

	page, err := client.FetchPage(context.Background(), models.PageRequest{
		Database: "net_logs",
		Table:    "flows",
		Page:     2,
		Limit:    35,
	})
	require.NoError(t, err)

	assert.Len(t, page.Data, 15)
	assert.Equal(t, int64(50), page.Total)
	assert.Equal(t, []string{"src_ip", "dst_ip"}, page.AllFields)

	reqs := srv.Requests(apitest.EndpointPage)
	require.Len(t, reqs, 1)
	assert.Equal(t, 2, reqs[0].Page)
	assert.Equal(t, 35, reqs[0].Limit)
	assert.Contains(t, reqs[0].RawQuery, "filters=%5B%5D", "empty filters are sent as []")
	assert.Contains(t, reqs[0].RawQuery, "search=")
}

func TestClient_FetchPage_WithFilter(t *testing.T) {
	srv, client := newBackend(t)

	filters := []models.Predicate{{Field: "src_ip", Type: models.TypeEqual, Value: "src_ip-7"}}
	page, err := client.FetchPage(context.Background(), models.PageRequest{
		Database: "net_logs", Table: "flows", Filters: filters, Page: 1, Limit: 35,
	})
	require.NoError(t, err)

	require.Len(t, page.Data, 1)
	assert.Equal(t, "src_ip-7", page.Data[0]["src_ip"])
	assert.Equal(t, filters, srv.Requests(apitest.EndpointPage)[0].Filters)
}

func TestClient_TableInfo(t *testing.T) {
	_, client := newBackend(t)

	info, err := client.TableInfo(context.Background(), "net_logs", "flows", nil)
	require.NoError(t, err)

	assert.True(t, info.Available)
	assert.Equal(t, int64(50), info.TotalRows)
	assert.Equal(t, int64(50), info.FilteredRows)
	assert.InDelta(t, 1.5, info.SizeMB, 0.001)
	assert.NotEmpty(t, info.FieldValues["src_ip"])
}

func TestClient_StatusError(t *testing.T) {
	srv, client := newBackend(t)
	srv.Fail(apitest.EndpointPage, http.StatusBadGateway)

	_, err := client.FetchPage(context.Background(), models.PageRequest{
		Database: "net_logs", Table: "flows", Page: 1, Limit: 35,
	})
	require.Error(t, err)

	var statusErr *api.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Contains(t, statusErr.Body, "injected failure")
}

func TestClient_CanceledContext(t *testing.T) {
	_, client := newBackend(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListSources(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Export(t *testing.T) {
	srv, client := newBackend(t)
	srv.ExportBody = bytes.Repeat([]byte("x"), 64*1024)

	var buf bytes.Buffer
	var last, total int64
	n, err := client.Export(context.Background(), "net_logs", "flows",
		[]models.Predicate{{Field: "src_ip", Type: models.TypeContains, Value: "1"}}, "abc", &buf,
		func(received, expected int64) { last, total = received, expected })
	require.NoError(t, err)

	assert.Equal(t, int64(len(srv.ExportBody)), n)
	assert.Equal(t, srv.ExportBody, buf.Bytes())
	assert.Equal(t, n, last)
	assert.Equal(t, n, total)

	reqs := srv.Requests(apitest.EndpointExport)
	require.Len(t, reqs, 1)
	assert.Equal(t, "abc", reqs[0].Search)
	assert.Len(t, reqs[0].Filters, 1)
}

func TestClient_Live(t *testing.T) {
	srv, client := newBackend(t)
	srv.LiveResponse = `[{"src_ip":"10.0.0.1","hits":3}]`

	rows, err := client.Live(context.Background(), "net_logs", "flows", map[string]string{"src_ip": "10.0.0.1"})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "10.0.0.1", rows[0]["src_ip"])

	reqs := srv.Requests(apitest.EndpointLive)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]string{"src_ip": "10.0.0.1"}, reqs[0].Body)
}

func TestClient_LiveEnvelopeAndObject(t *testing.T) {
	srv, client := newBackend(t)

	srv.LiveResponse = `{"data":[{"a":1},{"a":2}]}`
	rows, err := client.Live(context.Background(), "net_logs", "flows", map[string]string{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	srv.LiveResponse = `{"status":"ok"}`
	rows, err = client.Live(context.Background(), "net_logs", "flows", map[string]string{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ok", rows[0]["status"])
}

func TestEncodeFilters(t *testing.T) {
	s, err := api.EncodeFilters(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = api.EncodeFilters([]models.Predicate{{Field: "src_ip", Type: models.TypeEqual, Value: "10.0.0.1"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"field":"src_ip","type":"eq","value":"10.0.0.1"}]`, s)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50, api.Percent(50, 100))
	assert.Equal(t, 33, api.Percent(1, 3))
	assert.Equal(t, 67, api.Percent(2, 3))
	assert.Equal(t, 100, api.Percent(120, 100))
	assert.Equal(t, -1, api.Percent(10, -1))
}
