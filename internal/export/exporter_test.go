package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/api"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

func testRows() []models.Row {
	return []models.Row{
		{"src_ip": "10.0.0.1", "bytes": float64(1500), "tags": []any{"a", "b"}},
		{"src_ip": "10.0.0.2, with comma", "bytes": nil},
	}
}

func TestExportToCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "flows.csv")

	err := ExportToCSV([]string{"src_ip", "bytes", "tags"}, testRows(), csvPath)
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if strings.Join(records[0], "|") != "src_ip|bytes|tags" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][1] != "1500" || records[1][2] != `["a","b"]` {
		t.Errorf("Unexpected first row: %v", records[1])
	}
	if records[2][0] != "10.0.0.2, with comma" {
		t.Errorf("Expected comma to survive quoting, got %q", records[2][0])
	}
	if records[2][1] != "" || records[2][2] != "" {
		t.Errorf("Expected null and missing values to be empty, got %v", records[2])
	}
}

func TestExportToCSV_NoRows(t *testing.T) {
	err := ExportToCSV([]string{"a"}, nil, filepath.Join(t.TempDir(), "x.csv"))
	if !errors.Is(err, ErrNothingToExport) {
		t.Errorf("Expected ErrNothingToExport, got %v", err)
	}
}

func TestExportToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "flows.json")

	if err := ExportToJSON(testRows(), jsonPath); err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0]["src_ip"] != "10.0.0.1" {
		t.Errorf("Unexpected src_ip: %v", rows[0]["src_ip"])
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("Expected indented JSON")
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	if got := FileName("flows", false, now, "xlsx"); got != "flows-20240305-140709.xlsx" {
		t.Errorf("Unexpected name: %s", got)
	}
	if got := FileName("flows", true, now, "xlsx"); got != "flows-filtered-20240305-140709.xlsx" {
		t.Errorf("Unexpected filtered name: %s", got)
	}
	if got := FileName("../etc/passwd", false, now, "csv"); strings.Contains(got, "/") {
		t.Errorf("Expected path separators to be replaced, got %s", got)
	}
}

type fakeSource struct {
	body []byte
	err  error
	got  Request
}

func (f *fakeSource) Export(ctx context.Context, database, table string, filters []models.Predicate, search string, w io.Writer, progress api.ProgressFunc) (int64, error) {
	f.got = Request{Database: database, Table: table, Filters: filters, Search: search}

	half := len(f.body) / 2
	if _, err := w.Write(f.body[:half]); err != nil {
		return 0, err
	}
	progress(int64(half), int64(len(f.body)))
	if f.err != nil {
		return int64(half), f.err
	}
	if _, err := w.Write(f.body[half:]); err != nil {
		return int64(half), err
	}
	progress(int64(len(f.body)), int64(len(f.body)))
	return int64(len(f.body)), nil
}

func TestSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{body: bytes.Repeat([]byte("x"), 100)}
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	var progress []int
	path, err := Spreadsheet(context.Background(), src, Request{
		Database: "net_logs",
		Table:    "flows",
		Filters:  []models.Predicate{{Field: "src_ip", Type: models.TypeEqual, Value: "10.0.0.1"}},
		Dir:      dir,
		Now:      now,
	}, func(pct int) { progress = append(progress, pct) })
	if err != nil {
		t.Fatalf("Spreadsheet failed: %v", err)
	}

	if filepath.Base(path) != "flows-filtered-20240305-140709.xlsx" {
		t.Errorf("Unexpected file name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) != 100 {
		t.Errorf("Expected 100 bytes on disk, got %d (%v)", len(data), err)
	}
	if len(progress) != 2 || progress[0] != 50 || progress[1] != 100 {
		t.Errorf("Unexpected progress: %v", progress)
	}
	if src.got.Table != "flows" || len(src.got.Filters) != 1 {
		t.Errorf("Unexpected export request: %+v", src.got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the final file in %s, got %d entries", dir, len(entries))
	}
}

func TestSpreadsheet_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{body: []byte("partial-data"), err: errors.New("connection reset")}

	_, err := Spreadsheet(context.Background(), src, Request{Table: "flows", Dir: dir}, nil)
	if err == nil {
		t.Fatal("Expected error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files after failure, got %d", len(entries))
	}
}
