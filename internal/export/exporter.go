// Package export writes table data to local files.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rebeliceyang/lazygrid/internal/api"
	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNothingToExport is returned when there are no rows loaded
var ErrNothingToExport = errors.New("no rows to export")

const timestampLayout = "20060102-150405"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds the export file name for a table. Filtered exports are
// marked so they are not mistaken for a full dump.
func FileName(table string, filtered bool, now time.Time, ext string) string {
	base := unsafeName.ReplaceAllString(table, "_")
	if base == "" {
		base = "export"
	}
	if filtered {
		base += "-filtered"
	}
	return fmt.Sprintf("%s-%s.%s", base, now.Format(timestampLayout), ext)
}

// ExportToCSV writes the loaded rows as CSV with one column per field
func ExportToCSV(fields []string, rows []models.Row, path string) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	if err := writer.Write(fields); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(fields))
	for _, row := range rows {
		for i, f := range fields {
			v, ok := row[f]
			if !ok || v == nil {
				record[i] = ""
				continue
			}
			record[i] = format.Cell(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return file.Close()
}

// ExportToJSON writes the loaded rows as an indented JSON array
func ExportToJSON(rows []models.Row, path string) error {
	if len(rows) == 0 {
		return ErrNothingToExport
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

// Source streams a server-side spreadsheet export
type Source interface {
	Export(ctx context.Context, database, table string, filters []models.Predicate, search string, w io.Writer, progress api.ProgressFunc) (int64, error)
}

// Request describes one spreadsheet download
type Request struct {
	Database string
	Table    string
	Filters  []models.Predicate
	Search   string
	Dir      string
	Now      time.Time
}

// Filtered reports whether the export is narrowed by filters or search
func (r Request) Filtered() bool {
	return len(r.Filters) > 0 || r.Search != ""
}

// Spreadsheet downloads the backend's xlsx export into r.Dir. The file only
// appears under its final name once the download completed; a failed
// download leaves nothing behind. progress receives whole percentages, or
// -1 while the size is unknown.
func Spreadsheet(ctx context.Context, src Source, r Request, progress func(int)) (string, error) {
	dir := r.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lazygrid-export-*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	last := -2
	report := func(received, total int64) {
		if progress == nil {
			return
		}
		if pct := api.Percent(received, total); pct != last {
			last = pct
			progress(pct)
		}
	}

	if _, err := src.Export(ctx, r.Database, r.Table, r.Filters, r.Search, tmp, report); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finish export file: %w", err)
	}

	now := r.Now
	if now.IsZero() {
		now = time.Now()
	}
	final := filepath.Join(dir, FileName(r.Table, r.Filtered(), now, "xlsx"))
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	return final, nil
}
