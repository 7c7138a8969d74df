package viewer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// TablesLoadedMsg carries the table list of the viewer's database
type TablesLoadedMsg struct {
	Database string
	Tables   []string
	Err      error
}

// TableInfoLoadedMsg carries table metadata. Seq guards against responses
// for a previous table or filter set.
type TableInfoLoadedMsg struct {
	Seq  uint64
	Info models.TableInfo
	Err  error
}

// ExportProgressMsg reports download progress in whole percent
type ExportProgressMsg struct {
	Percent int
}

// ExportDoneMsg is sent when a spreadsheet download finished or failed
type ExportDoneMsg struct {
	Path string
	Err  error
}

// LiveLoadedMsg carries the rows of a live query
type LiveLoadedMsg struct {
	Seq  uint64
	Rows []models.Row
	Err  error
}

// StatusMsg shows a transient message in the status bar
type StatusMsg struct {
	Text  string
	Error bool
}

// ClearStatusMsg clears a status message if it is still the latest one
type ClearStatusMsg struct {
	Seq uint64
}

// BackMsg asks the app to return to the selector
type BackMsg struct{}

const statusTimeout = 4 * time.Second

func (m *Model) requestCtx() (context.Context, context.CancelFunc) {
	if t := m.cfg.RequestTimeout(); t > 0 {
		return context.WithTimeout(context.Background(), t)
	}
	return context.WithCancel(context.Background())
}

func (m *Model) loadTables() tea.Cmd {
	backend, database := m.backend, m.database
	ctx, cancel := m.requestCtx()
	return func() tea.Msg {
		defer cancel()
		tables, err := backend.ListTables(ctx, database)
		return TablesLoadedMsg{Database: database, Tables: tables, Err: err}
	}
}

func (m *Model) loadTableInfo() tea.Cmd {
	m.infoSeq++
	seq := m.infoSeq
	backend := m.backend
	database, table := m.pager.Database(), m.pager.Table()
	filters := m.filters.List()
	ctx, cancel := m.requestCtx()

	return func() tea.Msg {
		defer cancel()
		info, err := backend.TableInfo(ctx, database, table, filters)
		return TableInfoLoadedMsg{Seq: seq, Info: info, Err: err}
	}
}

// startExport launches the download and a listener that relays progress
// from the download goroutine into the update loop
func (m *Model) startExport() tea.Cmd {
	progress := make(chan int, 8)
	done := make(chan ExportDoneMsg, 1)

	req := export.Request{
		Database: m.pager.Database(),
		Table:    m.pager.Table(),
		Filters:  m.filters.List(),
		Search:   m.search,
		Dir:      m.cfg.Export.Dir,
		Now:      m.now(),
	}
	backend := m.backend

	var ctx context.Context
	var cancel context.CancelFunc
	if t := m.cfg.ExportTimeout(); t > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), t)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	m.exportCancel = cancel
	m.exportProgress = progress
	m.exportDone = done

	m.logger.Info("export started", "database", req.Database, "table", req.Table, "filters", len(req.Filters), "search", req.Search)

	download := func() tea.Msg {
		defer cancel()
		path, err := export.Spreadsheet(ctx, backend, req, func(pct int) {
			// Drop updates the UI has not caught up with
			select {
			case progress <- pct:
			default:
			}
		})
		done <- ExportDoneMsg{Path: path, Err: err}
		close(progress)
		return nil
	}

	return tea.Batch(download, waitForExport(progress, done))
}

// waitForExport blocks until the next progress update or the final result
func waitForExport(progress <-chan int, done <-chan ExportDoneMsg) tea.Cmd {
	return func() tea.Msg {
		pct, ok := <-progress
		if ok {
			return ExportProgressMsg{Percent: pct}
		}
		return <-done
	}
}

// dumpBuffer writes the loaded rows to a local CSV or JSON file
func (m *Model) dumpBuffer(ext string) tea.Cmd {
	fields := m.columns.Visible()
	rows := m.grid.Rows
	table := m.pager.Table()
	filtered := m.filters.Len() > 0 || m.search != ""
	path := filepath.Join(m.cfg.Export.Dir, export.FileName(table, filtered, m.now(), ext))

	return func() tea.Msg {
		var err error
		switch ext {
		case "csv":
			err = export.ExportToCSV(fields, rows, path)
		default:
			err = export.ExportToJSON(rows, path)
		}
		if err != nil {
			return StatusMsg{Text: fmt.Sprintf("Export failed: %v", err), Error: true}
		}
		return StatusMsg{Text: fmt.Sprintf("Saved %s rows to %s", format.Count(int64(len(rows))), path)}
	}
}

func (m *Model) runLive(fields map[string]string) tea.Cmd {
	m.liveSeq++
	seq := m.liveSeq
	backend := m.backend
	database, table := m.pager.Database(), m.pager.Table()
	ctx, cancel := m.requestCtx()

	return func() tea.Msg {
		defer cancel()
		rows, err := backend.Live(ctx, database, table, fields)
		return LiveLoadedMsg{Seq: seq, Rows: rows, Err: err}
	}
}

// copyText writes text to the clipboard off the update loop
func (m *Model) copyText(what, text string) tea.Cmd {
	write := m.clipboard
	return func() tea.Msg {
		if err := write(text); err != nil {
			return StatusMsg{Text: fmt.Sprintf("Copy failed: %v", err), Error: true}
		}
		return StatusMsg{Text: "Copied " + what}
	}
}

// rowText renders a row as tab separated values in column order
func rowText(fields []string, row models.Row) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = format.Cell(row[f])
	}
	return strings.Join(parts, "\t")
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.status = text
	m.statusErr = isErr
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
