package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/lazygrid/internal/format"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// statsConcurrency bounds parallel table-info requests
const statsConcurrency = 4

// NewSourcesCommand creates the sources command.
func NewSourcesCommand() *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the databases and tables the backend serves",
		Example: `  # List every table
  lazygrid sources

  # Include row counts and sizes
  lazygrid sources --stats --api http://localhost:8000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := EnvFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runSources(cmd.Context(), cmd.OutOrStdout(), env, stats)
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Fetch row counts and sizes for every table")
	return cmd
}

type sourceRow struct {
	database string
	table    string
	info     models.TableInfo
	err      error
}

func runSources(ctx context.Context, w io.Writer, env *Env, stats bool) error {
	client := env.Client()

	listCtx, cancel := context.WithTimeout(ctx, env.Config.RequestTimeout())
	sources, err := client.ListSources(listCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	var rows []sourceRow
	for _, src := range sources {
		for _, t := range src.Tables {
			rows = append(rows, sourceRow{database: src.Name, table: t})
		}
	}

	if stats {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(statsConcurrency)
		for i := range rows {
			g.Go(func() error {
				reqCtx, cancel := context.WithTimeout(gctx, env.Config.RequestTimeout())
				defer cancel()

				r := &rows[i]
				r.info, r.err = client.TableInfo(reqCtx, r.database, r.table, nil)
				if r.err != nil {
					env.Logger.Warn("table info failed", "database", r.database, "table", r.table, "error", r.err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	renderSources(w, sources, rows, stats)
	return nil
}

func renderSources(w io.Writer, sources []models.DataSource, rows []sourceRow, stats bool) {
	if len(sources) == 0 {
		_, _ = fmt.Fprintln(w, "(no sources)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"Database", "Table"}
	if stats {
		header = append(header, "Rows", "Size")
	}
	t.AppendHeader(header)

	var total int64
	for _, r := range rows {
		row := table.Row{r.database, r.table}
		if stats {
			if r.err != nil {
				row = append(row, "N/A", "N/A")
			} else {
				total += r.info.TotalRows
				row = append(row, format.Count(r.info.TotalRows), format.SizeMB(r.info.SizeMB))
			}
		}
		t.AppendRow(row)
	}

	// Databases without tables still get a line
	for _, src := range sources {
		if len(src.Tables) == 0 {
			row := table.Row{src.Name, "(empty)"}
			if stats {
				row = append(row, "", "")
			}
			t.AppendRow(row)
		}
	}

	footer := table.Row{fmt.Sprintf("%d databases", len(sources)), fmt.Sprintf("%d tables", len(rows))}
	if stats {
		footer = append(footer, format.Count(total), "")
	}
	t.AppendFooter(footer)
	t.Render()
}
