// Package cli provides the command-line interface for lazygrid.
package cli

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/app"
	"github.com/rebeliceyang/lazygrid/internal/cli/commands"
	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/logging"
	"github.com/rebeliceyang/lazygrid/internal/prefs"
)

// Version information (set at build time).
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile  string
		database string
		tableArg string
		closer   io.Closer
	)

	rootCmd := &cobra.Command{
		Use:   "lazygrid",
		Short: "Terminal viewer for table-browsing REST backends",
		Long: `lazygrid browses the databases and tables a REST backend exposes.

Pick a source, then scroll, filter, search and export its rows without
leaving the terminal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, c, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			closer = c

			cmd.SetContext(commands.WithEnv(cmd.Context(), &commands.Env{Config: cfg, Logger: logger}))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if closer != nil {
				_ = closer.Close()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := commands.EnvFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runTUI(env, database, tableArg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <config dir>/lazygrid/config.yaml)")
	rootCmd.PersistentFlags().String("api", "", "Backend base URL (overrides api.base_url)")
	rootCmd.Flags().StringVarP(&database, "database", "d", "", "Open this database directly")
	rootCmd.Flags().StringVarP(&tableArg, "table", "t", "", "Table to select when --database is given")

	rootCmd.AddCommand(commands.NewSourcesCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

func runTUI(env *commands.Env, database, table string) error {
	if table != "" && database == "" {
		return errors.New("--table needs --database")
	}

	logger := env.Logger
	logger.Info("starting", "api", env.Config.API.BaseURL)

	var store *prefs.Store
	if dir, err := config.GetConfigPath(); err != nil {
		logger.Warn("no config directory, preferences will not persist", "error", err)
	} else if store, err = prefs.NewStore(dir); err != nil {
		logger.Warn("ignoring unreadable preferences", "error", err)
		store = nil
	}

	a := app.New(env.Client(), app.Options{
		Config:   env.Config,
		Prefs:    store,
		Logger:   logger,
		Database: database,
		Table:    table,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if env.Config.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	if _, err := tea.NewProgram(a, opts...).Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
