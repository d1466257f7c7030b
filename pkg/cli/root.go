// Package cli wires the cobra command tree: no subcommand runs the board,
// subcommands script the same operations.
package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"timely/pkg/api"
	"timely/pkg/config"
	"timely/pkg/database"
	"timely/pkg/ui"
	"timely/pkg/utils"
)

// App carries the flags and what PersistentPreRunE builds from them
type App struct {
	ConfigPath string
	APIURL     string
	Verbose    bool

	Config config.Config
	Styles config.Styles
	Client *api.Client

	now func() time.Time
}

// NewRootCmd builds the timely command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{now: time.Now})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "timely",
		Short:         "Task board and week calendar for the timely service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		Example: strings.TrimSpace(`
  # Start the board
  timely

  # Add a task at 09:30 tomorrow
  timely add "Write report #work" --date 2024-01-11 --time 09:30

  # This week's agenda for one tag
  timely events --tag work
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(app.Verbose)

		cfg, styles, err := config.Load(app.ConfigPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if app.APIURL != "" {
			cfg.APIURL = app.APIURL
		}
		app.Config, app.Styles = cfg, styles
		app.Client = api.NewClient(api.Options{BaseURL: cfg.APIURL, RateLimit: cfg.RateLimit})

		utils.Logger().Debugw("configuration loaded",
			"command", cmd.CommandPath(), "api_url", cfg.APIURL, "database", cfg.Database)
		return nil
	}

	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		utils.CloseLogger()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api", "", "Collaborator base URL (overrides api_url)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newTagsCmd(app))
	cmd.AddCommand(newScheduleCmd(app))
	cmd.AddCommand(newUnscheduleCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newDropCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	db, err := database.ConnectDB(app.Config.Database)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}

	m := ui.NewModel(cmd.Context(), app.Client, database.NewPrefs(db), app.Config, app.Styles)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
