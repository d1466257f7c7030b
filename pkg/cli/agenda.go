package cli

import (
	"github.com/spf13/cobra"

	"timely/pkg/commands"
)

func newEventsCmd(app *App) *cobra.Command {
	var (
		week string
		tags []string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print a week's agenda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.HandleEvents(cmd.Context(), app.Client, cmd.OutOrStdout(), week, tags, app.now())
		},
	}
	cmd.Flags().StringVarP(&week, "week", "w", "", "Any date in the week (YYYY-MM-DD, default this week)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Hide events of tasks without these tags")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var exportType string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export every task, \"-\" for stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.HandleExportCommand(cmd.Context(), app.Client, cmd.OutOrStdout(), args[0], exportType)
		},
	}
	cmd.Flags().StringVar(&exportType, "type", "json", "Export file type (json, txt)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import tasks from an agenda text file, \"-\" for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.HandleImportCommand(cmd.Context(), app.Client, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], app.now())
		},
	}
}
