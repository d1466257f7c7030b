package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"timely/pkg/commands"
)

func newAddCmd(app *App) *cobra.Command {
	var opts commands.AddOptions

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task; #tag words become tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.HandleAddTask(cmd.Context(), app.Client, cmd.OutOrStdout(), strings.Join(args, " "), opts, app.now())
		},
	}
	cmd.Flags().StringVar(&opts.Description, "desc", "", "Description")
	cmd.Flags().StringVarP(&opts.Column, "column", "c", "todo", "Column for a scheduled task (todo, working, done)")
	cmd.Flags().StringVarP(&opts.Date, "date", "d", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&opts.Time, "time", "t", "", "Start time (HH:MM on the half hour)")
	cmd.Flags().BoolVarP(&opts.Quick, "quick", "q", false, "Title only, straight to backlog")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var (
		status string
		tags   []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the board column by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.HandleList(cmd.Context(), app.Client, cmd.OutOrStdout(), status, tags)
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Only this column")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Show tasks carrying any of these tags")
	return cmd
}

func newTagsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List the tags in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.HandleTags(cmd.Context(), app.Client, cmd.OutOrStdout())
		},
	}
}

func newScheduleCmd(app *App) *cobra.Command {
	var date, clock string

	cmd := &cobra.Command{
		Use:   "schedule <task-id>",
		Short: "Give a task exactly one calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := commands.ParseID(args[0])
			if err != nil {
				return err
			}
			return commands.HandleSchedule(cmd.Context(), app.Client, cmd.OutOrStdout(), id, date, clock, app.now())
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&clock, "time", "t", "", "Start time (HH:MM on the half hour)")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func newUnscheduleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule <task-id>",
		Short: "Remove a task's events and move it to backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := commands.ParseID(args[0])
			if err != nil {
				return err
			}
			return commands.HandleUnschedule(cmd.Context(), app.Client, cmd.OutOrStdout(), id)
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	var order int

	cmd := &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task to a column and position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := commands.ParseID(args[0])
			if err != nil {
				return err
			}
			return commands.HandleMove(cmd.Context(), app.Client, cmd.OutOrStdout(), id, args[1], order)
		},
	}
	cmd.Flags().IntVar(&order, "order", 1, "1-based position in the column")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	var (
		filter commands.DeleteFilter
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "delete [task-id]...",
		Short: "Delete tasks and their events, by id or by filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := commands.ParseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return commands.HandleDelete(cmd.Context(), app.Client, cmd.InOrStdin(), cmd.OutOrStdout(), ids, filter, yes)
		},
	}
	cmd.Flags().StringVarP(&filter.Status, "status", "s", "", "Delete every task in this column")
	cmd.Flags().StringSliceVar(&filter.Tags, "tag", nil, "Delete every task carrying any of these tags")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newDropCmd(app *App) *cobra.Command {
	var (
		at     string
		allDay bool
	)

	cmd := &cobra.Command{
		Use:   "drop <task-id>",
		Short: "Add a calendar event for a task without changing its column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := commands.ParseID(args[0])
			if err != nil {
				return err
			}
			return commands.HandleDrop(cmd.Context(), app.Client, cmd.OutOrStdout(), id, at, allDay)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Slot start (YYYY-MM-DDTHH:MM), or a date with --all-day")
	cmd.Flags().BoolVar(&allDay, "all-day", false, "Place the event in the all-day row")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
