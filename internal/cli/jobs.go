package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStagesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the production stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := app.Service.Catalog(cmd.Context())
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Stages(catalog)
			return nil
		},
	}
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job's stage and where it can move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID("job", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			ov, err := app.Service.Overview(cmd.Context(), jobID)
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Overview(ov)
			return nil
		},
	}
}

func newNextCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next <job-id>",
		Short: "List the stages a job may move to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID("job", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			ov, err := app.Service.Overview(cmd.Context(), jobID)
			if err != nil {
				return fail(cmd, app, err)
			}
			for _, s := range ov.Available {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", s.ID, s.Name)
			}
			return nil
		},
	}
}

func newMoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <job-id> <stage>",
		Short: "Move a job to a later stage",
		Long: `Move a job to a later stage. The stage may be given by id or by name.

Only stages after the job's current stage are allowed, and restricted
stages (for example Finance) cannot be chosen here.

Exit codes:
  2  the stage is not an allowed target
  3  the ERP rejected the update`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID("job", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Service.SetProgressCallback(app.Printer.Step)
			job, err := app.Service.Move(cmd.Context(), jobID, args[1])
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Moved(job)
			return nil
		},
	}
}

func newAdvanceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <job-id>",
		Short: "Move a job to the next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID("job", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Service.SetProgressCallback(app.Printer.Step)
			job, err := app.Service.Advance(cmd.Context(), jobID)
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Moved(job)
			return nil
		},
	}
}

func newTimelineCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <job-id>",
		Short: "Show how long a job spent in each stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID("job", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			tl, err := app.Service.Timeline(cmd.Context(), jobID, app.Now())
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Timeline(tl)
			return nil
		},
	}
}
