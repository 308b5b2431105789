package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"printfloor/internal/session"
)

func newClaimCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <staff> [job-id]",
		Short: "Sign in at this terminal, optionally accepting a job",
		Long: `Record which staff member is working at this terminal. The staff
member may be given by id or by name.

With a job id, the staff member is also recorded as the job's accepting
staff on the ERP. If that update fails the terminal stays signed in.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobID int64
			if len(args) == 2 {
				id, err := parseID("job", args[1])
				if err != nil {
					return fail(cmd, app, err)
				}
				jobID = id
			}

			member, err := app.Service.StaffMember(cmd.Context(), args[0])
			if err != nil {
				return fail(cmd, app, err)
			}

			claim, err := app.Tracker.Claim(cmd.Context(), jobID, session.Staff{
				ID:    member.ID,
				Name:  member.Name,
				Email: member.Email,
			})
			if claim.StaffID != 0 {
				app.Printer.Claim(&claim, app.Now())
			}
			if err != nil {
				return fail(cmd, app, err)
			}
			return nil
		},
	}
}

func newAcceptCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <job-id>",
		Short: "Record the signed-in staff member as accepting a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID("job", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			claim, err := app.Tracker.Accept(cmd.Context(), jobID)
			if err != nil {
				return fail(cmd, app, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job #%d accepted by %s\n", jobID, claim.StaffName)
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is signed in at this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claim, err := app.Tracker.CurrentActor()
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Claim(claim, app.Now())
			return nil
		},
	}
}

func newReleaseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Sign out of this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Tracker.Release(); err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Released()
			return nil
		},
	}
}

func newTeamCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "team",
		Short: "List staff by team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := app.Service.Team(cmd.Context())
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Team(groups)
			return nil
		},
	}
}

func newLoyaltyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "loyalty <partner-id>",
		Short: "Show a customer's loyalty tier and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partnerID, err := parseID("partner", args[0])
			if err != nil {
				return fail(cmd, app, err)
			}
			app.Printer.Loyalty(app.Service.Loyalty(cmd.Context(), partnerID))
			return nil
		},
	}
}
