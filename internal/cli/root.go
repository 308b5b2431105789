// Package cli wires the printfloor commands.
//
// Commands receive their dependencies through [App] so tests can swap the ERP
// and the claim store for in-memory fakes. Failures are returned as
// [ExitError] values; only [Execute] calls os.Exit.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"printfloor/internal/config"
	"printfloor/internal/erp"
	"printfloor/internal/logging"
	"printfloor/internal/output"
	"printfloor/internal/session"
	"printfloor/internal/transition"
	"printfloor/internal/workorder"
)

// Exit codes.
const (
	ExitGeneral          = 1
	ExitInvalidTarget    = 2
	ExitTransitionFailed = 3
)

// App holds the dependencies shared by every command.
type App struct {
	Config  *config.Config
	Service *workorder.Service
	Tracker *session.Tracker
	Printer *output.Printer
	Log     *slog.Logger

	// Now is the clock used for timelines and claim ages.
	Now func() time.Time

	closers []io.Closer
}

// NewApp builds an App talking to the configured ERP. Command output goes to
// stdout and diagnostics to stderr.
func NewApp(cfg *config.Config, stdout, stderr io.Writer) (*App, error) {
	log := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)

	client := erp.New(erp.Options{
		BaseURL:          cfg.ERP.BaseURL,
		Timeout:          cfg.ERP.Timeout,
		RatePerSecond:    cfg.ERP.RatePerSecond,
		Burst:            cfg.ERP.Burst,
		AcceptedByField:  cfg.ERP.AcceptedByField,
		RestrictedStages: cfg.Catalog.RestrictedStages,
		CatalogFile:      cfg.Catalog.File,
	}, log)

	app := &App{
		Config:  cfg,
		Service: workorder.NewService(client, client, log),
		Printer: output.NewPrinterWithWriter(stdout,
			output.WithLocale(cfg.Output.Locale),
			output.WithColor(cfg.Output.Color),
		),
		Log: log,
		Now: time.Now,
	}

	store, err := app.openStore()
	if err != nil {
		return nil, err
	}
	app.Tracker = session.NewTracker(store, client, session.WithLogger(log))
	return app, nil
}

func (a *App) openStore() (session.Store, error) {
	path, err := a.Config.SessionPath()
	if err != nil {
		return nil, err
	}

	switch a.Config.Session.Backend {
	case config.BackendMemory:
		return &session.MemoryStore{}, nil
	case config.BackendSQLite:
		store, err := session.OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return session.NewFileStore(path), nil
	}
}

// Close releases resources opened by [NewApp].
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "printfloor",
		Short: "Print-shop job lifecycle tool",
		Long: `printfloor moves print jobs through their production stages,
tracks which staff member is working at this terminal, and reports
stage timelines and customer loyalty standing.`,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newStagesCommand(app),
		newShowCommand(app),
		newNextCommand(app),
		newMoveCommand(app),
		newAdvanceCommand(app),
		newTimelineCommand(app),
		newClaimCommand(app),
		newAcceptCommand(app),
		newWhoamiCommand(app),
		newReleaseCommand(app),
		newTeamCommand(app),
		newLoyaltyCommand(app),
	)
	return rootCmd
}

// ExecuteResult is the outcome of one CLI run.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// RunWithConfig validates cfg, runs the command line args and reports the
// exit code without exiting.
func RunWithConfig(cfg *config.Config, args []string, stdout, stderr io.Writer) ExecuteResult {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return ExecuteResult{ExitCode: ExitGeneral, Err: err}
	}

	app, err := NewApp(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExecuteResult{ExitCode: ExitGeneral, Err: err}
	}
	defer app.Close()

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return runRoot(rootCmd)
}

func runRoot(rootCmd *cobra.Command) ExecuteResult {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return ExecuteResult{ExitCode: ExitGeneral, Err: err}
	}
	return ExecuteResult{}
}

// Execute loads configuration, runs the CLI and exits the process.
func Execute() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitGeneral)
	}

	result := RunWithConfig(cfg, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(result.ExitCode)
}

// exitCodeFor maps domain errors to process exit codes.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, transition.ErrInvalidTarget):
		return ExitInvalidTarget
	case errors.Is(err, transition.ErrTransitionFailed):
		return ExitTransitionFailed
	default:
		return ExitGeneral
	}
}

// fail prints err and converts it to an [ExitError].
func fail(cmd *cobra.Command, app *App, err error) error {
	cmd.SilenceUsage = true
	app.Printer.Error(err)
	return NewExitError(exitCodeFor(err))
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}
