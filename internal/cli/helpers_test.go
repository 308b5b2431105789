package cli

import (
	"bytes"
	"testing"
	"time"

	"printfloor/internal/config"
	"printfloor/internal/loyalty"
	"printfloor/internal/output"
	"printfloor/internal/session"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
	"printfloor/internal/workorder"
)

// testNow is the fixed clock used by CLI tests.
var testNow = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

// testEnv bundles an App with the fakes behind it.
type testEnv struct {
	App      *App
	Reader   *workorder.MockReader
	Writer   *workorder.SyncWriter
	Attacher *session.MockAttacher
	Store    *session.MemoryStore
	Out      *bytes.Buffer
}

// newTestEnv builds an App over an in-memory ERP with a five-stage catalog
// (Intake, Design, Print, restricted Finance, Done) and job 42 in Design.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reader := &workorder.MockReader{
		Catalog: stage.MustCatalog(
			stage.Stage{ID: 1, Name: "Intake", Sequence: 1},
			stage.Stage{ID: 2, Name: "Design", Sequence: 2},
			stage.Stage{ID: 3, Name: "Print", Sequence: 3},
			stage.Stage{ID: 4, Name: "Finance", Sequence: 4, Restricted: true},
			stage.Stage{ID: 5, Name: "Done", Sequence: 5},
		),
		Jobs: map[int64]stage.Job{
			42: {ID: 42, Name: "Poster", CurrentStageID: 2, CurrentStageName: "Design", PartnerID: 8,
				CreatedAt: testNow.Add(-26 * time.Hour)},
		},
		History: map[int64][]timeline.Event{},
		Members: []team.Member{
			{ID: 7, Name: "สมชาย", TeamName: "Print"},
			{ID: 9, Name: "Am", TeamName: "Design"},
		},
		Accounts: map[int64]loyalty.Account{
			8: {Points: 1200, TierLabel: "Silver", TotalOrders: 12, TotalSpent: 25000},
		},
	}
	writer := &workorder.SyncWriter{Reader: reader}
	attacher := &session.MockAttacher{}
	store := &session.MemoryStore{}
	out := &bytes.Buffer{}

	app := &App{
		Config:  config.DefaultConfig(),
		Service: workorder.NewService(reader, writer, nil),
		Tracker: session.NewTracker(store, attacher, session.WithClock(func() time.Time { return testNow })),
		Printer: output.NewPrinterWithWriter(out, output.WithLocale("en"), output.WithColor(false)),
		Now:     func() time.Time { return testNow },
	}

	return &testEnv{
		App:      app,
		Reader:   reader,
		Writer:   writer,
		Attacher: attacher,
		Store:    store,
		Out:      out,
	}
}

// run executes the command line against the env's App.
func (e *testEnv) run(args ...string) ExecuteResult {
	rootCmd := NewRootCommand(e.App)
	rootCmd.SetOut(e.Out)
	rootCmd.SetErr(e.Out)
	rootCmd.SetArgs(args)
	return runRoot(rootCmd)
}
