package workorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printfloor/internal/erp"
	"printfloor/internal/loyalty"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
	"printfloor/internal/transition"
)

var (
	intake  = stage.Stage{ID: 1, Name: "Intake", Sequence: 1}
	design  = stage.Stage{ID: 2, Name: "Design", Sequence: 2}
	press   = stage.Stage{ID: 3, Name: "Print", Sequence: 3}
	finance = stage.Stage{ID: 4, Name: "Finance", Sequence: 4, Restricted: true}
	done    = stage.Stage{ID: 5, Name: "Done", Sequence: 5}
)

func newTestReader() *MockReader {
	return &MockReader{
		Catalog: stage.MustCatalog(done, finance, press, design, intake),
		Jobs: map[int64]stage.Job{
			42: {ID: 42, Name: "Poster", CurrentStageID: 2, CurrentStageName: "Design", PartnerID: 8,
				CreatedAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
			43: {ID: 43, Name: "Flyer", CurrentStageID: 5, CurrentStageName: "Done"},
			44: {ID: 44, Name: "Banner", CurrentStageID: 3, CurrentStageName: "Print"},
		},
		History:  map[int64][]timeline.Event{},
		Accounts: map[int64]loyalty.Account{},
	}
}

func newTestService(reader *MockReader) (*Service, *SyncWriter) {
	writer := &SyncWriter{Reader: reader}
	return NewService(reader, writer, nil), writer
}

func TestService_Overview(t *testing.T) {
	svc, _ := newTestService(newTestReader())

	ov, err := svc.Overview(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), ov.Job.ID)
	assert.Equal(t, 1, ov.CurrentIndex)
	assert.Equal(t, []stage.Stage{press, done}, ov.Available)
	assert.True(t, ov.HasNext)
	assert.Equal(t, press, ov.Next)
}

func TestService_Overview_FetchErrors(t *testing.T) {
	fetchErr := fmt.Errorf("%w: HTTP 500", erp.ErrFetchFailed)

	tests := []struct {
		name  string
		setup func(r *MockReader)
	}{
		{"job", func(r *MockReader) { r.JobErr = fetchErr }},
		{"catalog", func(r *MockReader) { r.StagesErr = fetchErr }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newTestReader()
			tt.setup(reader)
			svc, _ := newTestService(reader)

			_, err := svc.Overview(context.Background(), 42)

			assert.ErrorIs(t, err, erp.ErrFetchFailed)
		})
	}
}

func TestService_Move(t *testing.T) {
	reader := newTestReader()
	svc, writer := newTestService(reader)

	var steps []string
	svc.SetProgressCallback(func(i, total int, step string) {
		assert.Equal(t, 4, total)
		steps = append(steps, fmt.Sprintf("%d:%s", i, step))
	})

	job, err := svc.Move(context.Background(), 42, "print")

	require.NoError(t, err)
	assert.Equal(t, int64(3), job.CurrentStageID)
	assert.Equal(t, "Print", job.CurrentStageName)
	assert.Equal(t, []int64{3}, writer.Calls)
	assert.Equal(t, []string{
		"1:" + StepLoad,
		"2:" + StepResolve,
		"3:" + StepWrite,
		"4:" + StepRefresh,
	}, steps)
}

func TestService_Move_ByID(t *testing.T) {
	svc, writer := newTestService(newTestReader())

	job, err := svc.Move(context.Background(), 42, "5")

	require.NoError(t, err)
	assert.Equal(t, int64(5), job.CurrentStageID)
	assert.Equal(t, []int64{5}, writer.Calls)
}

func TestService_Move_InvalidTargets(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"unknown stage", "Shipping"},
		{"backward", "Intake"},
		{"same stage", "Design"},
		{"restricted", "Finance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, writer := newTestService(newTestReader())

			_, err := svc.Move(context.Background(), 42, tt.ref)

			assert.ErrorIs(t, err, transition.ErrInvalidTarget)
			assert.Empty(t, writer.Calls)
		})
	}
}

func TestService_Move_WriteFails(t *testing.T) {
	reader := newTestReader()
	svc, writer := newTestService(reader)
	writer.Err = fmt.Errorf("%w: HTTP 500", erp.ErrWriteFailed)

	job, err := svc.Move(context.Background(), 42, "Print")

	assert.ErrorIs(t, err, transition.ErrTransitionFailed)
	assert.ErrorIs(t, err, erp.ErrWriteFailed)
	assert.Equal(t, int64(2), job.CurrentStageID)
	assert.Equal(t, int64(2), reader.Jobs[42].CurrentStageID)
}

func TestService_Move_RefreshFailsKeepsResult(t *testing.T) {
	reader := newTestReader()
	writer := &SyncWriter{Reader: reader}
	var buf bytes.Buffer
	svc := NewService(&refreshFailing{MockReader: reader}, writer, slog.New(slog.NewTextHandler(&buf, nil)))

	job, err := svc.Move(context.Background(), 42, "Print")

	require.NoError(t, err)
	assert.Equal(t, int64(3), job.CurrentStageID)
	assert.Contains(t, buf.String(), "job refresh failed")
}

// refreshFailing fails every Job call after the first.
type refreshFailing struct {
	*MockReader
	calls int
}

func (r *refreshFailing) Job(ctx context.Context, jobID int64) (stage.Job, error) {
	r.calls++
	if r.calls > 1 {
		return stage.Job{}, errors.New("connection reset")
	}
	return r.MockReader.Job(ctx, jobID)
}

func TestService_Advance(t *testing.T) {
	svc, writer := newTestService(newTestReader())

	job, err := svc.Advance(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, int64(3), job.CurrentStageID)
	assert.Equal(t, []int64{3}, writer.Calls)
}

func TestService_Advance_LastStage(t *testing.T) {
	svc, writer := newTestService(newTestReader())

	_, err := svc.Advance(context.Background(), 43)

	assert.ErrorIs(t, err, ErrNoNextStage)
	assert.Empty(t, writer.Calls)
}

func TestService_Advance_NextIsRestricted(t *testing.T) {
	svc, writer := newTestService(newTestReader())

	_, err := svc.Advance(context.Background(), 44)

	assert.ErrorIs(t, err, transition.ErrInvalidTarget)
	assert.Empty(t, writer.Calls)
}

func TestService_Timeline(t *testing.T) {
	reader := newTestReader()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	reader.History[42] = []timeline.Event{
		{Timestamp: base, ToStage: "Intake"},
		{Timestamp: base.Add(2 * time.Hour), FromStage: "Intake", ToStage: "Design"},
	}
	svc, _ := newTestService(reader)

	tl, err := svc.Timeline(context.Background(), 42, base.Add(5*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "Design", tl.CurrentStage)
	assert.InDelta(t, 3.0, tl.CurrentStageDurationHours, 1e-9)
	assert.Equal(t, 2, tl.Statistics.TotalStages)
}

func TestService_Timeline_HistoryUnavailable(t *testing.T) {
	reader := newTestReader()
	reader.HistoryErr = fmt.Errorf("%w: timeout", erp.ErrFetchFailed)
	var buf bytes.Buffer
	svc := NewService(reader, &SyncWriter{Reader: reader}, slog.New(slog.NewTextHandler(&buf, nil)))
	now := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

	tl, err := svc.Timeline(context.Background(), 42, now)

	require.NoError(t, err)
	assert.Empty(t, tl.Entries)
	assert.Equal(t, "Design", tl.CurrentStage)
	assert.InDelta(t, 12.0, tl.CurrentStageDurationHours, 1e-9)
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestService_Timeline_JobUnavailable(t *testing.T) {
	reader := newTestReader()
	reader.JobErr = fmt.Errorf("%w: HTTP 502", erp.ErrFetchFailed)
	reader.HistoryErr = fmt.Errorf("%w: HTTP 502", erp.ErrFetchFailed)
	var buf bytes.Buffer
	svc := NewService(reader, &SyncWriter{Reader: reader}, slog.New(slog.NewTextHandler(&buf, nil)))
	now := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

	tl, err := svc.Timeline(context.Background(), 42, now)

	require.NoError(t, err)
	assert.Empty(t, tl.Entries)
	assert.Empty(t, tl.CurrentStage)
	assert.Zero(t, tl.CurrentStageDurationHours)
	assert.Zero(t, tl.Statistics.TotalStages)
	assert.Contains(t, buf.String(), "job unavailable for timeline")
}

func TestService_Timeline_JobUnavailableWithHistory(t *testing.T) {
	reader := newTestReader()
	reader.JobErr = fmt.Errorf("%w: HTTP 502", erp.ErrFetchFailed)
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	reader.History[42] = []timeline.Event{
		{Timestamp: base, ToStage: "Intake"},
		{Timestamp: base.Add(2 * time.Hour), FromStage: "Intake", ToStage: "Design"},
	}
	svc, _ := newTestService(reader)

	tl, err := svc.Timeline(context.Background(), 42, base.Add(5*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "Design", tl.CurrentStage)
	assert.InDelta(t, 3.0, tl.CurrentStageDurationHours, 1e-9)
}

func TestService_Loyalty(t *testing.T) {
	reader := newTestReader()
	reader.Accounts[8] = loyalty.Account{Points: 1200, TierLabel: "silver"}
	svc, _ := newTestService(reader)

	sum := svc.Loyalty(context.Background(), 8)

	assert.Equal(t, loyalty.Gold, sum.NextTier)
	assert.Equal(t, 800, sum.PointsNeeded)
}

func TestService_Loyalty_Unavailable(t *testing.T) {
	reader := newTestReader()
	reader.LoyaltyErr = errors.New("HTTP 502")
	svc, _ := newTestService(reader)

	sum := svc.Loyalty(context.Background(), 8)

	assert.Equal(t, loyalty.Bronze, sum.TierLabel)
	assert.Equal(t, 0, sum.Points)
	assert.Equal(t, loyalty.Silver, sum.NextTier)
	assert.Equal(t, 500, sum.PointsNeeded)
}

func TestService_Team(t *testing.T) {
	reader := newTestReader()
	reader.Members = []team.Member{
		{ID: 1, Name: "Nok", TeamName: "Print"},
		{ID: 2, Name: "Am", TeamName: "Design"},
	}
	svc, _ := newTestService(reader)

	groups, err := svc.Team(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Design", groups[0].TeamName)
}

func TestService_Team_Error(t *testing.T) {
	reader := newTestReader()
	reader.TeamErr = fmt.Errorf("%w: HTTP 500", erp.ErrFetchFailed)
	svc, _ := newTestService(reader)

	_, err := svc.Team(context.Background())

	assert.ErrorIs(t, err, erp.ErrFetchFailed)
}

func TestService_StaffMember(t *testing.T) {
	reader := newTestReader()
	reader.Members = []team.Member{
		{ID: 102, Name: "สาว", TeamName: "Print"},
		{ID: 7, Name: "Toon", TeamName: "Design"},
	}
	svc, _ := newTestService(reader)

	m, err := svc.StaffMember(context.Background(), "102")
	require.NoError(t, err)
	assert.Equal(t, "สาว", m.Name)

	m, err = svc.StaffMember(context.Background(), "toon")
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)

	_, err = svc.StaffMember(context.Background(), "999")
	assert.ErrorIs(t, err, ErrUnknownStaff)
}
