package workorder

import (
	"context"
	"errors"
	"sync"

	"printfloor/internal/loyalty"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
)

// MockReader is a test [Reader] backed by in-memory records.
//
// Jobs are looked up by id; a missing job returns JobErr, or ErrMissing when
// JobErr is nil. Each *Err field, when set, is returned by its method.
type MockReader struct {
	Catalog  stage.Catalog
	Jobs     map[int64]stage.Job
	History  map[int64][]timeline.Event
	Members  []team.Member
	Accounts map[int64]loyalty.Account

	StagesErr  error
	JobErr     error
	HistoryErr error
	TeamErr    error
	LoyaltyErr error

	// JobCalls counts Job calls. Guarded by mu; Overview reads concurrently.
	mu       sync.Mutex
	JobCalls int
}

// ErrMissing is returned by [MockReader] for unknown ids.
var ErrMissing = errors.New("record not found")

// Stages returns Catalog.
func (m *MockReader) Stages(ctx context.Context) (stage.Catalog, error) {
	if m.StagesErr != nil {
		return stage.Catalog{}, m.StagesErr
	}
	return m.Catalog, nil
}

// Job returns the job with the given id.
func (m *MockReader) Job(ctx context.Context, jobID int64) (stage.Job, error) {
	m.mu.Lock()
	m.JobCalls++
	m.mu.Unlock()

	if m.JobErr != nil {
		return stage.Job{}, m.JobErr
	}
	job, ok := m.Jobs[jobID]
	if !ok {
		return stage.Job{}, ErrMissing
	}
	return job, nil
}

// StageHistory returns the job's recorded history.
func (m *MockReader) StageHistory(ctx context.Context, jobID int64) ([]timeline.Event, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	return m.History[jobID], nil
}

// TeamMembers returns Members.
func (m *MockReader) TeamMembers(ctx context.Context) ([]team.Member, error) {
	if m.TeamErr != nil {
		return nil, m.TeamErr
	}
	return m.Members, nil
}

// LoyaltyAccount returns the partner's account.
func (m *MockReader) LoyaltyAccount(ctx context.Context, partnerID int64) (loyalty.Account, error) {
	if m.LoyaltyErr != nil {
		return loyalty.Account{}, m.LoyaltyErr
	}
	acc, ok := m.Accounts[partnerID]
	if !ok {
		return loyalty.Account{}, ErrMissing
	}
	return acc, nil
}

// SyncWriter applies UpdateStage calls to a [MockReader]'s jobs, so a
// refetch after a transition sees the new stage.
type SyncWriter struct {
	Reader *MockReader
	Err    error
	Calls  []int64
}

// UpdateStage records the call and, on success, moves the job.
func (w *SyncWriter) UpdateStage(ctx context.Context, jobID, stageID int64) error {
	w.Calls = append(w.Calls, stageID)
	if w.Err != nil {
		return w.Err
	}
	job := w.Reader.Jobs[jobID]
	job.CurrentStageID = stageID
	if s, ok := w.Reader.Catalog.ByID(stageID); ok {
		job.CurrentStageName = s.Name
	}
	w.Reader.Jobs[jobID] = job
	return nil
}
