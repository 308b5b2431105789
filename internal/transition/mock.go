package transition

import "context"

// WriteCall records one [MockWriter.UpdateStage] invocation.
type WriteCall struct {
	JobID   int64
	StageID int64
}

// MockWriter implements [StageWriter] for testing.
//
// Configure Err to make every write fail:
//
//	w := &MockWriter{Err: errors.New("502 bad gateway")}
type MockWriter struct {
	// Err is returned from every UpdateStage call when non-nil.
	Err error

	// Calls records all UpdateStage invocations in order.
	Calls []WriteCall
}

// UpdateStage records the call and returns the configured error.
func (m *MockWriter) UpdateStage(ctx context.Context, jobID, stageID int64) error {
	m.Calls = append(m.Calls, WriteCall{JobID: jobID, StageID: stageID})
	return m.Err
}
