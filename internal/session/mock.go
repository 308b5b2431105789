package session

import "context"

// AttachCall records one call to [MockAttacher.AttachStaff].
type AttachCall struct {
	JobID   int64
	StaffID int64
}

// MockAttacher is a test [Attacher] that records calls and returns Err.
type MockAttacher struct {
	Err   error
	Calls []AttachCall
}

// AttachStaff records the call.
func (m *MockAttacher) AttachStaff(ctx context.Context, jobID, staffID int64) error {
	m.Calls = append(m.Calls, AttachCall{JobID: jobID, StaffID: staffID})
	return m.Err
}
