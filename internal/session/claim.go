// Package session tracks which staff member is operating this terminal.
//
// A terminal has at most one active claim. It is not tied to a particular
// job: a shared workstation is claimed once and then used to accept many jobs
// in a row. The claim is attached to a job on the ERP only when a job is
// accepted.
//
// Key types:
//   - [Tracker] is the single-slot session value handed to the UI layer
//   - [Claim] is the persisted "who is at this terminal" record
//   - [Store] persists the claim on the device ([FileStore], [SQLiteStore],
//     [MemoryStore])
//   - [Attacher] writes the accepted-by staff id onto an ERP job
package session

import (
	"errors"
	"time"
)

// StorageKey is the fixed key the claim is stored under, in every backend.
const StorageKey = "printfloor_current_staff"

// Sentinel errors for claims.
var (
	// ErrAttachFailed indicates the ERP write attaching the staff member to a
	// job failed. The local claim is still in place.
	ErrAttachFailed = errors.New("failed to attach staff to job")

	// ErrInvalidStaff indicates the staff record failed validation. Nothing
	// was stored or sent.
	ErrInvalidStaff = errors.New("invalid staff member")

	// ErrNoActor indicates an operation needs a claimed staff member but the
	// terminal has none.
	ErrNoActor = errors.New("no staff member has claimed this terminal")

	// ErrCorruptClaim is returned by stores when the stored record cannot be
	// decoded.
	ErrCorruptClaim = errors.New("stored claim is corrupt")
)

// Staff identifies the staff member making a claim.
type Staff struct {
	ID    int64  `validate:"gt=0"`
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
}

// Claim records who is operating the terminal and since when.
type Claim struct {
	StaffID    int64     `json:"staff_id" yaml:"staff_id"`
	StaffName  string    `json:"staff_name" yaml:"staff_name"`
	StaffEmail string    `json:"staff_email,omitempty" yaml:"staff_email,omitempty"`
	ClaimedAt  time.Time `json:"claimed_at" yaml:"claimed_at"`
}

func (c Claim) valid() bool {
	return c.StaffID > 0 && c.StaffName != "" && !c.ClaimedAt.IsZero()
}
