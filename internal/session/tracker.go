package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Attacher records the accepting staff member on an ERP job.
type Attacher interface {
	AttachStaff(ctx context.Context, jobID, staffID int64) error
}

// Tracker is the terminal's single claim slot.
//
// The slot is loaded lazily from the [Store] on first read and kept in memory
// afterwards. Create one per process and pass it to whatever needs it.
type Tracker struct {
	store    Store
	attacher Attacher
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	slot   *Claim
	loaded bool
}

// Option configures a [Tracker].
type Option func(*Tracker)

// WithClock overrides the clock used to stamp claims.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTracker creates a tracker persisting to store and attaching through
// attacher.
func NewTracker(store Store, attacher Attacher, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		attacher: attacher,
		validate: validator.New(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CurrentActor returns the staff member operating the terminal, or nil.
//
// A corrupt stored record is deleted and reported as no claim.
func (t *Tracker) CurrentActor() (*Claim, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.loadLocked(); err != nil {
		return nil, err
	}
	if t.slot == nil {
		return nil, nil
	}
	c := *t.slot
	return &c, nil
}

func (t *Tracker) loadLocked() error {
	if t.loaded {
		return nil
	}

	c, err := t.store.Load()
	if errors.Is(err, ErrCorruptClaim) {
		t.log.Warn("discarding corrupt claim", "error", err)
		if delErr := t.store.Delete(); delErr != nil {
			return delErr
		}
		c, err = nil, nil
	}
	if err != nil {
		return err
	}

	t.slot = c
	t.loaded = true
	return nil
}

// Claim makes staff the terminal's current actor and, when jobID is
// non-zero, attaches them to that job on the ERP.
//
// The returned claim is in place whenever staff is valid, even if an error
// is also returned. The error joins any persistence failure with
// [ErrAttachFailed].
func (t *Tracker) Claim(ctx context.Context, jobID int64, staff Staff) (Claim, error) {
	if err := t.validate.Struct(staff); err != nil {
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidStaff, err)
	}

	c := Claim{
		StaffID:    staff.ID,
		StaffName:  staff.Name,
		StaffEmail: staff.Email,
		ClaimedAt:  t.now(),
	}

	t.mu.Lock()
	t.slot = &c
	t.loaded = true
	t.mu.Unlock()

	var errs []error
	if err := t.store.Save(c); err != nil {
		t.log.Warn("claim not persisted", "staff_id", c.StaffID, "error", err)
		errs = append(errs, err)
	}

	t.log.Info("staff_claimed", "staff_id", c.StaffID, "staff_name", c.StaffName, "job_id", jobID)

	if jobID != 0 {
		if err := t.attach(ctx, jobID, c.StaffID); err != nil {
			errs = append(errs, err)
		}
	}

	return c, errors.Join(errs...)
}

// Accept attaches the current actor to jobID.
func (t *Tracker) Accept(ctx context.Context, jobID int64) (Claim, error) {
	c, err := t.CurrentActor()
	if err != nil {
		return Claim{}, err
	}
	if c == nil {
		return Claim{}, ErrNoActor
	}
	return *c, t.attach(ctx, jobID, c.StaffID)
}

func (t *Tracker) attach(ctx context.Context, jobID, staffID int64) error {
	if err := t.attacher.AttachStaff(ctx, jobID, staffID); err != nil {
		t.log.Warn("staff_attach_failed", "job_id", jobID, "staff_id", staffID, "error", err)
		return fmt.Errorf("%w: job %d: %w", ErrAttachFailed, jobID, err)
	}
	t.log.Info("staff_attached", "job_id", jobID, "staff_id", staffID)
	return nil
}

// Release clears the terminal's claim. Nothing is sent to the ERP.
func (t *Tracker) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Delete(); err != nil {
		return err
	}
	t.slot = nil
	t.loaded = true
	return nil
}
