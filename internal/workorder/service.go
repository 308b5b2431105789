// Package workorder runs the job lifecycle operations the CLI exposes.
//
// The [Service] fetches jobs and catalogs from the ERP, hands them to the
// transition engine, and assembles timelines, loyalty summaries and team
// listings.
//
// Key concepts:
//   - Read failures of the job or catalog are fatal to an operation
//   - Timeline and loyalty reads degrade to empty results and log a warning
//   - Progress of a stage move can be tracked via [ProgressCallback]
package workorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"printfloor/internal/loyalty"
	"printfloor/internal/stage"
	"printfloor/internal/team"
	"printfloor/internal/timeline"
	"printfloor/internal/transition"
)

// ErrNoNextStage is returned by [Service.Advance] when the job is already in
// the last stage, or its current stage is not in the catalog.
var ErrNoNextStage = errors.New("job has no next stage")

// ErrUnknownStaff is returned by [Service.StaffMember] when no team member
// matches.
var ErrUnknownStaff = errors.New("unknown staff member")

// Reader is the read side of the ERP.
//
// The [erp.Client] type implements this interface.
type Reader interface {
	Stages(ctx context.Context) (stage.Catalog, error)
	Job(ctx context.Context, jobID int64) (stage.Job, error)
	StageHistory(ctx context.Context, jobID int64) ([]timeline.Event, error)
	TeamMembers(ctx context.Context) ([]team.Member, error)
	LoyaltyAccount(ctx context.Context, partnerID int64) (loyalty.Account, error)
}

// ProgressCallback is invoked before each step of a stage move.
//
// stepIndex is 1-based.
type ProgressCallback func(stepIndex, totalSteps int, step string)

// Steps of a stage move, in order.
const (
	StepLoad    = "load job and catalog"
	StepResolve = "resolve target stage"
	StepWrite   = "write stage"
	StepRefresh = "refresh job"
)

var moveSteps = []string{StepLoad, StepResolve, StepWrite, StepRefresh}

// Overview is a job placed in its stage catalog.
type Overview struct {
	Job     stage.Job
	Catalog stage.Catalog

	// CurrentIndex is -1 when the job's stage is not in the catalog.
	CurrentIndex int

	Available []stage.Stage

	Next    stage.Stage
	HasNext bool
}

// Service orchestrates ERP reads and stage transitions.
//
// Use [NewService] to create an instance.
type Service struct {
	reader           Reader
	writer           transition.StageWriter
	log              *slog.Logger
	progressCallback ProgressCallback
}

// NewService creates a Service. A nil log discards.
func NewService(reader Reader, writer transition.StageWriter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		reader: reader,
		writer: writer,
		log:    log,
	}
}

// SetProgressCallback configures an optional progress callback for Move and
// Advance.
func (s *Service) SetProgressCallback(cb ProgressCallback) {
	s.progressCallback = cb
}

func (s *Service) progress(i int) {
	if s.progressCallback != nil {
		s.progressCallback(i+1, len(moveSteps), moveSteps[i])
	}
}

// Catalog returns the stage catalog.
func (s *Service) Catalog(ctx context.Context) (stage.Catalog, error) {
	return s.reader.Stages(ctx)
}

// Overview fetches the job and the catalog concurrently and places the job
// in it.
func (s *Service) Overview(ctx context.Context, jobID int64) (Overview, error) {
	var (
		job     stage.Job
		catalog stage.Catalog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = s.reader.Job(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.reader.Stages(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	return overviewOf(job, catalog), nil
}

func overviewOf(job stage.Job, catalog stage.Catalog) Overview {
	next, hasNext := transition.NextStage(job, catalog)
	return Overview{
		Job:          job,
		Catalog:      catalog,
		CurrentIndex: transition.CurrentStageIndex(job, catalog),
		Available:    transition.AvailableNextStages(job, catalog),
		Next:         next,
		HasNext:      hasNext,
	}
}

// Move transitions the job to the stage named or numbered by ref and returns
// the job as the ERP reports it afterwards.
//
// ref that matches no catalog stage fails with [transition.ErrInvalidTarget].
func (s *Service) Move(ctx context.Context, jobID int64, ref string) (stage.Job, error) {
	s.progress(0)
	ov, err := s.Overview(ctx, jobID)
	if err != nil {
		return stage.Job{}, err
	}

	s.progress(1)
	target, ok := transition.FindTarget(ov.Catalog.Stages(), ref)
	if !ok {
		return ov.Job, fmt.Errorf("%w: no stage matches %q", transition.ErrInvalidTarget, ref)
	}

	return s.transition(ctx, ov, target)
}

// Advance moves the job to the stage immediately after its current one.
func (s *Service) Advance(ctx context.Context, jobID int64) (stage.Job, error) {
	s.progress(0)
	ov, err := s.Overview(ctx, jobID)
	if err != nil {
		return stage.Job{}, err
	}

	s.progress(1)
	if !ov.HasNext {
		return ov.Job, fmt.Errorf("%w: job %d", ErrNoNextStage, jobID)
	}

	return s.transition(ctx, ov, ov.Next)
}

func (s *Service) transition(ctx context.Context, ov Overview, target stage.Stage) (stage.Job, error) {
	s.progress(2)
	engine := transition.NewEngine(ov.Catalog, s.writer, s.log)
	updated, err := engine.RequestTransition(ctx, ov.Job, target)
	if err != nil {
		return updated, err
	}

	s.progress(3)
	fresh, err := s.reader.Job(ctx, ov.Job.ID)
	if err != nil {
		s.log.Warn("job refresh failed after transition", "job_id", ov.Job.ID, "error", err)
		return updated, nil
	}
	return fresh, nil
}

// Timeline builds the job's stage timeline at now.
//
// Read failures degrade instead of failing: without history the timeline is
// built from the job alone, and without the job it starts empty at now.
func (s *Service) Timeline(ctx context.Context, jobID int64, now time.Time) (timeline.Timeline, error) {
	origin := timeline.Origin{CreatedAt: now}
	job, err := s.reader.Job(ctx, jobID)
	if err != nil {
		s.log.Warn("job unavailable for timeline", "job_id", jobID, "error", err)
	} else {
		origin = timeline.Origin{StageName: job.CurrentStageName, CreatedAt: job.CreatedAt}
	}

	events, err := s.reader.StageHistory(ctx, jobID)
	if err != nil {
		s.log.Warn("stage history unavailable", "job_id", jobID, "error", err)
		events = nil
	}

	return timeline.Build(events, now, origin), nil
}

// Loyalty returns the partner's loyalty summary.
//
// A failed read yields a zero-point Bronze summary.
func (s *Service) Loyalty(ctx context.Context, partnerID int64) loyalty.Summary {
	acc, err := s.reader.LoyaltyAccount(ctx, partnerID)
	if err != nil {
		s.log.Warn("loyalty account unavailable", "partner_id", partnerID, "error", err)
		acc = loyalty.Account{TierLabel: loyalty.Bronze}
	}
	return loyalty.Summarize(acc)
}

// Team returns team members grouped by team.
func (s *Service) Team(ctx context.Context) ([]team.Group, error) {
	members, err := s.reader.TeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	return team.GroupByTeam(members), nil
}

// StaffMember resolves a staff id or name against the team directory.
func (s *Service) StaffMember(ctx context.Context, ref string) (team.Member, error) {
	members, err := s.reader.TeamMembers(ctx)
	if err != nil {
		return team.Member{}, err
	}

	if id, convErr := strconv.ParseInt(strings.TrimSpace(ref), 10, 64); convErr == nil {
		if m, ok := team.Find(members, id); ok {
			return m, nil
		}
	}
	if m, ok := team.FindByName(members, ref); ok {
		return m, nil
	}
	return team.Member{}, fmt.Errorf("%w: %q", ErrUnknownStaff, ref)
}
