// Package transition decides which production stages a job may move to next
// and requests the move from the ERP.
//
// Navigation is forward-only: a job may only be sent to a stage with a higher
// sequence than its current one, and never to a restricted stage. Moving a job
// backwards, or into an administrative stage, is done in the ERP admin UI.
//
// Key types:
//   - [Engine] validates a target and issues the single ERP write
//   - [StageWriter] is the ERP write boundary the engine calls
//   - [MockWriter] records writes for tests
//
// The package-level functions [CurrentStageIndex], [AvailableNextStages] and
// [NextStage] are pure and perform no I/O.
package transition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"printfloor/internal/stage"
)

// Sentinel errors for stage transitions.
var (
	// ErrInvalidTarget indicates the requested stage is not among the job's
	// available next stages. No ERP call was made.
	ErrInvalidTarget = errors.New("target stage is not an available next stage")

	// ErrTransitionFailed indicates the ERP rejected or never received the
	// stage write. Nothing was changed locally; the caller may retry.
	ErrTransitionFailed = errors.New("stage transition failed")
)

// StageWriter is the ERP boundary for writing a job's current stage.
//
// UpdateStage must be idempotent: writing the stage a job already has is a
// no-op from the caller's point of view.
type StageWriter interface {
	UpdateStage(ctx context.Context, jobID, stageID int64) error
}

// CurrentStageIndex returns the index of the job's current stage within the
// sequence-sorted catalog.
//
// Returns -1 when the catalog is empty or the job's stage id is not in it
// (for example a stale cached catalog).
func CurrentStageIndex(job stage.Job, catalog stage.Catalog) int {
	if catalog.Len() == 0 {
		return -1
	}
	return catalog.IndexOf(job.CurrentStageID)
}

// AvailableNextStages returns the stages a job may legally move to, in
// catalog order.
//
// When the job's current stage is unknown ([CurrentStageIndex] is -1) the whole
// catalog is returned unchanged, restricted stages included.
//
// Otherwise the result holds every stage whose sequence is strictly greater
// than the current stage's sequence and which is not restricted.
func AvailableNextStages(job stage.Job, catalog stage.Catalog) []stage.Stage {
	idx := CurrentStageIndex(job, catalog)
	if idx == -1 {
		return catalog.Stages()
	}

	current := catalog.At(idx)
	var next []stage.Stage
	for _, s := range catalog.Stages() {
		if s.Sequence > current.Sequence && !s.Restricted {
			next = append(next, s)
		}
	}
	return next
}

// NextStage returns the stage immediately after the job's current stage in
// catalog order.
//
// Returns false when the current stage is unknown or is the last stage. The
// returned stage may be restricted; callers that act on it should go through
// [Engine.RequestTransition], which rejects restricted targets.
func NextStage(job stage.Job, catalog stage.Catalog) (stage.Stage, bool) {
	idx := CurrentStageIndex(job, catalog)
	if idx == -1 || idx == catalog.Len()-1 {
		return stage.Stage{}, false
	}
	return catalog.At(idx + 1), true
}

// FindTarget resolves a user-supplied stage reference against a list of
// stages. The reference may be a numeric stage id or a stage name (matched
// case-insensitively).
func FindTarget(stages []stage.Stage, ref string) (stage.Stage, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, s := range stages {
			if s.ID == id {
				return s, true
			}
		}
	}
	for _, s := range stages {
		if strings.EqualFold(s.Name, ref) {
			return s, true
		}
	}
	return stage.Stage{}, false
}

// Engine validates and requests stage transitions against a fixed catalog.
//
// The engine holds no job state. Concurrent transitions of the same job by
// different operators are not coordinated; the ERP keeps the last write.
type Engine struct {
	catalog stage.Catalog
	writer  StageWriter
	log     *slog.Logger
}

// NewEngine creates an [Engine] for the given catalog and ERP writer.
// A nil logger discards log output.
func NewEngine(catalog stage.Catalog, writer StageWriter, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		catalog: catalog,
		writer:  writer,
		log:     log,
	}
}

// AvailableNextStages returns [AvailableNextStages] for the engine's catalog.
func (e *Engine) AvailableNextStages(job stage.Job) []stage.Stage {
	return AvailableNextStages(job, e.catalog)
}

// RequestTransition moves the job to target.
//
// The target must be one of [AvailableNextStages] for the job, compared by
// stage id; otherwise the call fails with [ErrInvalidTarget] before any ERP
// call. A valid target results in exactly one [StageWriter.UpdateStage] call.
// If that call fails the error wraps [ErrTransitionFailed] and the cause.
//
// On success the returned job is a copy of job with the new stage set. It is
// not re-read from the ERP; callers that need authoritative state refetch.
func (e *Engine) RequestTransition(ctx context.Context, job stage.Job, target stage.Stage) (stage.Job, error) {
	if !containsStage(e.AvailableNextStages(job), target.ID) {
		e.log.Info("stage_transition_rejected",
			slog.Int64("job_id", job.ID),
			slog.Int64("from_stage_id", job.CurrentStageID),
			slog.Int64("to_stage_id", target.ID),
		)
		return job, fmt.Errorf("%w: job %d to stage %q", ErrInvalidTarget, job.ID, target.Name)
	}

	if err := e.writer.UpdateStage(ctx, job.ID, target.ID); err != nil {
		e.log.Error("stage_transition_failed",
			slog.Int64("job_id", job.ID),
			slog.Int64("to_stage_id", target.ID),
			slog.String("error", err.Error()),
		)
		return job, fmt.Errorf("%w: job %d to stage %q: %w", ErrTransitionFailed, job.ID, target.Name, err)
	}

	e.log.Info("stage_transition",
		slog.Int64("job_id", job.ID),
		slog.Int64("from_stage_id", job.CurrentStageID),
		slog.Int64("to_stage_id", target.ID),
	)

	updated := job
	updated.CurrentStageID = target.ID
	updated.CurrentStageName = target.Name
	return updated, nil
}

func containsStage(stages []stage.Stage, id int64) bool {
	for _, s := range stages {
		if s.ID == id {
			return true
		}
	}
	return false
}
