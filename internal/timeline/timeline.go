// Package timeline turns a job's stage-change history into durations.
//
// The aggregator is pure: it performs no I/O and raises no errors. Input
// events must already be sorted ascending by timestamp, which is how the ERP
// returns them; unsorted input is a caller bug and is not checked.
//
// Key types:
//   - [Event] is one immutable stage change
//   - [Timeline] is the result of [Build]
//   - [Bucket] classifies an elapsed time for color-coding
//   - [Formatter] renders durations in Thai or English
package timeline

import (
	"time"
)

// Event records one job moving from one stage to another.
type Event struct {
	Timestamp time.Time

	// FromStage is empty for the first event of a job's life.
	FromStage string

	ToStage string

	// Actor is the staff member who made the change.
	Actor string
}

// Origin describes the job itself, used when it has no stage history yet.
type Origin struct {
	StageName string
	CreatedAt time.Time
}

// Entry is one event in a [Timeline] with the time spent in the stage it
// left.
type Entry struct {
	Event

	// DurationHours is the time between the previous event and this one.
	// Only meaningful when HasDuration is true.
	DurationHours float64

	// HasDuration is false for the first event, which has no predecessor.
	HasDuration bool
}

// Statistics aggregates the transition durations of a timeline.
type Statistics struct {
	// TotalStages is the number of events.
	TotalStages int

	// TotalDurationHours is the sum of all transition durations.
	TotalDurationHours float64

	// AverageStageDuration is TotalDurationHours / TotalStages, or 0 when
	// there are no events.
	AverageStageDuration float64
}

// Timeline is the derived view of a job's stage history.
type Timeline struct {
	Entries []Entry

	CurrentStage              string
	CurrentStageDurationHours float64

	Statistics Statistics
}

// Durations returns the per-transition durations in order. The first event
// contributes nothing, so the result has len(Entries)-1 values.
func (t Timeline) Durations() []float64 {
	var out []float64
	for _, e := range t.Entries {
		if e.HasDuration {
			out = append(out, e.DurationHours)
		}
	}
	return out
}

// Build computes the timeline for events observed at now.
//
// For each adjacent pair of events the later entry carries the hours elapsed
// since the earlier one. The current stage is the last event's ToStage and
// its elapsed time runs from the last event to now. A job with no events
// falls back to origin: its stage name, and time since creation.
//
// Precondition: events are sorted ascending by Timestamp.
func Build(events []Event, now time.Time, origin Origin) Timeline {
	tl := Timeline{
		Entries: make([]Entry, 0, len(events)),
	}

	var total float64
	for i, ev := range events {
		entry := Entry{Event: ev}
		if i > 0 {
			entry.DurationHours = hoursBetween(events[i-1].Timestamp, ev.Timestamp)
			entry.HasDuration = true
			total += entry.DurationHours
		}
		tl.Entries = append(tl.Entries, entry)
	}

	if len(events) == 0 {
		tl.CurrentStage = origin.StageName
		tl.CurrentStageDurationHours = hoursBetween(origin.CreatedAt, now)
	} else {
		last := events[len(events)-1]
		tl.CurrentStage = last.ToStage
		tl.CurrentStageDurationHours = hoursBetween(last.Timestamp, now)
	}

	tl.Statistics = Statistics{
		TotalStages:        len(events),
		TotalDurationHours: total,
	}
	if len(events) > 0 {
		tl.Statistics.AverageStageDuration = total / float64(len(events))
	}

	return tl
}

func hoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}
