// Package stage defines the production stage catalog and the job record that
// moves through it.
//
// A catalog is the ordered list of named stages a print job passes through
// (intake, design, cutting, printing, finishing, done). Stages are totally
// ordered by their integer sequence. Some stages are restricted: they keep a
// sequence position but may only be reached through administrative tooling
// (for example Finance or Legacy-import).
//
// Key types:
//   - [Stage] is a single catalog entry
//   - [Catalog] is a sequence-sorted, duplicate-free list of stages
//   - [Job] is the slice of an ERP work order this module reads
//
// Catalogs normally come from the ERP API; [ReadCatalogFile] loads one from a
// CSV file for sites whose ERP does not expose the restricted marker.
package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrDuplicateSequence is returned by [NewCatalog] when two stages share a
// sequence value. The catalog order would be ambiguous.
var ErrDuplicateSequence = errors.New("duplicate stage sequence")

// Stage is one named step of the production pipeline.
type Stage struct {
	// ID is the ERP record id of the stage.
	ID int64 `json:"id" yaml:"id"`

	// Name is the display name, e.g. "ออกแบบ" (Design).
	Name string `json:"name" yaml:"name"`

	// Sequence orders the catalog. Values are unique within a catalog.
	Sequence int `json:"sequence" yaml:"sequence"`

	// Restricted stages are never offered as forward-navigation targets.
	Restricted bool `json:"restricted" yaml:"restricted"`
}

// Job is the part of an ERP work order the lifecycle core reads.
//
// The ERP owns the record; this module only reads CurrentStageID and asks the
// ERP to write a new one.
type Job struct {
	ID             int64
	Name           string
	CurrentStageID int64

	// CurrentStageName is the ERP's display name for CurrentStageID. It is
	// informational and may be empty.
	CurrentStageName string

	// PartnerID is the customer the job belongs to, 0 when unknown.
	PartnerID int64

	CreatedAt      time.Time
	LastActivityAt time.Time
}

// Catalog is a sequence-sorted list of stages.
//
// Build one with [NewCatalog]; the zero value is an empty catalog.
type Catalog struct {
	stages []Stage
}

// NewCatalog sorts the stages ascending by sequence and returns them as a
// [Catalog]. The input slice is not modified.
//
// Returns [ErrDuplicateSequence] if two stages share a sequence value.
func NewCatalog(stages []Stage) (Catalog, error) {
	sorted := make([]Stage, len(stages))
	copy(sorted, stages)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Sequence == sorted[i-1].Sequence {
			return Catalog{}, fmt.Errorf("%w: %d (%q and %q)",
				ErrDuplicateSequence, sorted[i].Sequence, sorted[i-1].Name, sorted[i].Name)
		}
	}

	return Catalog{stages: sorted}, nil
}

// MustCatalog is like [NewCatalog] but panics on error. Intended for fixed
// catalogs in tests and defaults.
func MustCatalog(stages ...Stage) Catalog {
	c, err := NewCatalog(stages)
	if err != nil {
		panic(err)
	}
	return c
}

// Stages returns a copy of the catalog entries in sequence order.
func (c Catalog) Stages() []Stage {
	out := make([]Stage, len(c.stages))
	copy(out, c.stages)
	return out
}

// Len returns the number of stages in the catalog.
func (c Catalog) Len() int {
	return len(c.stages)
}

// At returns the stage at index i in sequence order.
func (c Catalog) At(i int) Stage {
	return c.stages[i]
}

// IndexOf returns the position of the stage with the given id, or -1.
func (c Catalog) IndexOf(id int64) int {
	for i, s := range c.stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// ByID returns the stage with the given id.
func (c Catalog) ByID(id int64) (Stage, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c.stages[i], true
	}
	return Stage{}, false
}

// ByName returns the first stage whose name matches, ignoring case and
// surrounding whitespace.
func (c Catalog) ByName(name string) (Stage, bool) {
	name = strings.TrimSpace(name)
	for _, s := range c.stages {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Stage{}, false
}

// MarkRestricted returns a copy of the catalog in which every stage whose name
// appears in names (case-insensitive) is restricted. Stages already restricted
// stay restricted.
func (c Catalog) MarkRestricted(names []string) Catalog {
	if len(names) == 0 {
		return c
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}

	out := c.Stages()
	for i := range out {
		if set[strings.ToLower(out[i].Name)] {
			out[i].Restricted = true
		}
	}
	return Catalog{stages: out}
}
