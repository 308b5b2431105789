// Package team groups ERP staff records by production team for the
// staff picker.
package team

import (
	"sort"
	"strings"
)

// Member is one staff member of a sales/production team.
type Member struct {
	ID       int64
	Name     string
	Email    string
	TeamID   int64
	TeamName string
}

// Group is one team and its members, sorted by name.
type Group struct {
	TeamName string
	Members  []Member
}

// GroupByTeam sorts members by team name, then member name, and splits them
// into groups in that order. The input slice is not modified.
func GroupByTeam(members []Member) []Group {
	sorted := make([]Member, len(members))
	copy(sorted, members)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TeamName != sorted[j].TeamName {
			return sorted[i].TeamName < sorted[j].TeamName
		}
		return sorted[i].Name < sorted[j].Name
	})

	var groups []Group
	for _, m := range sorted {
		if len(groups) == 0 || groups[len(groups)-1].TeamName != m.TeamName {
			groups = append(groups, Group{TeamName: m.TeamName})
		}
		last := &groups[len(groups)-1]
		last.Members = append(last.Members, m)
	}
	return groups
}

// Find returns the member with the given id.
func Find(members []Member, id int64) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// FindByName returns the first member whose name matches, ignoring case.
func FindByName(members []Member, name string) (Member, bool) {
	name = strings.TrimSpace(name)
	for _, m := range members {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Member{}, false
}
