package schedule

import (
	"fmt"
	"strings"
)

// Conflict dimensions
const (
	DimensionTeacher     = "teacher"
	DimensionRoom        = "room"
	DimensionTeacherRoom = "teacher+room"
)

// Conflict describes why an existing entry clashes with a candidate.
type Conflict struct {
	Entry     Entry  `json:"entry"`
	Dimension string `json:"dimension"`
	Message   string `json:"message"`
}

// ConflictError is returned under the block policy when a write would double-book a teacher or a room.
type ConflictError struct {
	Conflicts []Conflict
}

func (ce *ConflictError) Error() string {
	msgs := make([]string, 0, len(ce.Conflicts))
	for _, c := range ce.Conflicts {
		msgs = append(msgs, c.Message)
	}
	return "schedule conflict: " + strings.Join(msgs, "; ")
}

// Overlap reports whether both entries share a day and their [Start, End) intervals intersect.
// Touching intervals do not overlap.
func Overlap(a, b Entry) bool {
	return a.Day == b.Day && a.Start < b.End && b.Start < a.End
}

// Conflicts reports whether a and b share a teacher or a room over overlapping intervals.
func Conflicts(a, b Entry) bool {
	return (a.TeacherID == b.TeacherID || a.RoomID == b.RoomID) && Overlap(a, b)
}

// FindConflicts returns every entry of `existing` conflicting with `candidate`, in `existing` order.
// An entry holding the candidate's own ID is skipped.
func FindConflicts(candidate Entry, existing []Entry) []Entry {
	found := make([]Entry, 0)
	for _, e := range existing {
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if Conflicts(candidate, e) {
			found = append(found, e)
		}
	}
	return found
}

// Describe explains the conflicts found for `candidate`.
func Describe(candidate Entry, conflicting []Entry) []Conflict {
	conflicts := make([]Conflict, 0, len(conflicting))
	for _, e := range conflicting {
		var dim, msg string
		when := fmt.Sprintf("on %s %s-%s", e.Day, e.Start, e.End)
		switch {
		case e.TeacherID == candidate.TeacherID && e.RoomID == candidate.RoomID:
			dim = DimensionTeacherRoom
			msg = fmt.Sprintf("teacher %s and room %s are already booked for %s %s", e.TeacherID, e.RoomID, e.Subject, when)
		case e.TeacherID == candidate.TeacherID:
			dim = DimensionTeacher
			msg = fmt.Sprintf("teacher %s is already booked for %s %s", e.TeacherID, e.Subject, when)
		default:
			dim = DimensionRoom
			msg = fmt.Sprintf("room %s is already booked for %s %s", e.RoomID, e.Subject, when)
		}
		conflicts = append(conflicts, Conflict{Entry: e, Dimension: dim, Message: msg})
	}
	return conflicts
}

// MarkConflicts sets HasConflict on every entry conflicting with at least one other.
func MarkConflicts(entries []Entry) []Entry {
	marked := make([]Entry, len(entries))
	copy(marked, entries)
	for i := range marked {
		marked[i].HasConflict = false
		for j := range entries {
			if i != j && Conflicts(entries[i], entries[j]) {
				marked[i].HasConflict = true
				break
			}
		}
	}
	return marked
}
