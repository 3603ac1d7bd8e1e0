package schedule

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Conflict policies
const (
	PolicyWarn  = "warn"
	PolicyBlock = "block"
)

var Days = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Entry is a class taught by a teacher in a room over [Start, End) on Day.
type Entry struct {
	ID           string    `json:"id"`
	TeacherID    string    `json:"teacher_id"`
	RoomID       string    `json:"room_id"`
	Day          string    `json:"day"`
	Start        Clock     `json:"start"`
	End          Clock     `json:"end"`
	Subject      string    `json:"subject"`
	GradeLevel   string    `json:"grade_level"`
	StudentCount int       `json:"student_count"`
	HasConflict  bool      `json:"has_conflict"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Duration returns the length of the entry in minutes.
func (e Entry) Duration() int {
	return int(e.End - e.Start)
}

func dayIndex(day string) int {
	for i, d := range Days {
		if d == day {
			return i
		}
	}
	return len(Days)
}

// NewEntry contains information needed to create, or fully replace, an Entry.
type NewEntry struct {
	TeacherID    string `json:"teacher_id" validate:"notblank,max=64"`
	RoomID       string `json:"room_id" validate:"notblank,max=64"`
	Day          string `json:"day" validate:"required,weekday"`
	Start        string `json:"start" validate:"required,clock"`
	End          string `json:"end" validate:"required,clock"`
	Subject      string `json:"subject" validate:"notblank,max=120"`
	GradeLevel   string `json:"grade_level" validate:"notblank,max=16"`
	StudentCount int    `json:"student_count" validate:"gte=0"`
	Notes        string `json:"notes" validate:"max=500"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.TeacherID = core.CleanString(ne.TeacherID)
	ne.RoomID = core.CleanString(ne.RoomID)
	ne.Day = core.CleanString(ne.Day, true /* lower */)
	ne.Start = core.CleanString(ne.Start)
	ne.End = core.CleanString(ne.End)
	ne.Subject = core.CleanString(ne.Subject)
	ne.GradeLevel = core.CleanString(ne.GradeLevel)
	ne.Notes = core.CleanString(ne.Notes)
	if err := validate.Struct(ne); err != nil {
		return err
	}

	start, _ := ParseClock(ne.Start)
	end, _ := ParseClock(ne.End)
	if end <= start {
		return core.NewValidationError(errEndBeforeStart, core.FieldError{Field: "end", Error: errEndBeforeStart.Error()})
	}
	return nil
}

func (ne NewEntry) entry() Entry {
	start, _ := ParseClock(ne.Start)
	end, _ := ParseClock(ne.End)
	return Entry{
		TeacherID:    ne.TeacherID,
		RoomID:       ne.RoomID,
		Day:          ne.Day,
		Start:        start,
		End:          end,
		Subject:      ne.Subject,
		GradeLevel:   ne.GradeLevel,
		StudentCount: ne.StudentCount,
		Notes:        ne.Notes,
	}
}

// Move reschedules an entry to another day and start time, keeping its duration.
type Move struct {
	Day   string `json:"day" validate:"required,weekday"`
	Start string `json:"start" validate:"required,clock"`
}

func (mv *Move) Validate(validate *validator.Validate) error {
	mv.Day = core.CleanString(mv.Day, true /* lower */)
	mv.Start = core.CleanString(mv.Start)
	return validate.Struct(mv)
}

type QueryFilter struct {
	TeacherID  string `query:"teacher"`
	RoomID     string `query:"room"`
	GradeLevel string `query:"grade_level"`
	Subject    string `query:"subject"`
	Day        string `query:"day"`
	// Search does a case-insensitive match on Entry.Subject, Entry.TeacherID, Entry.RoomID or Entry.Notes.
	Search        string `query:"search"`
	ConflictsOnly bool   `query:"conflicts_only"`
}

func (qf *QueryFilter) Clean() {
	qf.TeacherID = core.CleanString(qf.TeacherID)
	qf.RoomID = core.CleanString(qf.RoomID)
	qf.GradeLevel = core.CleanString(qf.GradeLevel)
	qf.Subject = core.CleanString(qf.Subject)
	qf.Day = core.CleanString(qf.Day, true /* lower */)
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}

func (qf QueryFilter) match(e Entry) bool {
	if qf.TeacherID != "" && e.TeacherID != qf.TeacherID {
		return false
	}
	if qf.RoomID != "" && e.RoomID != qf.RoomID {
		return false
	}
	if qf.GradeLevel != "" && e.GradeLevel != qf.GradeLevel {
		return false
	}
	if qf.Subject != "" && !strings.EqualFold(e.Subject, qf.Subject) {
		return false
	}
	if qf.Day != "" && e.Day != qf.Day {
		return false
	}
	if qf.ConflictsOnly && !e.HasConflict {
		return false
	}
	if qf.Search != "" {
		for _, field := range []string{e.Subject, e.TeacherID, e.RoomID, e.Notes} {
			if strings.Contains(strings.ToLower(field), qf.Search) {
				return true
			}
		}
		return false
	}
	return true
}

// Stats summarizes a set of entries.
type Stats struct {
	TotalClasses   int `json:"total_classes"`
	ActiveTeachers int `json:"active_teachers"`
	RoomsInUse     int `json:"rooms_in_use"`
	Conflicts      int `json:"conflicts"`
	Students       int `json:"students"`
}

func ComputeStats(entries []Entry) Stats {
	teachers := make(map[string]bool)
	rooms := make(map[string]bool)
	stats := Stats{TotalClasses: len(entries)}
	for _, e := range entries {
		teachers[e.TeacherID] = true
		rooms[e.RoomID] = true
		stats.Students += e.StudentCount
		if e.HasConflict {
			stats.Conflicts++
		}
	}
	stats.ActiveTeachers = len(teachers)
	stats.RoomsInUse = len(rooms)
	return stats
}
