package attendance

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"

	// StatusUnmarked is reported by rosters for students without a record on the day; it is never stored.
	StatusUnmarked = "unmarked"
)

// Bulk modes
const (
	ModeAtomic  = "atomic"
	ModePartial = "partial"
)

const DateLayout = "2006-01-02"

var Statuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// Record is the attendance mark of a student on a day; (StudentID, Date) is unique.
type Record struct {
	StudentID string    `json:"student_id"`
	Date      time.Time `json:"date"` // UTC midnight
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD date to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, core.CleanString(s))
	if err != nil {
		return time.Time{}, errors.Wrap(err, "parsing date")
	}
	return t, nil
}

// Day truncates `t` to UTC midnight of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func invalidDate(field string) error {
	msg := "must be a date formatted as YYYY-MM-DD"
	return core.NewValidationError(errors.New(field+" "+msg), core.FieldError{Field: field, Error: msg})
}

// MarkAttendance sets the status of one student on one day.
type MarkAttendance struct {
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`

	day time.Time
}

func (ma *MarkAttendance) Validate(validate *validator.Validate) error {
	ma.StudentID = core.CleanString(ma.StudentID)
	ma.Status = core.CleanString(ma.Status, true /* lower */)
	if err := validate.Struct(ma); err != nil {
		return err
	}
	d, err := ParseDate(ma.Date)
	if err != nil {
		return invalidDate("date")
	}
	ma.day = d
	return nil
}

// Override sets an explicit status for one student of a bulk update.
type Override struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

// BulkUpdate applies Status to every StudentIDs entry, then the per-student Overrides.
// Mode is ModeAtomic (default: all rows are applied, or none) or ModePartial (each row on its own).
type BulkUpdate struct {
	Date       string     `json:"date" validate:"required"`
	StudentIDs []string   `json:"student_ids"`
	Status     string     `json:"status" validate:"omitempty,attendance_status"`
	Overrides  []Override `json:"overrides"`
	Mode       string     `json:"mode" validate:"omitempty,oneof=atomic partial"`

	day time.Time
}

func (bu *BulkUpdate) Validate(validate *validator.Validate) error {
	bu.Status = core.CleanString(bu.Status, true /* lower */)
	bu.Mode = core.CleanString(bu.Mode, true /* lower */)
	if bu.Mode == "" {
		bu.Mode = ModeAtomic
	}
	for i := range bu.StudentIDs {
		bu.StudentIDs[i] = core.CleanString(bu.StudentIDs[i])
	}
	for i := range bu.Overrides {
		bu.Overrides[i].StudentID = core.CleanString(bu.Overrides[i].StudentID)
		bu.Overrides[i].Status = core.CleanString(bu.Overrides[i].Status, true /* lower */)
	}

	if err := validate.Struct(bu); err != nil {
		return err
	}
	d, err := ParseDate(bu.Date)
	if err != nil {
		return invalidDate("date")
	}
	bu.day = d

	if len(bu.StudentIDs) == 0 && len(bu.Overrides) == 0 {
		msg := "provide student_ids with a status, or overrides"
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "student_ids", Error: msg})
	}
	if len(bu.StudentIDs) > 0 && bu.Status == "" {
		msg := "this field is required with student_ids"
		return core.NewValidationError(errors.New("status "+msg), core.FieldError{Field: "status", Error: msg})
	}
	return nil
}

// rows flattens the update into one status per student, keeping the first-seen order.
func (bu BulkUpdate) rows() []Override {
	pos := make(map[string]int, len(bu.StudentIDs)+len(bu.Overrides))
	rows := make([]Override, 0, len(bu.StudentIDs)+len(bu.Overrides))
	set := func(sid, status string) {
		if i, ok := pos[sid]; ok {
			rows[i].Status = status
			return
		}
		pos[sid] = len(rows)
		rows = append(rows, Override{StudentID: sid, Status: status})
	}
	for _, sid := range bu.StudentIDs {
		set(sid, bu.Status)
	}
	for _, o := range bu.Overrides {
		set(o.StudentID, o.Status)
	}
	return rows
}

// CopyPrevious marks each target student with their most recent earlier status (present when they have none).
// Targets are StudentIDs, or every student of ClassID when empty.
type CopyPrevious struct {
	Date       string   `json:"date" validate:"required"`
	ClassID    string   `json:"class_id"`
	StudentIDs []string `json:"student_ids"`
	Mode       string   `json:"mode" validate:"omitempty,oneof=atomic partial"`

	day time.Time
}

func (cp *CopyPrevious) Validate(validate *validator.Validate) error {
	cp.ClassID = core.CleanString(cp.ClassID)
	cp.Mode = core.CleanString(cp.Mode, true /* lower */)
	for i := range cp.StudentIDs {
		cp.StudentIDs[i] = core.CleanString(cp.StudentIDs[i])
	}
	if err := validate.Struct(cp); err != nil {
		return err
	}
	d, err := ParseDate(cp.Date)
	if err != nil {
		return invalidDate("date")
	}
	cp.day = d
	if cp.ClassID == "" && len(cp.StudentIDs) == 0 {
		msg := "provide class_id or student_ids"
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "class_id", Error: msg})
	}
	return nil
}

// BulkResult reports the outcome of one student row.
type BulkResult struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type BulkOutcome struct {
	Mode    string       `json:"mode"`
	Applied int          `json:"applied"`
	Failed  int          `json:"failed"`
	Results []BulkResult `json:"results"`
}

// RecordFilter selects records; zero values do not filter. From and To are inclusive.
type RecordFilter struct {
	StudentIDs []string
	From       time.Time
	To         time.Time
}

// RosterFilter selects the rows of a roster. Date defaults to today.
type RosterFilter struct {
	Date       string `query:"date"`
	Search     string `query:"search"`
	Status     string `query:"status"`
	GradeLevel string `query:"grade_level"`
	ClassID    string `query:"class"`
	Band       string `query:"band"`
}

func (rf *RosterFilter) Clean() {
	rf.Date = core.CleanString(rf.Date)
	rf.Search = strings.ToLower(core.CleanString(rf.Search))
	rf.Status = core.CleanString(rf.Status, true /* lower */)
	rf.GradeLevel = core.CleanString(rf.GradeLevel)
	rf.ClassID = core.CleanString(rf.ClassID)
	rf.Band = core.CleanString(rf.Band, true /* lower */)
}
