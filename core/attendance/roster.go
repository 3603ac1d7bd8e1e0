package attendance

import (
	"strings"
	"time"

	"github.com/trezcool/darasa/core/student"
)

type (
	// RosterRow is one student of a daily roster; Summary covers every mark up to and including the day.
	RosterRow struct {
		StudentID     string  `json:"student_id"`
		StudentNumber string  `json:"student_number"`
		Name          string  `json:"name"`
		GradeLevel    string  `json:"grade_level"`
		ClassID       string  `json:"class_id"`
		Status        string  `json:"status"`
		Summary       Summary `json:"summary"`
		Band          string  `json:"band"`
	}

	RosterStats struct {
		Total    int `json:"total"`
		Present  int `json:"present"`
		Absent   int `json:"absent"`
		Late     int `json:"late"`
		Excused  int `json:"excused"`
		Unmarked int `json:"unmarked"`
		Chronic  int `json:"chronic"`
	}

	Roster struct {
		Date  time.Time   `json:"date"`
		Rows  []RosterRow `json:"rows"`
		Stats RosterStats `json:"stats"`
	}
)

// BuildRoster computes the roster of `day` for `students`, then applies the filter's
// search, status, grade level, class and band criteria. Records dated after `day` are ignored.
func (p Policy) BuildRoster(day time.Time, students []student.Student, records []Record, filter RosterFilter) Roster {
	day = Day(day)
	byStudent := make(map[string][]Record, len(students))
	for _, r := range records {
		if Day(r.Date).After(day) {
			continue
		}
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	rows := make([]RosterRow, 0, len(students))
	for _, std := range students {
		recs := byStudent[std.ID]
		summary := p.Summarize(recs)
		row := RosterRow{
			StudentID:     std.ID,
			StudentNumber: std.StudentNumber,
			Name:          std.Name,
			GradeLevel:    std.GradeLevel,
			ClassID:       std.ClassID,
			Status:        StatusOn(recs, day),
			Summary:       summary,
			Band:          p.Band(summary),
		}
		if filter.match(row) {
			rows = append(rows, row)
		}
	}
	return Roster{Date: day, Rows: rows, Stats: Stats(rows)}
}

func (rf RosterFilter) match(row RosterRow) bool {
	if rf.Search != "" &&
		!strings.Contains(strings.ToLower(row.Name), rf.Search) &&
		!strings.Contains(strings.ToLower(row.StudentNumber), rf.Search) {
		return false
	}
	if rf.Status != "" && row.Status != rf.Status {
		return false
	}
	if rf.GradeLevel != "" && row.GradeLevel != rf.GradeLevel {
		return false
	}
	if rf.ClassID != "" && row.ClassID != rf.ClassID {
		return false
	}
	if rf.Band != "" && row.Band != rf.Band {
		return false
	}
	return true
}

// Stats tallies the day statuses of `rows` and their chronic absences.
func Stats(rows []RosterRow) RosterStats {
	stats := RosterStats{Total: len(rows)}
	for _, row := range rows {
		switch row.Status {
		case StatusPresent:
			stats.Present++
		case StatusAbsent:
			stats.Absent++
		case StatusLate:
			stats.Late++
		case StatusExcused:
			stats.Excused++
		default:
			stats.Unmarked++
		}
		if row.Summary.IsChronic {
			stats.Chronic++
		}
	}
	return stats
}
