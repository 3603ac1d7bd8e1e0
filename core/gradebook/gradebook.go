package gradebook

import (
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grading"
	"github.com/trezcool/darasa/core/student"
)

type (
	// Gradebook is the computed view of a class: one row per student plus class-wide figures.
	Gradebook struct {
		ClassID        string            `json:"class_id"`
		Scale          grading.Scale     `json:"scale"`
		Assignments    []Assignment      `json:"assignments"`
		Students       []StudentRow      `json:"students"`
		Grades         []GradeRecord     `json:"grades"`
		Stats          Stats             `json:"stats"`
		Distribution   Distribution      `json:"distribution"`
		Performance    []AssignmentStats `json:"performance"`
		CompletionRate float64           `json:"completion_rate"`
	}

	StudentRow struct {
		StudentID     string        `json:"student_id"`
		StudentNumber string        `json:"student_number"`
		Name          string        `json:"name"`
		Average       Average       `json:"average"`
		Grade         grading.Grade `json:"grade"`
		Trend         string        `json:"trend"`
		Missing       []string      `json:"missing"` // assignment IDs
	}
)

// BuildGradebook computes the gradebook view from raw records. Only grades of the listed students are considered.
func BuildGradebook(
	classID string,
	scale grading.Scale,
	students []student.Student,
	assignments []Assignment,
	grades []GradeRecord,
) Gradebook {
	enrolled := make(map[string]bool, len(students))
	studentIDs := make([]string, 0, len(students))
	for _, std := range students {
		enrolled[std.ID] = true
		studentIDs = append(studentIDs, std.ID)
	}
	classGrades := make([]GradeRecord, 0, len(grades))
	for _, g := range grades {
		if enrolled[g.StudentID] {
			classGrades = append(classGrades, g)
		}
	}
	idx := indexGrades(classGrades)

	rows := make([]StudentRow, 0, len(students))
	for _, std := range students {
		avg := studentAverage(std.ID, assignments, idx)
		avg.Percent = core.Round(avg.Percent, 2)

		grade := grading.NotAvailable
		if avg.HasData() {
			grade = grading.Classify(avg.Percent, scale)
		}

		missing := missingAssignments(std.ID, assignments, idx)
		missingIDs := make([]string, 0, len(missing))
		for _, a := range missing {
			missingIDs = append(missingIDs, a.ID)
		}

		rows = append(rows, StudentRow{
			StudentID:     std.ID,
			StudentNumber: std.StudentNumber,
			Name:          std.Name,
			Average:       avg,
			Grade:         grade,
			Trend:         trend(std.ID, assignments, idx),
			Missing:       missingIDs,
		})
	}

	stats := ClassAverage(assignments, classGrades)
	stats.Mean = core.Round(stats.Mean, 2)
	stats.Median = core.Round(stats.Median, 2)
	stats.Min = core.Round(stats.Min, 2)
	stats.Max = core.Round(stats.Max, 2)

	perf := AssignmentPerformance(assignments, classGrades)
	for i := range perf {
		perf[i].Average = core.Round(perf[i].Average, 2)
	}

	if assignments == nil {
		assignments = []Assignment{}
	}
	return Gradebook{
		ClassID:        classID,
		Scale:          scale,
		Assignments:    assignments,
		Students:       rows,
		Grades:         classGrades,
		Stats:          stats,
		Distribution:   distribute(classPercentages(assignments, classGrades), scale),
		Performance:    perf,
		CompletionRate: core.Round(CompletionRate(studentIDs, assignments, classGrades), 2),
	}
}
