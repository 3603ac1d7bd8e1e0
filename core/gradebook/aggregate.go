package gradebook

import (
	"math"
	"sort"

	"github.com/trezcool/darasa/core/grading"
)

// Trend directions
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"

	trendWindow    = 3
	trendTolerance = 2.0
)

type (
	// Average is an unweighted mean of the graded assignments only.
	// Completed counts those assignments, Total all the assignments considered.
	Average struct {
		Percent   float64 `json:"percent"`
		Completed int     `json:"completed"`
		Total     int     `json:"total"`
	}

	Stats struct {
		Mean   float64 `json:"mean"`
		Median float64 `json:"median"`
		Min    float64 `json:"min"`
		Max    float64 `json:"max"`
		Count  int     `json:"count"`
	}

	Bucket struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	// Distribution holds one Bucket per scale label, highest band first.
	Distribution []Bucket

	AssignmentStats struct {
		AssignmentID string  `json:"assignment_id"`
		Name         string  `json:"name"`
		Average      float64 `json:"average"`
		Submissions  int     `json:"submissions"`
	}
)

// HasData is false when no assignment was graded yet.
func (a Average) HasData() bool {
	return a.Completed > 0
}

func (d Distribution) Map() map[string]int {
	m := make(map[string]int, len(d))
	for _, b := range d {
		m[b.Label] = b.Count
	}
	return m
}

// gradeIndex maps studentID -> assignmentID -> record.
type gradeIndex map[string]map[string]GradeRecord

func indexGrades(grades []GradeRecord) gradeIndex {
	idx := make(gradeIndex)
	for _, g := range grades {
		if idx[g.StudentID] == nil {
			idx[g.StudentID] = make(map[string]GradeRecord)
		}
		idx[g.StudentID][g.AssignmentID] = g
	}
	return idx
}

// studentPercentages returns the percentages of the student's graded assignments, in `assignments` order.
func studentPercentages(studentID string, assignments []Assignment, idx gradeIndex) []float64 {
	percentages := make([]float64, 0, len(assignments))
	for _, a := range assignments {
		if g, ok := idx[studentID][a.ID]; ok {
			percentages = append(percentages, g.Percentage())
		}
	}
	return percentages
}

// classPercentages returns every percentage recorded for `assignments`.
func classPercentages(assignments []Assignment, grades []GradeRecord) []float64 {
	ids := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		ids[a.ID] = true
	}
	percentages := make([]float64, 0, len(grades))
	for _, g := range grades {
		if ids[g.AssignmentID] {
			percentages = append(percentages, g.Percentage())
		}
	}
	return percentages
}

// StudentAverage averages the student's graded assignments; ungraded ones are left out of the denominator.
func StudentAverage(studentID string, assignments []Assignment, grades []GradeRecord) Average {
	return studentAverage(studentID, assignments, indexGrades(grades))
}

func studentAverage(studentID string, assignments []Assignment, idx gradeIndex) Average {
	percentages := studentPercentages(studentID, assignments, idx)
	return Average{
		Percent:   mean(percentages),
		Completed: len(percentages),
		Total:     len(assignments),
	}
}

// ClassAverage computes the statistics of all percentages recorded for `assignments`.
func ClassAverage(assignments []Assignment, grades []GradeRecord) Stats {
	return computeStats(classPercentages(assignments, grades))
}

func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return Stats{
		Mean:   mean(sorted),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Count:  n,
	}
}

// GradeDistribution classifies every grade under `scale` and tallies the labels.
// Every label of the scale is present, zero-filled; grades no band holds are tallied under grading.NotAvailable.
func GradeDistribution(grades []GradeRecord, scale grading.Scale) Distribution {
	percentages := make([]float64, 0, len(grades))
	for _, g := range grades {
		percentages = append(percentages, g.Percentage())
	}
	return distribute(percentages, scale)
}

func distribute(percentages []float64, scale grading.Scale) Distribution {
	labels := scale.Labels()
	dist := make(Distribution, 0, len(labels)+1)
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		dist = append(dist, Bucket{Label: l})
		pos[l] = i
	}

	var unclassified int
	for _, p := range percentages {
		g := grading.Classify(p, scale)
		if i, ok := pos[g.Label]; ok && g != grading.NotAvailable {
			dist[i].Count++
		} else {
			unclassified++
		}
	}
	if unclassified > 0 {
		dist = append(dist, Bucket{Label: grading.NotAvailable.Label, Count: unclassified})
	}
	return dist
}

// MissingAssignments returns the assignments the student has no grade for, in `assignments` order.
func MissingAssignments(studentID string, assignments []Assignment, grades []GradeRecord) []Assignment {
	return missingAssignments(studentID, assignments, indexGrades(grades))
}

func missingAssignments(studentID string, assignments []Assignment, idx gradeIndex) []Assignment {
	missing := make([]Assignment, 0)
	for _, a := range assignments {
		if _, ok := idx[studentID][a.ID]; !ok {
			missing = append(missing, a)
		}
	}
	return missing
}

// Trend compares the mean of the student's most recent graded assignments (by due date) to the mean of the older ones.
// It is neutral until there are older grades to compare to, or when the means are within 2 points.
func Trend(studentID string, assignments []Assignment, grades []GradeRecord) string {
	return trend(studentID, assignments, indexGrades(grades))
}

func trend(studentID string, assignments []Assignment, idx gradeIndex) string {
	byDueDate := make([]Assignment, len(assignments))
	copy(byDueDate, assignments)
	sort.SliceStable(byDueDate, func(i, j int) bool { return byDueDate[i].DueDate.Before(byDueDate[j].DueDate) })

	percentages := studentPercentages(studentID, byDueDate, idx)
	if len(percentages) <= trendWindow {
		return TrendNeutral
	}
	split := len(percentages) - trendWindow
	recent, older := mean(percentages[split:]), mean(percentages[:split])
	switch {
	case recent > older+trendTolerance:
		return TrendUp
	case recent < older-trendTolerance:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// CompletionRate is the share (0-100) of the students x assignments cells holding a grade.
func CompletionRate(studentIDs []string, assignments []Assignment, grades []GradeRecord) float64 {
	cells := len(studentIDs) * len(assignments)
	if cells == 0 {
		return 0
	}
	idx := indexGrades(grades)
	var graded int
	for _, sid := range studentIDs {
		for _, a := range assignments {
			if _, ok := idx[sid][a.ID]; ok {
				graded++
			}
		}
	}
	return float64(graded) / float64(cells) * 100
}

// AssignmentPerformance returns the average percentage and submission count of every assignment.
func AssignmentPerformance(assignments []Assignment, grades []GradeRecord) []AssignmentStats {
	byAssignment := make(map[string][]float64, len(assignments))
	for _, g := range grades {
		byAssignment[g.AssignmentID] = append(byAssignment[g.AssignmentID], g.Percentage())
	}
	perf := make([]AssignmentStats, 0, len(assignments))
	for _, a := range assignments {
		percentages := byAssignment[a.ID]
		perf = append(perf, AssignmentStats{
			AssignmentID: a.ID,
			Name:         a.Name,
			Average:      mean(percentages),
			Submissions:  len(percentages),
		})
	}
	return perf
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return m
}
