package sheetsvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/grading"
)

func sampleGradebook() gradebook.Gradebook {
	return gradebook.Gradebook{
		ClassID: "math-7a",
		Scale:   grading.Standard(),
		Assignments: []gradebook.Assignment{
			{ID: "a1", Name: "Quiz 1", TotalPoints: 10},
			{ID: "a2", Name: "Midterm", TotalPoints: 100},
		},
		Students: []gradebook.StudentRow{
			{StudentID: "s1", StudentNumber: "S-001", Name: "Amani", Grade: grading.Grade{Label: "A"}},
			{StudentID: "s2", StudentNumber: "S-002", Name: "Baraka", Grade: grading.NotAvailable},
		},
		Grades: []gradebook.GradeRecord{
			{StudentID: "s1", AssignmentID: "a1", PointsEarned: 9, MaxPoints: 10},
			{StudentID: "s1", AssignmentID: "a2", PointsEarned: 92.5, MaxPoints: 100},
		},
	}
}

func TestWriteGradebook_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGradebook(&buf, sampleGradebook()))

	rows, err := ParseGrades(&buf)
	require.NoError(t, err)
	assert.Equal(t, []gradebook.ImportRow{
		{Row: 2, StudentID: "S-001", Assignment: "Quiz 1", PointsEarned: 9},
		{Row: 2, StudentID: "S-001", Assignment: "Midterm", PointsEarned: 92.5},
	}, rows)
}

func TestWriteGradebook_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGradebook(&buf, sampleGradebook()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(gradebookSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student ID", "Name", "Quiz 1", "Midterm", "Average", "Grade", "Trend"}, rows[0])
	assert.Equal(t, "Baraka", rows[2][1])
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseGrades_LongLayout(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Student_ID", "Assignment", "Points Earned"},
		{"S-001", "Quiz 1", 7},
		{"", "Quiz 1", 3},
		{"S-002", "Quiz 1", ""},
		{"S-003", "Midterm", "88.5"},
	})

	rows, err := ParseGrades(buf)
	require.NoError(t, err)
	assert.Equal(t, []gradebook.ImportRow{
		{Row: 2, StudentID: "S-001", Assignment: "Quiz 1", PointsEarned: 7},
		{Row: 5, StudentID: "S-003", Assignment: "Midterm", PointsEarned: 88.5},
	}, rows)
}

func TestParseGrades_Errors(t *testing.T) {
	t.Run("missing student column", func(t *testing.T) {
		_, err := ParseGrades(workbook(t, [][]interface{}{{"Name", "Quiz 1"}, {"Amani", 4}}))
		assert.Equal(t, ErrMissingStudents, err)
	})

	t.Run("invalid points", func(t *testing.T) {
		_, err := ParseGrades(workbook(t, [][]interface{}{{"Student ID", "Quiz 1"}, {"S-001", "ten"}}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := ParseGrades(bytes.NewBufferString("student_id,points\n"))
		assert.Error(t, err)
	})
}
