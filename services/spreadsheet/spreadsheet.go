// Package sheetsvc reads and writes gradebooks as Excel workbooks.
package sheetsvc

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/gradebook"
)

const gradebookSheet = "Gradebook"

// Columns of the long import layout: one grade per row.
const (
	colStudentID    = "student_id"
	colAssignment   = "assignment"
	colPointsEarned = "points_earned"
)

var (
	ErrEmptyWorkbook   = errors.New("workbook has no sheet")
	ErrMissingStudents = errors.New("missing student column")
)

// summary columns of the exported layout, ignored on import
var summaryColumns = map[string]bool{
	"name":    true,
	"average": true,
	"grade":   true,
	"trend":   true,
}

// WriteGradebook writes `gb` as a workbook: one row per student, one column per assignment.
func WriteGradebook(w io.Writer, gb gradebook.Gradebook) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", gradebookSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := []interface{}{"Student ID", "Name"}
	for _, a := range gb.Assignments {
		header = append(header, a.Name)
	}
	header = append(header, "Average", "Grade", "Trend")
	if err := setRow(f, 1, header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetRowStyle(gradebookSheet, 1, 1, bold); err != nil {
		return errors.Wrap(err, "styling header")
	}

	points := make(map[[2]string]float64, len(gb.Grades))
	for _, g := range gb.Grades {
		points[[2]string{g.StudentID, g.AssignmentID}] = g.PointsEarned
	}

	for i, row := range gb.Students {
		values := []interface{}{row.StudentNumber, row.Name}
		for _, a := range gb.Assignments {
			if p, ok := points[[2]string{row.StudentID, a.ID}]; ok {
				values = append(values, p)
			} else {
				values = append(values, nil)
			}
		}
		var avg interface{}
		if row.Average.HasData() {
			avg = row.Average.Percent
		}
		values = append(values, avg, row.Grade.Label, row.Trend)
		if err = setRow(f, i+2, values); err != nil {
			return err
		}
	}

	if err = f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "locating row")
	}
	if err = f.SetSheetRow(gradebookSheet, cell, &values); err != nil {
		return errors.Wrapf(err, "writing row %d", row)
	}
	return nil
}

// ParseGrades reads grades from the first sheet of a workbook.
//
// Two layouts are accepted: the long one with student_id, assignment and points_earned columns,
// and the wide one produced by WriteGradebook, where every non-summary column is an assignment.
// Blank cells are skipped. Rows are numbered as in the sheet.
func ParseGrades(r io.Reader) ([]gradebook.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) == 0 {
		return []gradebook.ImportRow{}, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		columns[headerKey(col)] = i
	}
	if _, ok := columns[colStudentID]; !ok {
		return nil, ErrMissingStudents
	}

	_, hasAssignment := columns[colAssignment]
	_, hasPoints := columns[colPointsEarned]
	if hasAssignment && hasPoints {
		return parseLong(rows, columns)
	}
	return parseWide(rows, columns)
}

func headerKey(col string) string {
	return strings.ReplaceAll(strings.ToLower(core.CleanString(col)), " ", "_")
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return core.CleanString(row[idx])
	}
	return ""
}

func parsePoints(s string, rowNum int, col string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Errorf("row %d: invalid points in column %q: %q", rowNum, col, s)
	}
	return p, nil
}

func parseLong(rows [][]string, columns map[string]int) ([]gradebook.ImportRow, error) {
	imports := make([]gradebook.ImportRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		sid := cell(row, columns[colStudentID])
		raw := cell(row, columns[colPointsEarned])
		if sid == "" || raw == "" {
			continue
		}
		p, err := parsePoints(raw, rowNum, colPointsEarned)
		if err != nil {
			return nil, err
		}
		imports = append(imports, gradebook.ImportRow{
			Row:          rowNum,
			StudentID:    sid,
			Assignment:   cell(row, columns[colAssignment]),
			PointsEarned: p,
		})
	}
	return imports, nil
}

func parseWide(rows [][]string, columns map[string]int) ([]gradebook.ImportRow, error) {
	sidIdx := columns[colStudentID]
	header := rows[0]

	imports := make([]gradebook.ImportRow, 0)
	for i, row := range rows[1:] {
		rowNum := i + 2
		sid := cell(row, sidIdx)
		if sid == "" {
			continue
		}
		for idx, col := range header {
			name := core.CleanString(col)
			if idx == sidIdx || name == "" || summaryColumns[headerKey(col)] {
				continue
			}
			raw := cell(row, idx)
			if raw == "" {
				continue
			}
			p, err := parsePoints(raw, rowNum, name)
			if err != nil {
				return nil, err
			}
			imports = append(imports, gradebook.ImportRow{
				Row:          rowNum,
				StudentID:    sid,
				Assignment:   name,
				PointsEarned: p,
			})
		}
	}
	return imports, nil
}
