package attendance

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

var csvHeader = []string{"Student ID", "Name", "Grade", "Status", "Attendance Rate"}

// WriteCSV writes the header row followed by one row per roster row, the rate suffixed with %.
func WriteCSV(w io.Writer, rows []RosterRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, row := range rows {
		record := []string{
			row.StudentNumber,
			row.Name,
			row.GradeLevel,
			row.Status,
			strconv.Itoa(row.Summary.Percent()) + "%",
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
