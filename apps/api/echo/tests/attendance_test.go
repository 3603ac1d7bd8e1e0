package tests

import (
	"context"
	"encoding/csv"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/tests"
)

func dayRecords(t *testing.T, day string) map[string]string {
	d := testutil.Date(t, day)
	recs, err := repos.Attendance.QueryRecords(context.Background(), attendance.RecordFilter{From: d, To: d})
	require.NoError(t, err)
	statuses := make(map[string]string, len(recs))
	for _, r := range recs {
		statuses[r.StudentID] = r.Status
	}
	return statuses
}

func Test_attendanceApi_roster(t *testing.T) {
	db.Reset()
	guest := testutil.CreateUser(t, repos.Users, "Guest", "guest", "guest@test.cd", "", nil, true)
	_, teacherToken := staffTokens(t)

	amani := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")
	baraka := testutil.CreateStudent(t, repos.Students, "S002", "Baraka", "7", "math-7a")
	chausiku := testutil.CreateStudent(t, repos.Students, "S003", "Chausiku", "8", "math-8a")

	for _, day := range []string{"2024-03-01", "2024-03-04", "2024-03-05"} {
		testutil.MarkAttendance(t, repos.Attendance, amani.ID, testutil.Date(t, day), attendance.StatusPresent)
		testutil.MarkAttendance(t, repos.Attendance, baraka.ID, testutil.Date(t, day), attendance.StatusAbsent)
	}
	testutil.MarkAttendance(t, repos.Attendance, amani.ID, testutil.Date(t, "2024-03-06"), attendance.StatusAbsent)

	runHTTPTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: "/v1/attendance", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff required", path: "/v1/attendance", token: getToken(t, guest), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "invalid date", path: "/v1/attendance?date=05-03-2024", token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "must be a date formatted as YYYY-MM-DD"}),
		},
	})

	roster := func(t *testing.T, query string) attendance.Roster {
		rec := serve(http.MethodGet, "/v1/attendance?"+query, teacherToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var r attendance.Roster
		unmarshall(t, rec, &r)
		return r
	}

	t.Run("day roster", func(t *testing.T) {
		r := roster(t, "date=2024-03-05")
		assert.Equal(t, testutil.Date(t, "2024-03-05"), r.Date)
		require.Len(t, r.Rows, 3)
		assert.Equal(t, []string{amani.ID, baraka.ID, chausiku.ID}, []string{r.Rows[0].StudentID, r.Rows[1].StudentID, r.Rows[2].StudentID})

		assert.Equal(t, attendance.StatusPresent, r.Rows[0].Status)
		assert.Equal(t, 1.0, r.Rows[0].Summary.Rate) // the later absence is ignored
		assert.Equal(t, attendance.BandExcellent, r.Rows[0].Band)

		assert.Equal(t, attendance.StatusAbsent, r.Rows[1].Status)
		assert.True(t, r.Rows[1].Summary.IsChronic)
		assert.Equal(t, attendance.BandPoor, r.Rows[1].Band)

		assert.Equal(t, attendance.StatusUnmarked, r.Rows[2].Status)
		assert.Equal(t, attendance.BandNoData, r.Rows[2].Band)
		assert.False(t, r.Rows[2].Summary.IsChronic)

		assert.Equal(t, attendance.RosterStats{Total: 3, Present: 1, Absent: 1, Unmarked: 1, Chronic: 1}, r.Stats)
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			query string
			want  []string
		}{
			{query: "date=2024-03-05&class=math-7a", want: []string{amani.ID, baraka.ID}},
			{query: "date=2024-03-05&grade_level=8", want: []string{chausiku.ID}},
			{query: "date=2024-03-05&search=bar", want: []string{baraka.ID}},
			{query: "date=2024-03-05&search=s003", want: []string{chausiku.ID}},
			{query: "date=2024-03-05&status=ABSENT", want: []string{baraka.ID}},
			{query: "date=2024-03-05&status=unmarked", want: []string{chausiku.ID}},
			{query: "date=2024-03-06&band=fair", want: []string{amani.ID}},
			{query: "date=2024-03-05&class=lol", want: []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.query, func(t *testing.T) {
				r := roster(t, tt.query)
				got := make([]string, 0, len(r.Rows))
				for _, row := range r.Rows {
					got = append(got, row.StudentID)
				}
				assert.Equal(t, tt.want, got)
			})
		}
	})

	t.Run("csv export", func(t *testing.T) {
		rec := serve(http.MethodGet, "/v1/attendance/export.csv?date=2024-03-05&class=math-7a", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-2024-03-05.csv")

		rows, err := csv.NewReader(rec.Body).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Student ID", "Name", "Grade", "Status", "Attendance Rate"},
			{"S001", "Amani", "7", "present", "100%"},
			{"S002", "Baraka", "7", "absent", "0%"},
		}, rows)
	})
}

func Test_attendanceApi_mark(t *testing.T) {
	db.Reset()
	_, teacherToken := staffTokens(t)
	amani := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")

	mark := func(sid, date, status string) []byte {
		return marchallObj(t, attendance.MarkAttendance{StudentID: sid, Date: date, Status: status})
	}

	runHTTPTests(t, http.MethodPut, []httpTest{
		{
			name: "required fields", path: "/v1/attendance", token: teacherToken, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"student_id": "this field is required",
				"date":       "this field is required",
				"status":     "this field is required",
			}),
		},
		{
			name: "invalid status", path: "/v1/attendance", token: teacherToken, body: mark(amani.ID, "2024-03-05", "sick"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "must be one of: present, absent, late, excused"}),
		},
		{
			name: "invalid date", path: "/v1/attendance", token: teacherToken, body: mark(amani.ID, "2024-13-05", "late"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "must be a date formatted as YYYY-MM-DD"}),
		},
		{
			name: "unknown student", path: "/v1/attendance", token: teacherToken, body: mark("lol", "2024-03-05", "late"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "student not found"}),
		},
		{name: "marked", path: "/v1/attendance", token: teacherToken, body: mark(amani.ID, "2024-03-05", "LATE")},
		{name: "overwritten", path: "/v1/attendance", token: teacherToken, body: mark(amani.ID, "2024-03-05", "excused")},
	})

	assert.Equal(t, map[string]string{amani.ID: attendance.StatusExcused}, dayRecords(t, "2024-03-05"))

	runHTTPTests(t, http.MethodDelete, []httpTest{
		{
			name: "invalid date", path: "/v1/attendance/" + amani.ID + "/lol", token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "must be a date formatted as YYYY-MM-DD"}),
		},
		{name: "unmarked", path: "/v1/attendance/" + amani.ID + "/2024-03-05", token: teacherToken, wantCode: http.StatusNoContent},
		{
			name: "not found", path: "/v1/attendance/" + amani.ID + "/2024-03-05", token: teacherToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "attendance record not found"}),
		},
	})

	assert.Empty(t, dayRecords(t, "2024-03-05"))
}

func Test_attendanceApi_bulk(t *testing.T) {
	db.Reset()
	_, teacherToken := staffTokens(t)
	amani := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")
	baraka := testutil.CreateStudent(t, repos.Students, "S002", "Baraka", "7", "math-7a")

	bulk := func(bu attendance.BulkUpdate) []byte { return marchallObj(t, bu) }

	runHTTPTests(t, http.MethodPost, []httpTest{
		{
			name: "nothing to update", path: "/v1/attendance/bulk", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     bulk(attendance.BulkUpdate{Date: "2024-03-05"}),
			wantData: marchallObj(t, map[string]string{"student_ids": "provide student_ids with a status, or overrides"}),
		},
		{
			name: "status required with students", path: "/v1/attendance/bulk", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     bulk(attendance.BulkUpdate{Date: "2024-03-05", StudentIDs: []string{amani.ID}}),
			wantData: marchallObj(t, map[string]string{"status": "this field is required with student_ids"}),
		},
		{
			name: "unknown mode", path: "/v1/attendance/bulk", token: teacherToken, wantCode: http.StatusBadRequest,
			body: bulk(attendance.BulkUpdate{Date: "2024-03-05", StudentIDs: []string{amani.ID}, Status: "present", Mode: "lol"}),
		},
	})

	t.Run("atomic failure applies nothing", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/attendance/bulk", teacherToken, bulk(attendance.BulkUpdate{
			Date:       "2024-03-05",
			StudentIDs: []string{amani.ID, "lol"},
			Status:     "present",
		}))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

		var out attendance.BulkOutcome
		unmarshall(t, rec, &out)
		assert.Equal(t, attendance.ModeAtomic, out.Mode)
		assert.Equal(t, 0, out.Applied)
		assert.Equal(t, 2, out.Failed)
		assert.Equal(t, []attendance.BulkResult{
			{StudentID: amani.ID, Status: "present", Error: attendance.ErrBulkNotApplied.Error()},
			{StudentID: "lol", Status: "present", Error: attendance.ErrUnknownStudent.Error()},
		}, out.Results)
		assert.Empty(t, dayRecords(t, "2024-03-05"))
	})

	t.Run("partial applies valid rows", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/attendance/bulk", teacherToken, bulk(attendance.BulkUpdate{
			Date:       "2024-03-05",
			StudentIDs: []string{amani.ID, baraka.ID},
			Status:     "present",
			Overrides:  []attendance.Override{{StudentID: baraka.ID, Status: "sick"}},
			Mode:       attendance.ModePartial,
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out attendance.BulkOutcome
		unmarshall(t, rec, &out)
		assert.Equal(t, 1, out.Applied)
		assert.Equal(t, 1, out.Failed)
		assert.Equal(t, attendance.ErrInvalidStatus.Error(), out.Results[1].Error)
		assert.Equal(t, map[string]string{amani.ID: attendance.StatusPresent}, dayRecords(t, "2024-03-05"))
	})

	t.Run("atomic with overrides", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/attendance/bulk", teacherToken, bulk(attendance.BulkUpdate{
			Date:       "2024-03-05",
			StudentIDs: []string{amani.ID, baraka.ID},
			Status:     "absent",
			Overrides:  []attendance.Override{{StudentID: amani.ID, Status: "Late"}},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out attendance.BulkOutcome
		unmarshall(t, rec, &out)
		assert.Equal(t, 2, out.Applied)
		assert.Equal(t, 0, out.Failed)
		assert.Equal(t, map[string]string{
			amani.ID:  attendance.StatusLate,
			baraka.ID: attendance.StatusAbsent,
		}, dayRecords(t, "2024-03-05"))
	})
}

func Test_attendanceApi_copyPrevious(t *testing.T) {
	db.Reset()
	_, teacherToken := staffTokens(t)
	amani := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")
	baraka := testutil.CreateStudent(t, repos.Students, "S002", "Baraka", "7", "math-7a")
	chausiku := testutil.CreateStudent(t, repos.Students, "S003", "Chausiku", "8", "math-8a")

	testutil.MarkAttendance(t, repos.Attendance, amani.ID, testutil.Date(t, "2024-03-01"), attendance.StatusPresent)
	testutil.MarkAttendance(t, repos.Attendance, amani.ID, testutil.Date(t, "2024-03-04"), attendance.StatusLate)
	testutil.MarkAttendance(t, repos.Attendance, amani.ID, testutil.Date(t, "2024-03-06"), attendance.StatusAbsent)
	testutil.MarkAttendance(t, repos.Attendance, chausiku.ID, testutil.Date(t, "2024-03-04"), attendance.StatusAbsent)

	runHTTPTests(t, http.MethodPost, []httpTest{
		{
			name: "targets required", path: "/v1/attendance/copy-previous", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, attendance.CopyPrevious{Date: "2024-03-05"}),
			wantData: marchallObj(t, map[string]string{"class_id": "provide class_id or student_ids"}),
		},
	})

	t.Run("class", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/attendance/copy-previous", teacherToken, marchallObj(t, attendance.CopyPrevious{
			Date:    "2024-03-05",
			ClassID: "math-7a",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out attendance.BulkOutcome
		unmarshall(t, rec, &out)
		assert.Equal(t, 2, out.Applied)
		assert.Equal(t, map[string]string{
			amani.ID:  attendance.StatusLate,
			baraka.ID: attendance.StatusPresent,
		}, dayRecords(t, "2024-03-05"))
	})

	t.Run("unknown student rejects all", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/attendance/copy-previous", teacherToken, marchallObj(t, attendance.CopyPrevious{
			Date:       "2024-03-07",
			StudentIDs: []string{chausiku.ID, "lol"},
		}))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, dayRecords(t, "2024-03-07"))
	})

	t.Run("students", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/attendance/copy-previous", teacherToken, marchallObj(t, attendance.CopyPrevious{
			Date:       "2024-03-07",
			StudentIDs: []string{chausiku.ID, amani.ID},
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]string{
			amani.ID:    attendance.StatusAbsent,
			chausiku.ID: attendance.StatusAbsent,
		}, dayRecords(t, "2024-03-07"))
	})
}
