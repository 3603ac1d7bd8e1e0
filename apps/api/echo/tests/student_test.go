package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/tests"
)

func Test_studentApi_query(t *testing.T) {
	db.Reset()
	adminToken, teacherToken := staffTokens(t)
	guest := testutil.CreateUser(t, repos.Users, "Guest", "guest", "guest@test.cd", "", nil, true)

	amani := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")
	baraka := testutil.CreateStudent(t, repos.Students, "S002", "Baraka", "7", "math-7b")
	chausiku := testutil.CreateStudent(t, repos.Students, "S003", "Chausiku", "8", "math-8a")

	runHTTPTests(t, http.MethodGet, []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Staff required", path: "/v1/students", token: getToken(t, guest), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Get all", path: "/v1/students?ordering=name", token: teacherToken, wantData: marchallList(t, amani, baraka, chausiku)},
		{name: "search by name", path: "/v1/students?search=BAR", token: teacherToken, wantData: marchallList(t, baraka)},
		{name: "search by number", path: "/v1/students?search=s003", token: teacherToken, wantData: marchallList(t, chausiku)},
		{name: "grade level", path: "/v1/students?grade_level=7", token: adminToken, wantData: marchallList(t, amani, baraka)},
		{name: "class", path: "/v1/students?class=math-7b", token: adminToken, wantData: marchallList(t, baraka)},
		{name: "order by -name", path: "/v1/students?ordering=-name", token: adminToken, wantData: marchallList(t, chausiku, baraka, amani)},
		{name: "retrieve", path: "/v1/students/" + amani.ID, token: teacherToken, wantData: marchallObj(t, amani)},
		{name: "retrieve (not found)", path: "/v1/students/lol", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"})},
	})
}

func Test_studentApi_write(t *testing.T) {
	db.Reset()
	adminToken, teacherToken := staffTokens(t)

	existing := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")
	blankMsg := "this field cannot be blank"

	runHTTPTests(t, http.MethodPost, []httpTest{
		{
			name: "Admin required", path: "/v1/students", token: teacherToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, student.NewStudent{}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "required fields", path: "/v1/students", token: adminToken, wantCode: http.StatusBadRequest,
			body: []byte("{}"),
			wantData: marchallObj(t, map[string]string{
				"student_number": blankMsg,
				"name":           blankMsg,
				"grade_level":    blankMsg,
				"class_id":       blankMsg,
			}),
		},
		{
			name: "invalid email", path: "/v1/students", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, student.NewStudent{StudentNumber: "S002", Name: "Baraka", Email: "lol", GradeLevel: "7", ClassID: "math-7a"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "duplicate number", path: "/v1/students", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, student.NewStudent{StudentNumber: "s001", Name: "Baraka", GradeLevel: "7", ClassID: "math-7a"}),
			wantData: marchallObj(t, map[string]string{"student_number": student.ErrNumberExists.Error()}),
		},
		{
			name: "created", path: "/v1/students", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, student.NewStudent{StudentNumber: " S002 ", Name: "Baraka", GradeLevel: "7", ClassID: "math-7a"}),
		},
		// update
		{
			name: "update (not found)", method: http.MethodPut, path: "/v1/students/lol", token: adminToken, wantCode: http.StatusNotFound,
			body: marchallObj(t, student.NewStudent{StudentNumber: "S009", Name: "Lol", GradeLevel: "7", ClassID: "math-7a"}),
		},
		{
			name: "update (duplicate number)", method: http.MethodPut, path: "/v1/students/" + existing.ID, token: adminToken,
			wantCode: http.StatusBadRequest,
			body:     marchallObj(t, student.NewStudent{StudentNumber: "S002", Name: "Amani", GradeLevel: "7", ClassID: "math-7a"}),
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/students/" + existing.ID, token: adminToken,
			body: marchallObj(t, student.NewStudent{StudentNumber: "S001", Name: "Amani K.", GradeLevel: "8", ClassID: "math-8a"}),
		},
		// delete
		{name: "delete (teacher)", method: http.MethodDelete, path: "/v1/students/" + existing.ID, token: teacherToken, wantCode: http.StatusForbidden},
		{name: "delete (not found)", method: http.MethodDelete, path: "/v1/students/lol", token: adminToken, wantCode: http.StatusNotFound},
	})

	ctx := context.Background()
	std, err := repos.Students.GetStudent(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amani K.", std.Name)
	assert.Equal(t, "math-8a", std.ClassID)

	students, err := repos.Students.QueryStudents(ctx, student.QueryFilter{Search: "S002"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "S002", students[0].StudentNumber)

	rec := serve(http.MethodDelete, "/v1/students/"+existing.ID, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = repos.Students.GetStudent(ctx, existing.ID)
	assert.Equal(t, student.ErrNotFound, err)
}

func Test_studentApi_attendance(t *testing.T) {
	db.Reset()
	_, teacherToken := staffTokens(t)

	std := testutil.CreateStudent(t, repos.Students, "S001", "Amani", "7", "math-7a")
	testutil.MarkAttendance(t, repos.Attendance, std.ID, testutil.Date(t, "2024-03-04"), attendance.StatusPresent)
	testutil.MarkAttendance(t, repos.Attendance, std.ID, testutil.Date(t, "2024-03-05"), attendance.StatusAbsent)
	testutil.MarkAttendance(t, repos.Attendance, std.ID, testutil.Date(t, "2024-03-06"), attendance.StatusPresent)
	testutil.MarkAttendance(t, repos.Attendance, std.ID, testutil.Date(t, "2024-03-07"), attendance.StatusPresent)

	runHTTPTests(t, http.MethodGet, []httpTest{
		{name: "unknown student", path: "/v1/students/lol/attendance", token: teacherToken, wantCode: http.StatusNotFound},
		{
			name: "invalid date", path: "/v1/students/" + std.ID + "/attendance?from=03/04/2024", token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"from": "must be a date formatted as YYYY-MM-DD"}),
		},
		{
			name: "from after to", path: "/v1/students/" + std.ID + "/attendance?from=2024-03-07&to=2024-03-04", token: teacherToken,
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("history", func(t *testing.T) {
		rec := serve(http.MethodGet, "/v1/students/"+std.ID+"/attendance", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var history attendance.History
		unmarshall(t, rec, &history)
		assert.Len(t, history.Records, 4)
		assert.Equal(t, attendance.Summary{Present: 3, Absent: 1, Total: 4, Rate: 0.75}, history.Summary)
		assert.Equal(t, attendance.BandFair, history.Band)
	})

	t.Run("history over an interval", func(t *testing.T) {
		rec := serve(http.MethodGet, "/v1/students/"+std.ID+"/attendance?from=2024-03-05&to=2024-03-06", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var history attendance.History
		unmarshall(t, rec, &history)
		assert.Len(t, history.Records, 2)
		assert.Equal(t, 0.5, history.Summary.Rate)
		assert.True(t, history.Summary.IsChronic)
		assert.Equal(t, attendance.BandPoor, history.Band)
	})
}
