package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/grading"
)

func Test_gradingApi(t *testing.T) {
	db.Reset()
	adminToken, teacherToken := staffTokens(t)

	honors := grading.Scale{
		ID:   "Honors",
		Name: "Honors",
		Bands: []grading.Band{
			{Label: "P", MinPercent: 0, MaxPercent: 85, GPAPoints: 2},
			{Label: "H", MinPercent: 85, MaxPercent: 100, GPAPoints: 5},
		},
	}
	savedHonors := grading.Scale{
		ID:   "honors",
		Name: "Honors",
		Bands: []grading.Band{
			{Label: "H", MinPercent: 85, MaxPercent: 100, GPAPoints: 5},
			{Label: "P", MinPercent: 0, MaxPercent: 85, GPAPoints: 2},
		},
	}
	gap := grading.Scale{
		ID:   "gap",
		Name: "Gap",
		Bands: []grading.Band{
			{Label: "H", MinPercent: 90, MaxPercent: 100},
			{Label: "P", MinPercent: 0, MaxPercent: 80},
		},
	}
	builtin := grading.Predefined()

	runHTTPTests(t, http.MethodPost, []httpTest{
		{name: "Auth required", path: "/v1/scales", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/scales", token: teacherToken, body: marchallObj(t, honors), wantCode: http.StatusForbidden},
		{
			name: "gap between bands", path: "/v1/scales", token: adminToken, body: marchallObj(t, gap), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"bands": `gap between bands "P" and "H"`}),
		},
		{
			name: "built-in scales are read-only", path: "/v1/scales", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, builtin[grading.ScaleStandard]),
			wantData: marchallObj(t, map[string]string{"id": grading.ErrScaleReadOnly.Error()}),
		},
		{name: "saved", path: "/v1/scales", token: adminToken, body: marchallObj(t, honors), wantCode: http.StatusCreated, wantData: marchallObj(t, savedHonors)},
		// retrieval
		{name: "retrieve built-in", method: http.MethodGet, path: "/v1/scales/standard", token: teacherToken, wantData: marchallObj(t, builtin[grading.ScaleStandard])},
		{name: "retrieve custom", method: http.MethodGet, path: "/v1/scales/HONORS", token: teacherToken, wantData: marchallObj(t, savedHonors)},
		{name: "retrieve (not found)", method: http.MethodGet, path: "/v1/scales/lol", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "grading scale not found"})},
		// class scale
		{name: "class default", method: http.MethodGet, path: "/v1/classes/math-7a/scale", token: teacherToken, wantData: marchallObj(t, builtin[grading.ScaleStandard])},
		{
			name: "select (teacher)", method: http.MethodPut, path: "/v1/classes/math-7a/scale", token: teacherToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, echoapi.ClassScaleRequest{ScaleID: "honors"}),
		},
		{
			name: "select (required)", method: http.MethodPut, path: "/v1/classes/math-7a/scale", token: adminToken, wantCode: http.StatusBadRequest,
			body: []byte("{}"), wantData: marchallObj(t, map[string]string{"scale_id": "this field is required"}),
		},
		{
			name: "select (unknown scale)", method: http.MethodPut, path: "/v1/classes/math-7a/scale", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, echoapi.ClassScaleRequest{ScaleID: "lol"}), wantData: marchallObj(t, map[string]string{"scale_id": "grading scale not found"}),
		},
		{
			name: "select", method: http.MethodPut, path: "/v1/classes/math-7a/scale", token: adminToken,
			body: marchallObj(t, echoapi.ClassScaleRequest{ScaleID: "Honors"}), wantData: marchallObj(t, savedHonors),
		},
		{name: "class selection", method: http.MethodGet, path: "/v1/classes/math-7a/scale", token: teacherToken, wantData: marchallObj(t, savedHonors)},
		{name: "other class keeps the default", method: http.MethodGet, path: "/v1/classes/math-7b/scale", token: teacherToken, wantData: marchallObj(t, builtin[grading.ScaleStandard])},
	})

	t.Run("list", func(t *testing.T) {
		rec := serve(http.MethodGet, "/v1/scales", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var scales []grading.Scale
		unmarshall(t, rec, &scales)
		require.Len(t, scales, len(builtin)+1)
		for _, s := range scales[:len(builtin)] {
			assert.True(t, s.Predefined, s.ID)
		}
		assert.Equal(t, savedHonors, scales[len(scales)-1])
	})
}
