package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/grading"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func (env *testEnv) getScale(t *testing.T, name string) grading.GradeSystem {
	rec := env.serve(httpTest{path: "/scale?name=" + name})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var gs grading.GradeSystem
	decode(t, rec, &gs)
	return gs
}

func gradesOf(gs grading.GradeSystem) []grading.Grade {
	grades := make([]grading.Grade, 0, len(gs.Ranges))
	for _, r := range gs.Ranges {
		grades = append(grades, r.Grade)
	}
	return grades
}

func Test_scaleApi_query(t *testing.T) {
	env := setup(t)

	t.Run("list", func(t *testing.T) {
		rec := env.serve(httpTest{path: "/scale"})
		require.Equal(t, http.StatusOK, rec.Code)
		var scales []grading.GradeSystem
		decode(t, rec, &scales)
		names := make([]string, 0, len(scales))
		for _, gs := range scales {
			names = append(names, gs.Name)
		}
		assert.ElementsMatch(t, []string{"O-Level", "A-Level"}, names)
	})

	t.Run("by name", func(t *testing.T) {
		gs := env.getScale(t, "A-Level")
		assert.Equal(t, []grading.Grade{"A", "B", "C", "D", "E", "O", "F"}, gradesOf(gs))
		assert.Equal(t, grading.Grade("O"), gs.Evaluate(37))
	})

	tests := []httpTest{
		{
			name: "unknown name", path: "/scale?name=Unknown", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "Grade system 'Unknown' not found"}),
		},
		{
			name: "unknown id", path: "/scale/999", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: grading.ErrNotFound.Error()}),
		},
		{name: "bad id", path: "/scale/abc", wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid id"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}
}

func Test_scaleApi_create(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)

	tests := []httpTest{
		{
			name: "auth required", body: []byte(`{"name":"Pass/Fail","gradeRanges":[{"grade":"P","min":50,"max":100},{"grade":"F","min":0,"max":49}]}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "gap", token: token, body: []byte(`{"name":"Gappy","gradeRanges":[{"grade":"P","min":60,"max":100},{"grade":"F","min":0,"max":49}]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"gradeRanges":"marks from 50 to 59 are not covered"}`),
		},
		{
			name: "missing bounds", token: token, body: []byte(`{"name":"Loose","gradeRanges":[{"grade":"P"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"gradeRanges[0].min":"this field is required","gradeRanges[0].max":"this field is required"}`),
		},
		{
			name: "name taken", token: token, body: []byte(`{"name":"O-Level","gradeRanges":[{"grade":"P","min":0,"max":100}]}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": grading.ErrNameExists.Error()}),
		},
		{
			name: "created", token: token, body: []byte(`{"name":" Pass/Fail ","gradeRanges":[{"grade":"F","min":0,"max":49},{"grade":"P","min":50,"max":100}]}`),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/scale"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	gs := env.getScale(t, "Pass/Fail")
	assert.Equal(t, []grading.Grade{"P", "F"}, gradesOf(gs))
}

func Test_scaleApi_replace(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)
	oLevel := env.getScale(t, "O-Level")
	path := fmt.Sprintf("/scale/%d", oLevel.ID)

	t.Run("invalid ranges change nothing", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPut, path: path, token: token,
			body:     []byte(`{"name":"O-Level 2","gradeRanges":[{"grade":"A","min":0,"max":60},{"grade":"B","min":50,"max":100}]}`),
			wantCode: http.StatusBadRequest,
		}
		checkCodeAndData(t, tt, env.serve(tt))
		assert.Equal(t, oLevel, env.getScale(t, "O-Level"))
	})

	for _, tt := range []httpTest{
		{
			name: "name required", body: []byte(`{"gradeRanges":[{"grade":"P","min":0,"max":100}]}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"name":"this field is required"}`),
		},
		{
			name: "non integer id", path: "/scale/abc", body: []byte(`{"name":"Ghost","gradeRanges":[{"grade":"P","min":0,"max":100}]}`),
			wantCode: http.StatusBadRequest,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.token = http.MethodPut, token
			if tt.path == "" {
				tt.path = path
			}
			checkCodeAndData(t, tt, env.serve(tt))
			assert.Equal(t, oLevel, env.getScale(t, "O-Level"))
		})
	}

	t.Run("name taken changes nothing", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPut, path: path, token: token,
			body:     []byte(`{"name":"A-Level","gradeRanges":[{"grade":"P","min":0,"max":100}]}`),
			wantCode: http.StatusBadRequest,
		}
		checkCodeAndData(t, tt, env.serve(tt))
		assert.Equal(t, oLevel, env.getScale(t, "O-Level"))
	})

	t.Run("unknown scale", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPut, path: "/scale/999", token: token,
			body:     []byte(`{"name":"Ghost","gradeRanges":[{"grade":"P","min":0,"max":100}]}`),
			wantCode: http.StatusNotFound,
		}
		checkCodeAndData(t, tt, env.serve(tt))
	})

	t.Run("replaced", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPut, path: path, token: token,
			body: []byte(`{"name":"O-Level (new)","gradeRanges":[` +
				`{"grade":"D1","min":90,"max":100},{"grade":"D2","min":75,"max":89},{"grade":"C","min":40,"max":74},{"grade":"F9","min":0,"max":39}]}`),
		}
		rec := env.serve(tt)
		checkCodeAndData(t, tt, rec)

		var gs grading.GradeSystem
		decode(t, rec, &gs)
		assert.Equal(t, oLevel.ID, gs.ID)
		assert.Equal(t, "O-Level (new)", gs.Name)
		assert.Equal(t, []grading.Grade{"D1", "D2", "C", "F9"}, gradesOf(gs))
		assert.Equal(t, grading.Grade("D2"), gs.Evaluate(89.5))
	})
}

func Test_scaleApi_destroy(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	admin := testutil.CreateUser(t, env.usrRepo, "admin", "admin@matokeo.test", "", user.RoleAdmin, true)
	path := fmt.Sprintf("/scale/%d", env.getScale(t, "A-Level").ID)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: env.getToken(t, clerk), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "deleted", token: env.getToken(t, admin), wantCode: http.StatusNoContent},
		{
			name: "already deleted", token: env.getToken(t, admin), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: grading.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodDelete, path
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}
}
