package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/matokeo/core/school"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_schoolApi(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	admin := testutil.CreateUser(t, env.usrRepo, "admin", "admin@matokeo.test", "", user.RoleAdmin, true)
	token, adminToken := env.getToken(t, clerk), env.getToken(t, admin)
	busy := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	testutil.CreateStudent(t, env.studentRepo, busy.ID, "Amina", "Nakato", "K/001", "S.4", false)

	newSchool := school.NewSchool{
		Name: " Gulu College ", Address: "Plot 9, Gulu", Email: "INFO@gulu.test", PhoneNumber: "+256777000000", Principal: "John Doe",
	}
	gulu := newSchool.School(busy.ID + 1)
	gulu.Name, gulu.Email = "Gulu College", "info@gulu.test"
	renamed := gulu
	renamed.Name = "Gulu High"
	gPath := fmt.Sprintf("/schools/%d", gulu.ID)

	tests := []httpTest{
		{name: "auth required", path: "/schools", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "create: invalid", method: http.MethodPost, path: "/schools", token: token,
			body:     []byte(`{"name":"X","address":"Y","email":"not-an-email","phoneNumber":"1","principal":"Z"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"email must be a valid email address"}`),
		},
		{
			name: "create", method: http.MethodPost, path: "/schools", token: token,
			body: marchallObj(t, newSchool), wantCode: http.StatusCreated, wantData: marchallObj(t, gulu),
		},
		{name: "list", path: "/schools", token: token, wantData: marchallList(t, gulu, busy)},
		{name: "retrieve", path: gPath, token: token, wantData: marchallObj(t, gulu)},
		{name: "retrieve unknown", path: "/schools/999", token: token, wantCode: http.StatusNotFound},
		{
			name: "update", method: http.MethodPut, path: gPath, token: token,
			body: marchallObj(t, school.NewSchool{
				Name: "Gulu High", Address: gulu.Address, Email: gulu.Email, PhoneNumber: gulu.PhoneNumber, Principal: gulu.Principal,
			}),
			wantData: marchallObj(t, renamed),
		},
		{name: "delete: admin required", method: http.MethodDelete, path: gPath, token: token, wantCode: http.StatusForbidden},
		{
			name: "delete: has students", method: http.MethodDelete, path: fmt.Sprintf("/schools/%d", busy.ID), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: school.ErrHasStudents.Error()}),
		},
		{name: "delete", method: http.MethodDelete, path: gPath, token: adminToken, wantCode: http.StatusNoContent},
		{name: "list after delete", path: "/schools", token: token, wantData: marchallList(t, busy)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, env.serve(tt))
		})
	}
}

func Test_subjectApi(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)
	bio := testutil.CreateSubject(t, env.subjectRepo, "Biology", "BIO", "S.4", "Paper 1")

	t.Run("create with papers", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/subjects", token: token, wantCode: http.StatusCreated,
			body: []byte(`{"name":"Mathematics","code":" mtc ","class":"S.6","papers":[{"paper":"Paper 1"},{"paper":"Paper 2"}]}`),
		}
		rec := env.serve(tt)
		checkCodeAndData(t, tt, rec)
		var sub struct {
			Code   string `json:"code"`
			Papers []struct {
				Paper string `json:"paper"`
			} `json:"papers"`
		}
		decode(t, rec, &sub)
		assert.Equal(t, "MTC", sub.Code)
		assert.Len(t, sub.Papers, 2)
	})

	tests := []httpTest{
		{
			name: "create: invalid", method: http.MethodPost, path: "/subjects", body: []byte(`{"name":"Bio 2","code":" ","papers":[{"paper":""}]}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"code":"this field is required","class":"this field is required","papers[0].paper":"this field is required"}`),
		},
		{name: "filter by class", path: "/subjects?class=S.4", wantData: marchallList(t, bio)},
		{name: "retrieve", path: fmt.Sprintf("/subjects/%d", bio.ID), wantData: marchallObj(t, bio)},
		{name: "retrieve unknown", path: "/subjects/999", wantCode: http.StatusNotFound},
		{
			name: "add paper: unknown subject", method: http.MethodPost, path: "/subjectpapers",
			body: []byte(`{"subjectId":999,"paper":"Paper 3"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "add paper", method: http.MethodPost, path: "/subjectpapers",
			body: []byte(fmt.Sprintf(`{"subjectId":%d,"paper":"Paper 2"}`, bio.ID)), wantCode: http.StatusCreated,
		},
		{name: "papers of subject", path: fmt.Sprintf("/subjectpapers?subject=%d&search=paper", bio.ID), extra: 2},
		{name: "paper unknown", path: "/subjectpapers/999", wantCode: http.StatusNotFound},
		{
			name: "update", method: http.MethodPatch, path: fmt.Sprintf("/subjects/%d", bio.ID),
			body: []byte(`{"description":"Life sciences"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.token = token
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if n, ok := tt.extra.(int); ok {
				var papers []interface{}
				decode(t, rec, &papers)
				assert.Len(t, papers, n)
			}
		})
	}
}
