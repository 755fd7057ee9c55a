package tests

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func indexNos(t *testing.T, data []byte) []string {
	var students []student.WithSchool
	decodeBytes(t, data, &students)
	nos := make([]string, 0, len(students))
	for _, s := range students {
		nos = append(nos, s.IndexNo)
	}
	return nos
}

func Test_studentApi_create(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	testutil.CreateStudent(t, env.studentRepo, sch.ID, "Amina", "Nakato", "U0001/001", "S.4", false)

	body := func(indexNo string, schoolID int) []byte {
		return marchallObj(t, student.NewStudent{
			FirstName: " Brian ", LastName: "Okello", Email: "BRIAN@students.test", Phone: "+256722222222",
			Gender: "Male", IndexNo: indexNo, Class: "S.6", SchoolID: schoolID,
		})
	}

	tests := []httpTest{
		{name: "auth required", body: body("U0001/002", sch.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "missing fields", token: token, body: []byte(`{"firstName":"  "}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"firstName":"this field is required","lastName":"this field is required","email":"this field is required",
				"phone":"this field is required","gender":"this field is required","indexNo":"this field is required",
				"class":"this field is required","schoolId":"this field is required"
			}`),
		},
		{
			name: "index taken", token: token, body: body("U0001/001", sch.ID), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"indexNo": student.ErrIndexNoExists.Error()}),
		},
		{
			name: "unknown school", token: token, body: body("U0001/002", 999), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"schoolId":"school 999 does not exist"}`),
		},
		{name: "created", token: token, body: body(" U0001/002 ", sch.ID), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/students"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var std student.Student
				decode(t, rec, &std)
				assert.NotZero(t, std.ID)
				assert.Equal(t, "Brian", std.FirstName)
				assert.Equal(t, "brian@students.test", std.Email)
				assert.Equal(t, student.GenderMale, std.Gender)
				assert.Equal(t, "U0001/002", std.IndexNo)
				assert.False(t, std.Paid)
			}
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)
	kla := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	gulu := testutil.CreateSchool(t, env.schoolRepo, "Gulu College")
	testutil.CreateStudent(t, env.studentRepo, kla.ID, "Amina", "Nakato", "K/001", "S.4", false)
	testutil.CreateStudent(t, env.studentRepo, kla.ID, "Brian", "Okello", "K/002", "S.6", true)
	testutil.CreateStudent(t, env.studentRepo, gulu.ID, "Christine", "Achieng", "G/001", "S.4", true)

	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "all", path: "/students", want: []string{"G/001", "K/001", "K/002"}},
		{name: "level", path: "/students?level=s.4", want: []string{"G/001", "K/001"}},
		{name: "school", path: fmt.Sprintf("/students?school=%d", kla.ID), want: []string{"K/001", "K/002"}},
		{name: "paid", path: "/students?paid=true", want: []string{"G/001", "K/002"}},
		{name: "unpaid", path: "/students?paid=false", want: []string{"K/001"}},
		{name: "search name", path: "/students?search=amina+nak", want: []string{"K/001"}},
		{name: "search index", path: "/students?search=g/", want: []string{"G/001"}},
		{name: "combined", path: fmt.Sprintf("/students?school=%d&level=S.4&paid=true", gulu.ID), want: []string{"G/001"}},
		{name: "no match", path: "/students?search=zzz", want: []string{}},
		{name: "ordering", path: "/students?ordering=-indexNo", want: []string{"K/002", "K/001", "G/001"}},
		{name: "unknown ordering ignored", path: "/students?ordering=password", want: []string{"G/001", "K/001", "K/002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(httpTest{path: tt.path, token: token})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, indexNos(t, rec.Body.Bytes()))
		})
	}
}

func Test_studentApi_detail(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	admin := testutil.CreateUser(t, env.usrRepo, "admin", "admin@matokeo.test", "", user.RoleAdmin, true)
	token, adminToken := env.getToken(t, clerk), env.getToken(t, admin)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	std := testutil.CreateStudent(t, env.studentRepo, sch.ID, "Amina", "Nakato", "K/001", "S.4", false)
	other := testutil.CreateStudent(t, env.studentRepo, sch.ID, "Brian", "Okello", "K/002", "S.4", false)
	path := fmt.Sprintf("/students/%d", std.ID)

	t.Run("retrieve", func(t *testing.T) {
		rec := env.serve(httpTest{path: path, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var detail student.Detail
		decode(t, rec, &detail)
		assert.Equal(t, std.IndexNo, detail.IndexNo)
		assert.Empty(t, detail.Results)
	})

	t.Run("retrieve with results", func(t *testing.T) {
		bio := testutil.CreateSubject(t, env.subjectRepo, "Biology", "BIO", "S.4", "Paper 1", "Paper 2")
		p1, p2 := bio.Papers[0].ID, bio.Papers[1].ID
		rec := env.serve(httpTest{
			method: http.MethodPost, path: "/results", token: token,
			body: []byte(fmt.Sprintf(`{"student":{"id":%d},"scores":[{"paper":%d,"mark":64},{"paper":%d,"mark":"71.5"}]}`, std.ID, p1, p2)),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = env.serve(httpTest{path: path, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var detail student.Detail
		decode(t, rec, &detail)
		assert.Equal(t, []student.DetailResult{
			{Subject: bio.ID, Paper: p1, Mark: 64},
			{Subject: bio.ID, Paper: p2, Mark: 71.5},
		}, detail.Results)

		// the lines feed back into the marks entry form
		edit := make([]string, 0, len(detail.Results))
		for _, r := range detail.Results {
			edit = append(edit, fmt.Sprintf(`{"subject":%d,"paper":%d,"mark":%v}`, r.Subject, r.Paper, r.Mark+1))
		}
		rec = env.serve(httpTest{
			method: http.MethodPost, path: "/results", token: token,
			body: []byte(fmt.Sprintf(`{"student":{"id":%d},"scores":[%s]}`, std.ID, strings.Join(edit, ","))),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	tests := []httpTest{
		{name: "retrieve unknown", path: "/students/999", token: token, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: student.ErrNotFound.Error()})},
		{
			name: "update: index of another student", method: http.MethodPut, path: path, token: token,
			body: marchallObj(t, student.NewStudent{
				FirstName: "Amina", LastName: "Nakato", Email: "amina@students.test", Phone: "+256700000001",
				Gender: student.GenderFemale, IndexNo: other.IndexNo, Class: "S.4", SchoolID: sch.ID,
			}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"indexNo": student.ErrIndexNoExists.Error()}),
		},
		{
			name: "update: unknown", method: http.MethodPut, path: "/students/999", token: token,
			body: []byte(`{}`), wantCode: http.StatusNotFound,
		},
		{
			name: "update", method: http.MethodPut, path: path, token: token,
			body: marchallObj(t, student.NewStudent{
				FirstName: "Amina", LastName: "Nakato Mirembe", Email: "amina@students.test", Phone: "+256700000001",
				Gender: student.GenderFemale, IndexNo: std.IndexNo, Class: "S.5", SchoolID: sch.ID,
			}),
		},
		{name: "delete: admin required", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusForbidden},
		{name: "delete", method: http.MethodDelete, path: path, token: adminToken, wantCode: http.StatusNoContent},
		{name: "deleted", path: path, token: token, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if tt.method == http.MethodPut && rec.Code == http.StatusOK {
				var updated student.Student
				decode(t, rec, &updated)
				assert.Equal(t, "Nakato Mirembe", updated.LastName)
				assert.Equal(t, "S.5", updated.Class)
				assert.Equal(t, std.IndexNo, updated.IndexNo)
			}
		})
	}
}

func Test_studentApi_report(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	admin := testutil.CreateUser(t, env.usrRepo, "admin", "admin@matokeo.test", "", user.RoleAdmin, true)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	std := testutil.CreateStudent(t, env.studentRepo, sch.ID, "Amina", "Nakato", "K/001", "S.4", true)

	t.Run("download", func(t *testing.T) {
		rec := env.serve(httpTest{path: fmt.Sprintf("/students/%d/report", std.ID), token: env.getToken(t, clerk)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="results-K-001.pdf"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
	})

	t.Run("send: admin required", func(t *testing.T) {
		rec := env.serve(httpTest{method: http.MethodPost, path: fmt.Sprintf("/students/%d/report/send", std.ID), token: env.getToken(t, clerk)})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, env.mailSvc.SentMessages())
	})

	t.Run("send", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: fmt.Sprintf("/students/%d/report/send", std.ID), token: env.getToken(t, admin),
			wantCode: http.StatusAccepted,
			wantData: marchallObj(t, map[string]string{"success": "The results of K/001 are being sent to K/001@students.test."}),
		}
		checkCodeAndData(t, tt, env.serve(tt))

		sent := env.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, std.Email, sent[0].To[0].Address)
		require.Len(t, sent[0].Attachments, 1)
		assert.Equal(t, "results-K-001.pdf", sent[0].Attachments[0].Filename)
		assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)
	})
}
