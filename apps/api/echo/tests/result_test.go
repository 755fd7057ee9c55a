package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/result"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_resultApi_record(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	std := testutil.CreateStudent(t, env.studentRepo, sch.ID, "Amina", "Nakato", "U0001/001", "S.4", false)
	math := testutil.CreateSubject(t, env.subjectRepo, "Mathematics", "MTC", "S.4", "Paper 1", "Paper 2")
	eng := testutil.CreateSubject(t, env.subjectRepo, "English", "ENG", "S.4", "Paper 1")
	p1, p2, engP1 := math.Papers[0].ID, math.Papers[1].ID, eng.Papers[0].ID

	body := func(studentID int, scores string) []byte {
		return []byte(fmt.Sprintf(`{"student":{"id":%d},"scores":[%s]}`, studentID, scores))
	}

	tests := []httpTest{
		{name: "auth required", body: body(std.ID, `{"paper":1,"mark":50}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "no scores", token: token, body: body(std.ID, ``), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"scores":"scores must contain at least 1 item"}`),
		},
		{
			name: "mark not a number", token: token, body: body(std.ID, fmt.Sprintf(`{"paper":%d,"mark":"eighty"}`, p1)),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "mark must be a number"}),
		},
		{
			name: "mark NaN", token: token, body: body(std.ID, fmt.Sprintf(`{"paper":%d,"mark":"NaN"}`, p1)),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "mark must be a number"}),
		},
		{
			name: "mark infinite", token: token, body: body(std.ID, fmt.Sprintf(`{"paper":%d,"mark":"+Inf"}`, p1)),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "mark must be a number"}),
		},
		{
			name: "mark out of bounds", token: token, body: body(std.ID, fmt.Sprintf(`{"paper":%d,"mark":101}`, p1)),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"scores[0].mark":"mark must be between 0 and 100"}`),
		},
		{
			name: "duplicate paper", token: token, body: body(std.ID, fmt.Sprintf(`{"paper":%d,"mark":40},{"paper":%d,"mark":60}`, p1, p1)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"scores[1].paper": fmt.Sprintf("paper %d is already scored by scores[0]", p1)}),
		},
		{
			name: "unknown student", token: token, body: body(999, fmt.Sprintf(`{"paper":%d,"mark":60}`, p1)),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"student":"student 999 does not exist"}`),
		},
		{
			name: "unknown paper", token: token, body: body(std.ID, `{"paper":999,"mark":60}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"scores[0].paper":"subject paper 999 does not exist"}`),
		},
		{
			name: "paper of another subject", token: token, body: body(std.ID, fmt.Sprintf(`{"subject":%d,"paper":%d,"mark":60}`, eng.ID, p1)),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"scores[0].paper": fmt.Sprintf("subject paper %d does not belong to subject %d", p1, eng.ID)}),
		},
		{
			name: "recorded", token: token, wantCode: http.StatusCreated,
			body: body(std.ID, fmt.Sprintf(`{"subject":%d,"paper":%d,"mark":85},{"paper":%d,"mark":"72.5"},{"paper":%d,"mark":49}`, math.ID, p1, p2, engP1)),
		},
		{
			name: "latest mark wins", token: token, wantCode: http.StatusCreated,
			body: body(std.ID, fmt.Sprintf(`{"paper":%d,"mark":59.99}`, engP1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/results"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusCreated {
				var entries []result.Entry
				decode(t, rec, &entries)
				for _, e := range entries {
					assert.Equal(t, std.ID, e.StudentID)
					assert.Equal(t, clerk.ID, e.AddedBy)
				}
			}
		})
	}

	// results
	rec := env.serve(httpTest{path: fmt.Sprintf("/results?studentId=%d", std.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res result.StudentResults
	decode(t, rec, &res)
	assert.Equal(t, std.ID, res.Student.ID)
	marks := make(map[int]float64, len(res.Result))
	for _, item := range res.Result {
		marks[item.SubjectPaper.ID] = item.Result
	}
	assert.Equal(t, map[int]float64{p1: 85, p2: 72.5, engP1: 59.99}, marks)

	// summary
	rec = env.serve(httpTest{path: fmt.Sprintf("/students/%d/summary", std.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sum result.Summary
	decode(t, rec, &sum)
	assert.InDelta(t, 217.49, sum.Total, 1e-9)
	assert.InDelta(t, 72.4966, sum.Average, 1e-4)
	assert.EqualValues(t, "B", sum.OverallGrade)
	grades := make(map[string]string, len(sum.Lines))
	for _, l := range sum.Lines {
		grades[l.Subject+" "+l.Paper] = l.Grade.String()
	}
	assert.Equal(t, map[string]string{"Mathematics Paper 1": "A", "Mathematics Paper 2": "B", "English Paper 1": "D"}, grades)
}

func Test_resultApi_query(t *testing.T) {
	env := setup(t)
	clerk := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, clerk)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Kampala High")
	std := testutil.CreateStudent(t, env.studentRepo, sch.ID, "Amina", "Nakato", "U0001/001", "S.4", false)

	tests := []httpTest{
		{name: "auth required", path: "/results", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "student required", path: "/results", token: token, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"studentId":"a valid student id is required"}`),
		},
		{
			name: "bad student", path: "/results?studentId=abc", token: token, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"studentId":"a valid student id is required"}`),
		},
		{name: "unknown student", path: "/results?studentId=999", token: token, wantCode: http.StatusNotFound},
		{name: "no results", path: fmt.Sprintf("/results?studentId=%d", std.ID), token: token, extra: std.ID},
		{
			name: "no summary yet", path: fmt.Sprintf("/students/%d/summary", std.ID), token: token, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "student U0001/001 has no results yet"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if id, ok := tt.extra.(int); ok {
				var res result.StudentResults
				decode(t, rec, &res)
				assert.Equal(t, id, res.Student.ID)
				assert.Empty(t, res.Result)
			}
		})
	}
}
