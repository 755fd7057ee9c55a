package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/matokeo/apps/api/echo"
	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/dashboard"
	"github.com/trezcool/matokeo/core/grading"
	"github.com/trezcool/matokeo/core/payment"
	"github.com/trezcool/matokeo/core/report"
	"github.com/trezcool/matokeo/core/result"
	"github.com/trezcool/matokeo/core/school"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/subject"
	"github.com/trezcool/matokeo/core/user"
	emailsvc "github.com/trezcool/matokeo/services/email"
	logsvc "github.com/trezcool/matokeo/services/logger"
	paymentsvc "github.com/trezcool/matokeo/services/payment"
	sqlxrepos "github.com/trezcool/matokeo/storage/database/sqlx"
	testutil "github.com/trezcool/matokeo/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testEnv is a server backed by a fresh in-memory database.
type testEnv struct {
	app     *Server
	conf    *core.Config
	mailSvc *emailsvc.ConsoleServiceMock

	usrRepo     user.Repository
	schoolRepo  school.Repository
	studentRepo student.Repository
	subjectRepo subject.Repository
	paymentRepo payment.Repository
	paymentSvc  *payment.Service
}

func setup(t *testing.T) *testEnv {
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	env := &testEnv{
		conf:        conf,
		mailSvc:     emailsvc.NewConsoleServiceMock(conf, logger),
		usrRepo:     sqlxrepos.NewUserRepository(db),
		schoolRepo:  sqlxrepos.NewSchoolRepository(db),
		studentRepo: sqlxrepos.NewStudentRepository(db),
		subjectRepo: sqlxrepos.NewSubjectRepository(db),
		paymentRepo: sqlxrepos.NewPaymentRepository(db),
	}

	// set up services
	usrSvc := user.NewService(conf, env.usrRepo, env.mailSvc)
	scaleSvc := grading.NewService(db, sqlxrepos.NewScaleRepository(db))
	schoolSvc := school.NewService(env.schoolRepo)
	subjectSvc := subject.NewService(db, env.subjectRepo)
	studentSvc := student.NewService(env.studentRepo, schoolSvc)
	resultSvc := result.NewService(conf, db, sqlxrepos.NewResultRepository(db), studentSvc, subjectSvc, scaleSvc)
	env.paymentSvc = payment.NewService(conf, db, env.paymentRepo, paymentsvc.NewProvider(conf), studentSvc)
	reportSvc := report.NewService(conf, studentSvc, resultSvc, env.mailSvc)
	testutil.SeedScales(t, scaleSvc)

	// set up server
	env.app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		ScaleSvc:       scaleSvc,
		SchoolSvc:      schoolSvc,
		SubjectSvc:     subjectSvc,
		StudentSvc:     studentSvc,
		ResultSvc:      resultSvc,
		PaymentSvc:     env.paymentSvc,
		ReportSvc:      reportSvc,
		DashboardSvc:   dashboard.NewService(sqlxrepos.NewDashboardRepository(db)),
	})
	return env
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) serve(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(env.conf, GetUserClaims(env.conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, expected, actual []byte) bool {
	var exp, act interface{}
	if err := json.Unmarshal(expected, &exp); err != nil {
		t.Errorf("jsonBytesEqual(): expected: %v", err)
		return false
	}
	if err := json.Unmarshal(actual, &act); err != nil {
		t.Errorf("jsonBytesEqual(): actual %q: %v", actual, err)
		return false
	}
	return assert.Equal(t, exp, act)
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		jsonBytesEqual(t, tt.wantData, rec.Body.Bytes())
	}
}

// decode unmarshals the response body into v.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	decodeBytes(t, rec.Body.Bytes(), v)
}

func decodeBytes(t *testing.T, data []byte, v interface{}) {
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode(%q): %v", data, err)
	}
}
