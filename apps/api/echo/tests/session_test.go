package tests

import (
	"context"
	"net/http"
	"net/mail"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/matokeo/apps/api/echo"
	"github.com/trezcool/matokeo/core/user"
	testutil "github.com/trezcool/matokeo/tests"
)

func Test_sessionApi_login(t *testing.T) {
	env := setup(t)
	admin := testutil.CreateUser(t, env.usrRepo, "admin", "admin@matokeo.test", "", user.RoleAdmin, true)
	testutil.CreateUser(t, env.usrRepo, "naughty", "naughty@matokeo.test", "", "", false)

	body := func(login, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: login, Password: pwd})
	}
	invalidCreds := marchallObj(t, httpErr{Error: "invalid credentials"})

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"this field is required","password":"this field is required"}`),
		},
		{name: "unknown user", body: body("nobody@matokeo.test", "S3cur3!Pa55"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		{name: "wrong password", body: body("admin@matokeo.test", "wrong"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		{
			name: "deactivated", body: body("naughty", "S3cur3!Pa55"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "by email", body: body(" ADMIN@matokeo.test ", "S3cur3!Pa55")},
		{name: "by username", body: body("admin", "S3cur3!Pa55")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/auth"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var resp LoginResponse
				decode(t, rec, &resp)
				assert.NotEmpty(t, resp.AccessToken)
				assert.Equal(t, SessionUser{ID: admin.ID, Email: admin.Email, Name: admin.Name(), Role: user.RoleAdmin}, resp.User)

				// the token grants access to protected endpoints
				req, rec := newAuthRequest(http.MethodGet, "/schools", resp.AccessToken)
				env.app.ServeHTTP(rec, req)
				assert.Equal(t, http.StatusOK, rec.Code)
			}
		})
	}
}

func Test_sessionApi_refresh(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	token := env.getToken(t, usr)

	claims := GetUserClaims(env.conf, usr)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expiredToken, err := GenerateToken(env.conf, claims)
	require.NoError(t, err)

	otherConf := *env.conf
	otherConf.SecretKey = "not-the-secret"
	forgedToken, err := GenerateToken(&otherConf, GetUserClaims(&otherConf, usr))
	require.NoError(t, err)

	invalidJWT := marchallObj(t, httpErr{Error: "invalid or expired jwt"})

	tests := []httpTest{
		{name: "token required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "invalid token", token: "not.a.jwt", wantCode: http.StatusUnauthorized, wantData: invalidJWT},
		{name: "expired token", token: expiredToken, wantCode: http.StatusUnauthorized, wantData: invalidJWT},
		{name: "forged token", token: forgedToken, wantCode: http.StatusUnauthorized, wantData: invalidJWT},
		{name: "refreshed", token: token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/auth/refresh"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var resp LoginResponse
				decode(t, rec, &resp)
				require.NotEmpty(t, resp.AccessToken)
				assert.Equal(t, usr.ID, resp.User.ID)
			}
		})
	}
}

var resetLinkRegex = regexp.MustCompile(`/password-reset/([A-Za-z0-9_-]+)/([A-Za-z0-9_-]+)`)

func Test_sessionApi_requestPasswordReset(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	testutil.CreateUser(t, env.usrRepo, "naughty", "naughty@matokeo.test", "", "", false)

	successData := marchallObj(t, SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
	}
	tests := []httpTest{
		{name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"email":"this field is required"}`)},
		{
			name: "invalid email", body: marchallObj(t, PasswordResetRequest{Email: "lol"}), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"email must be a valid email address"}`),
		},
		{name: "unknown email", body: marchallObj(t, PasswordResetRequest{Email: "lol@matokeo.test"}), wantData: successData, extra: extraTest{}},
		{name: "deactivated user", body: marchallObj(t, PasswordResetRequest{Email: "naughty@matokeo.test"}), wantData: successData, extra: extraTest{}},
		{
			name: "known email", body: marchallObj(t, PasswordResetRequest{Email: " Clerk@Matokeo.test "}), wantData: successData,
			extra: extraTest{emailSent: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentBefore := len(env.mailSvc.SentMessages())
			tt.method, tt.path = http.MethodPost, "/auth/password-reset"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			extra, ok := tt.extra.(extraTest)
			if !ok {
				return
			}
			sent := env.mailSvc.SentMessages()[sentBefore:]
			if !extra.emailSent {
				assert.Empty(t, sent)
				return
			}
			require.Len(t, sent, 1)
			msg := sent[0]
			assert.Equal(t, []mail.Address{{Name: usr.Name(), Address: usr.Email}}, msg.To)
			assert.Contains(t, msg.TextContent, usr.Name())
			assert.Regexp(t, resetLinkRegex, msg.TextContent)
			assert.Regexp(t, resetLinkRegex, msg.HTMLContent)

			link := resetLinkRegex.FindStringSubmatch(msg.TextContent)
			require.Len(t, link, 3)
			assert.Equal(t, user.EncodeUID(usr), link[1])
		})
	}
}

func Test_sessionApi_confirmPasswordReset(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "clerk", "clerk@matokeo.test", "", "", true)
	uid := user.EncodeUID(usr)
	token, err := user.MakeToken(usr, env.conf.SecretKey)
	require.NoError(t, err)

	// generate an expired token
	dayLate := env.conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(usr, env.conf.SecretKey)
	user.NowFunc = time.Now // reset
	require.NoError(t, err)

	newPwd := "N3w!Pa55word"
	body := func(uid, token string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd})
	}
	reqMsg := "this field is required"
	invalidLink := marchallObj(t, map[string]string{"token": "the password reset link is invalid or has expired"})

	tests := []httpTest{
		{
			name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{UID: reqMsg, Token: reqMsg, Password: reqMsg, PasswordConfirm: reqMsg}),
		},
		{
			name: "weak password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: []byte(`{"password":"password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}`),
		},
		{
			name: "passwordConfirm mismatch", wantCode: http.StatusBadRequest,
			body:  marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: "lol"}),
			extra: []string{"passwordConfirm"},
		},
		{name: "invalid uid", body: body("lol!", token), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{name: "unknown user", body: body(user.EncodeUID(user.User{ID: 999}), token), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{name: "tampered token", body: body(uid, token+"x"), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{name: "expired token", body: body(uid, expiredToken), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{
			name: "password reset", body: body(uid, token),
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{name: "token already used", body: body(uid, token), wantCode: http.StatusBadRequest, wantData: invalidLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/auth/password-reset-confirm"
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if fields, ok := tt.extra.([]string); ok {
				var errs map[string]string
				decode(t, rec, &errs)
				for _, fld := range fields {
					assert.Contains(t, errs, fld)
				}
			}

			refreshed, err := env.usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			if tt.name == "password reset" {
				assert.NoError(t, refreshed.CheckPassword(newPwd))
			}
		})
	}

	// the new password logs the user in
	tt := httpTest{method: http.MethodPost, path: "/auth", body: marchallObj(t, LoginRequest{Email: usr.Email, Password: newPwd})}
	checkCodeAndData(t, tt, env.serve(tt))
}
