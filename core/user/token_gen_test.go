package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeVerifyToken(t *testing.T) {
	secretKey := "secret"
	timeout := 3 * 24 * time.Hour

	now := time.Now()
	usr := User{
		ID:        1,
		Username:  "t",
		Email:     "t@matokeo.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: &now,
	}
	require.NoError(t, usr.SetPassword("pwd"))

	validToken, err := MakeToken(usr, secretKey)
	require.NoError(t, err)

	// generate an expired token
	dayLate := timeout + (24 * time.Hour)
	NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := MakeToken(usr, secretKey)
	NowFunc = time.Now // reset
	require.NoError(t, err)

	loggedIn := usr
	later := now.Add(time.Minute)
	loggedIn.LastLogin = &later

	tests := []struct {
		name      string
		usr       User
		token     string
		secretKey string
		wantErr   error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "other secret key", usr: usr, token: validToken, secretKey: "other", wantErr: errInvalidToken},
		{name: "logged in since", usr: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := tt.secretKey
			if key == "" {
				key = secretKey
			}
			assert.Equal(t, tt.wantErr, verifyToken(tt.usr, tt.token, key, timeout))
		})
	}
}

func TestEncodeUID(t *testing.T) {
	uid := EncodeUID(User{ID: 42})
	id, err := decodeUID(uid)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = decodeUID("lol!")
	assert.Error(t, err)
}
