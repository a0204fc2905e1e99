package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	app, _, _ := newTestServer(t)

	// Weak password rejected.
	resp, err := app.Test(newJSONRequest(http.MethodPost, "/api/auth/signup", "",
		`{"nickname":"dana","email":"dana@nyu.edu","password":"short","school":"nyu"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Successful signup returns a token bound to the school.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/auth/signup", "",
		`{"nickname":"dana","email":"dana@nyu.edu","password":"Str0ng&Secure11","school":"nyu"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var signup struct {
		Token string `json:"token"`
		User  struct {
			ID     uint   `json:"id"`
			School string `json:"school"`
			Tier   string `json:"tier"`
		} `json:"user"`
	}
	decodeBody(t, resp, &signup)
	require.NotEmpty(t, signup.Token)
	assert.Equal(t, "nyu", signup.User.School)

	// Duplicate email conflicts.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/auth/signup", "",
		`{"nickname":"dana2","email":"dana@nyu.edu","password":"Str0ng&Secure11","school":"nyu"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Login with the right password.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/auth/login", "",
		`{"email":"dana@nyu.edu","password":"Str0ng&Secure11"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Wrong password.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/auth/login", "",
		`{"email":"dana@nyu.edu","password":"WrongPassword99!"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The issued token works against school-scoped routes.
	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/posts/", "Bearer "+signup.Token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// But not against another school.
	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/columbia/posts/", "Bearer "+signup.Token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
