package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONRequest(method, target, token, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestCastVoteHandler(t *testing.T) {
	app, s, db := newTestServer(t)

	author := createTestUser(t, db, "author", "author@nyu.edu", "nyu")
	voter := createTestUser(t, db, "voter", "voter@nyu.edu", "nyu")
	post := &models.Post{Title: "t", Content: "c", Board: models.BoardFree, School: "nyu", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)

	token := authHeader(t, s, voter)

	// No token is rejected before any handler logic runs.
	resp, err := app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", "",
		`{"target_type":"post","target_id":1,"value":1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Upvote.
	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", token,
		`{"target_type":"post","target_id":1,"value":1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		MyVote int `json:"my_vote"`
		Counts struct {
			Up   int `json:"up"`
			Down int `json:"down"`
		} `json:"counts"`
		Author struct {
			NetUpvotes int    `json:"net_upvotes"`
			Tier       string `json:"tier"`
		} `json:"author"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, 1, result.MyVote)
	assert.Equal(t, 1, result.Counts.Up)
	assert.Equal(t, 1, result.Author.NetUpvotes)
	assert.Equal(t, "Bronze", result.Author.Tier)

	// Out-of-range value.
	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", token,
		`{"target_type":"post","target_id":1,"value":5}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown target.
	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", token,
		`{"target_type":"post","target_id":999,"value":1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// A token scoped to another school cannot touch this tenant's routes.
	outsider := createTestUser(t, db, "outsider", "o@columbia.edu", "columbia")
	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", authHeader(t, s, outsider),
		`{"target_type":"post","target_id":1,"value":1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetVotesHandler(t *testing.T) {
	app, s, db := newTestServer(t)

	author := createTestUser(t, db, "author", "author@nyu.edu", "nyu")
	voter := createTestUser(t, db, "voter", "voter@nyu.edu", "nyu")
	postA := &models.Post{Title: "a", Content: "c", Board: models.BoardFree, School: "nyu", UserID: author.ID}
	postB := &models.Post{Title: "b", Content: "c", Board: models.BoardFree, School: "nyu", UserID: author.ID}
	require.NoError(t, db.Create(postA).Error)
	require.NoError(t, db.Create(postB).Error)

	token := authHeader(t, s, voter)

	resp, err := app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", token,
		`{"target_type":"post","target_id":1,"value":-1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/votes?target_type=post&ids=1,2", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Votes []struct {
			TargetID uint `json:"target_id"`
			Counts   struct {
				Up   int `json:"up"`
				Down int `json:"down"`
			} `json:"counts"`
			MyVote int `json:"my_vote"`
		} `json:"votes"`
	}
	decodeBody(t, resp, &payload)
	require.Len(t, payload.Votes, 2)
	assert.Equal(t, 1, payload.Votes[0].Counts.Down)
	assert.Equal(t, -1, payload.Votes[0].MyVote)
	assert.Equal(t, 0, payload.Votes[1].Counts.Up)
	assert.Equal(t, 0, payload.Votes[1].MyVote)

	// Missing ids parameter.
	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/votes?target_type=post", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Malformed id.
	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/votes?target_type=post&ids=1,x", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUserReputationHandler(t *testing.T) {
	app, s, db := newTestServer(t)

	author := createTestUser(t, db, "author", "author@nyu.edu", "nyu")
	voter := createTestUser(t, db, "voter", "voter@nyu.edu", "nyu")
	post := &models.Post{Title: "t", Content: "c", Board: models.BoardFree, School: "nyu", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)

	token := authHeader(t, s, voter)
	resp, err := app.Test(newJSONRequest(http.MethodPut, "/api/nyu/votes", token,
		`{"target_type":"post","target_id":1,"value":1}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/users/1/reputation", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rep struct {
		UserID     uint   `json:"user_id"`
		NetUpvotes int    `json:"net_upvotes"`
		Tier       string `json:"tier"`
	}
	decodeBody(t, resp, &rep)
	assert.Equal(t, author.ID, rep.UserID)
	assert.Equal(t, 1, rep.NetUpvotes)
	assert.Equal(t, "Bronze", rep.Tier)
}
