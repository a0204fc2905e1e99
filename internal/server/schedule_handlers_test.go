package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetScheduleHandler(t *testing.T) {
	app, s, db := newTestServer(t)

	alice := createTestUser(t, db, "alice", "alice@nyu.edu", "nyu")
	token := authHeader(t, s, alice)

	resp, err := app.Test(newJSONRequest(http.MethodPut, "/api/nyu/schedules/2026-fall", token,
		`{"slots":[{"day":"MON","start":"09:00","end":"10:30"},{"day":"WED","start":"14:00","end":"16:00"}]}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/schedules/2026-fall", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Email string `json:"email"`
		Term  string `json:"term"`
		Slots []struct {
			Day   string `json:"day"`
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"slots"`
	}
	decodeBody(t, resp, &doc)
	assert.Equal(t, "alice@nyu.edu", doc.Email)
	assert.Equal(t, "2026-fall", doc.Term)
	assert.Len(t, doc.Slots, 2)

	// A second save replaces, not appends.
	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/schedules/2026-fall", token,
		`{"slots":[{"day":"FRI","start":"10:00","end":"11:00"}]}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/schedules/2026-fall", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	decodeBody(t, resp, &doc)
	require.Len(t, doc.Slots, 1)
	assert.Equal(t, "FRI", doc.Slots[0].Day)

	// Invalid slot payloads never persist.
	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/schedules/2026-fall", token,
		`{"slots":[{"day":"MON","start":"typo","end":"10:00"}]}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown term has no schedule.
	resp, err = app.Test(newJSONRequest(http.MethodGet, "/api/nyu/schedules/1999-fall", token, ""))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMatchSchedulesHandler(t *testing.T) {
	app, s, db := newTestServer(t)

	alice := createTestUser(t, db, "alice", "alice@nyu.edu", "nyu")
	bob := createTestUser(t, db, "bob", "bob@nyu.edu", "nyu")
	createTestUser(t, db, "ghost", "ghost@nyu.edu", "nyu") // account, no schedule
	createTestUser(t, db, "carol", "carol@columbia.edu", "columbia")

	aliceToken := authHeader(t, s, alice)
	bobToken := authHeader(t, s, bob)

	resp, err := app.Test(newJSONRequest(http.MethodPut, "/api/nyu/schedules/2026-fall", aliceToken,
		`{"slots":[{"day":"MON","start":"09:00","end":"10:30"}]}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(newJSONRequest(http.MethodPut, "/api/nyu/schedules/2026-fall", bobToken,
		`{"slots":[{"day":"MON","start":"09:30","end":"11:00"}]}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Common free windows for the pair.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/nyu/schedules/2026-fall/match", aliceToken,
		`{"members":["alice@nyu.edu","bob@nyu.edu","ghost@nyu.edu"],"min_minutes":60}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Windows []struct {
			Day   string `json:"day"`
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"windows"`
		Members []string `json:"members"`
		Missing []string `json:"missing"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, []string{"ghost@nyu.edu"}, result.Missing)

	var monday []string
	for _, w := range result.Windows {
		if w.Day == "MON" {
			monday = append(monday, w.Start+"-"+w.End)
		}
	}
	assert.Equal(t, []string{"00:00-09:00", "11:00-24:00"}, monday)

	// The caller is always part of the group: even when the body omits bob,
	// his busy morning shapes the result.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/nyu/schedules/2026-fall/match", bobToken,
		`{"members":["alice@nyu.edu"],"min_minutes":60}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &result)
	assert.Contains(t, result.Members, "bob@nyu.edu")
	monday = monday[:0]
	for _, w := range result.Windows {
		if w.Day == "MON" {
			monday = append(monday, w.Start+"-"+w.End)
		}
	}
	assert.Equal(t, []string{"00:00-09:00", "11:00-24:00"}, monday)

	// An email with no account fails the whole request.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/nyu/schedules/2026-fall/match", aliceToken,
		`{"members":["nobody@nyu.edu"],"min_minutes":30}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var unknownResp struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &unknownResp)
	assert.Contains(t, unknownResp.Error, "nobody@nyu.edu")

	// A member from another school fails the whole request.
	resp, err = app.Test(newJSONRequest(http.MethodPost, "/api/nyu/schedules/2026-fall/match", aliceToken,
		`{"members":["alice@nyu.edu","carol@columbia.edu"],"min_minutes":30}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &errResp)
	assert.Contains(t, errResp.Error, "carol@columbia.edu")
}
