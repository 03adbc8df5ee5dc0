package rest

import (
	"errors"
	"net/http"
	"propertify-view-service/internal/core/domain"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestClientID_IsIssuedWhenMissing(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/session", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err := uuid.Parse(resp.Header.Get("X-Client-ID"))
	assert.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	resp = env.do(t, http.MethodGet, "/api/v1/session", clientA, "")
	assert.Equal(t, clientA, resp.Header.Get("X-Client-ID"))
}

func TestSession_SignInSignOut(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/session", clientA, "")
	snap := decode[domain.SessionSnapshot](t, resp)
	assert.False(t, snap.Authenticated)
	assert.Equal(t, domain.ThemeLight, snap.Theme)

	resp = env.do(t, http.MethodPost, "/api/v1/session/token", clientA, `{"token":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/session/token", clientA, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/session/token", clientA, `{"token":"alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decode[domain.SessionSnapshot](t, resp)
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "u-alice", snap.User.UserID)

	// Другой клиент не видит чужой вход
	resp = env.do(t, http.MethodGet, "/api/v1/session", clientB, "")
	assert.False(t, decode[domain.SessionSnapshot](t, resp).Authenticated)

	resp = env.do(t, http.MethodDelete, "/api/v1/session/token", clientA, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decode[domain.SessionSnapshot](t, resp)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
}

func TestSession_Preferences(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/v1/session/preferences", clientA, `{"theme":"dark","menuCollapsed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[domain.SessionSnapshot](t, resp)
	assert.Equal(t, domain.ThemeDark, snap.Theme)
	assert.True(t, snap.MenuCollapsed)

	resp = env.do(t, http.MethodPut, "/api/v1/session/preferences", clientA, `{"menuCollapsed":false}`)
	snap = decode[domain.SessionSnapshot](t, resp)
	assert.Equal(t, domain.ThemeDark, snap.Theme)
	assert.False(t, snap.MenuCollapsed)

	resp = env.do(t, http.MethodPut, "/api/v1/session/preferences", clientA, `{"theme":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComments_Thread(t *testing.T) {
	env := newTestEnv(t)
	env.thread.nodes = []domain.CommentNode{
		{Comment: domain.Comment{ID: "c1", Text: "root"}, Depth: 0},
		{Comment: domain.Comment{ID: "c2", ParentID: "c1", Text: "reply"}, Depth: 1},
	}

	resp := env.do(t, http.MethodGet, "/api/v1/posts/p1/comments", clientA, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[CommentThreadResponse](t, resp)
	assert.Equal(t, "p1", out.PostID)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 1, out.Comments[1].Depth)
}

func TestComments_APIErrorStatusIsPassedThrough(t *testing.T) {
	env := newTestEnv(t)
	env.thread.err = domain.NewAPIError(http.StatusNotFound, "Post not found")

	resp := env.do(t, http.MethodGet, "/api/v1/posts/missing/comments", clientA, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Post not found", decode[map[string]string](t, resp)["error"])
}

func TestComments_UnexpectedErrorIsHidden(t *testing.T) {
	env := newTestEnv(t)
	env.thread.err = errors.New("dial tcp: connection refused")

	resp := env.do(t, http.MethodGet, "/api/v1/posts/p1/comments", clientA, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decode[map[string]string](t, resp)["error"])
}
