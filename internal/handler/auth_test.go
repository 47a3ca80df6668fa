package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/microblog/internal/auth"
)

func TestHandleRegister(t *testing.T) {
	t.Run("creates an account", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodPost, "/api/register", `{"username":"alice","password":"correct horse"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.Username)
		assert.Greater(t, resp.ID, int64(0))

		// The password hash must never appear in any response.
		assert.NotContains(t, rr.Body.String(), "password")
	})

	t.Run("duplicate username returns 409", func(t *testing.T) {
		api := newTestAPI(t)

		first := api.do(http.MethodPost, "/api/register", `{"username":"alice","password":"correct horse"}`)
		assert.Equal(t, http.StatusCreated, first.Code)

		second := api.do(http.MethodPost, "/api/register", `{"username":"alice","password":"another pass"}`)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Contains(t, second.Body.String(), "conflict")
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodPost, "/api/register", `{"username":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("short password returns 400", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodPost, "/api/register", `{"username":"alice","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("sets an HttpOnly session cookie", func(t *testing.T) {
		api := newTestAPI(t)
		api.do(http.MethodPost, "/api/register", `{"username":"alice","password":"correct horse"}`)

		rr := api.do(http.MethodPost, "/api/login", `{"username":"alice","password":"correct horse"}`)
		assert.Equal(t, http.StatusOK, rr.Code)

		var session *http.Cookie
		for _, c := range rr.Result().Cookies() {
			if c.Name == auth.SessionCookie {
				session = c
			}
		}
		if assert.NotNil(t, session, "expected a session cookie") {
			assert.True(t, session.HttpOnly)
			assert.NotEmpty(t, session.Value)
		}
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		api := newTestAPI(t)
		api.do(http.MethodPost, "/api/register", `{"username":"alice","password":"correct horse"}`)

		wrongPass := api.do(http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`)
		noSuchUser := api.do(http.MethodPost, "/api/login", `{"username":"mallory","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		assert.Equal(t, http.StatusUnauthorized, noSuchUser.Code)

		// Identical bodies: the response must not reveal which usernames exist.
		assert.Equal(t, wrongPass.Body.String(), noSuchUser.Body.String())
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("invalidates the session", func(t *testing.T) {
		api := newTestAPI(t)
		cookie := api.signup("alice", "correct horse")

		// Session works before logout.
		me := api.do(http.MethodGet, "/api/me", "", cookie)
		assert.Equal(t, http.StatusOK, me.Code)

		out := api.do(http.MethodPost, "/api/logout", "", cookie)
		assert.Equal(t, http.StatusNoContent, out.Code)

		// Same token is now rejected even though the JWT hasn't expired.
		meAfter := api.do(http.MethodGet, "/api/me", "", cookie)
		assert.Equal(t, http.StatusUnauthorized, meAfter.Code)
	})

	t.Run("is idempotent", func(t *testing.T) {
		api := newTestAPI(t)
		cookie := api.signup("alice", "correct horse")

		first := api.do(http.MethodPost, "/api/logout", "", cookie)
		second := api.do(http.MethodPost, "/api/logout", "", cookie)
		withoutCookie := api.do(http.MethodPost, "/api/logout", "")

		assert.Equal(t, http.StatusNoContent, first.Code)
		assert.Equal(t, http.StatusNoContent, second.Code)
		assert.Equal(t, http.StatusNoContent, withoutCookie.Code)
	})
}

func TestHandleMe(t *testing.T) {
	t.Run("returns the current user", func(t *testing.T) {
		api := newTestAPI(t)
		cookie := api.signup("alice", "correct horse")

		rr := api.do(http.MethodGet, "/api/me", "", cookie)
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			Username string `json:"username"`
		}
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "alice", resp.Username)
	})

	t.Run("requires a session", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodGet, "/api/me", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a garbage cookie", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodGet, "/api/me", "", &http.Cookie{
			Name:  auth.SessionCookie,
			Value: "not-a-real-token",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
