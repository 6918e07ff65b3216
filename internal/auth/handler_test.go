package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postLogin(t *testing.T, h *Handler, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestHandler_Login(t *testing.T) {
	service, _, clk := newTestService(t)
	clk.Advance(90 * time.Second)
	h := NewHandler(service)

	rec := postLogin(t, h, "john", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	var body AccessToken
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "bearer", body.TokenType)
	assert.NotEmpty(t, body.AccessToken)

	cookie := findCookie(rec.Result(), AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, body.AccessToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, issuedAt.Add(90*time.Second+30*time.Minute).Equal(cookie.Expires), "cookie expiry follows the token exp: %s", cookie.Expires)
}

func TestHandler_Login_FailuresLookAlike(t *testing.T) {
	service, _, _ := newTestService(t)
	h := NewHandler(service)

	missing := postLogin(t, h, "nosuchuser", "anything")
	wrong := postLogin(t, h, "john", "wrongpassword")

	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, missing.Body.String(), wrong.Body.String())
	assert.JSONEq(t, `{"detail":"Incorrect username or password"}`, wrong.Body.String())
	assert.Nil(t, findCookie(missing.Result(), AccessTokenCookie))
}

func TestHandler_Me(t *testing.T) {
	service, _, _ := newTestService(t)
	h := NewHandler(service)

	token, err := service.Login(t.Context(), "john", "secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "john", body["username"])
	assert.Equal(t, "john@email.com", body["email"])
	assert.EqualValues(t, 1, body["user_id"])
}

func TestHandler_Me_Unauthorized(t *testing.T) {
	service, _, _ := newTestService(t)
	h := NewHandler(service)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestHandler_Register(t *testing.T) {
	service, _, _ := newTestService(t)
	h := NewHandler(service)

	register := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Register(rec, req)
		return rec
	}

	rec := register(`{"username":"alice","email":"alice@example.com","password":"long-enough-password"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
	assert.NotContains(t, rec.Body.String(), "long-enough-password")

	assert.Equal(t, http.StatusConflict, register(`{"username":"alice","email":"a@example.com","password":"long-enough-password"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"username":"al","email":"a@example.com","password":"long-enough-password"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"username":"bob","unknown":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`not json`).Code)
}

func TestHandler_Logout(t *testing.T) {
	service, _, _ := newTestService(t)
	h := NewHandler(service)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookie := findCookie(rec.Result(), AccessTokenCookie)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)
}
