package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cloudflow/cloudflow/pkg/protocol"
)

func testAuth(t *testing.T) *Auth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return New("test-secret", "admin", string(hash), time.Hour)
}

func login(t *testing.T, a *Auth, username, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	body := strings.NewReader(`{"username":"` + username + `","password":"` + password + `"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	w := httptest.NewRecorder()
	a.HandleLogin(w, r)

	var resp protocol.LoginResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return w, resp.Token
}

func TestLoginAndMiddleware(t *testing.T) {
	a := testAuth(t)

	w, token := login(t, a, "admin", "hunter2")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	if token == "" {
		t.Fatal("no token issued")
	}

	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/entities", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("authorized request status = %d", rec.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := testAuth(t)

	if w, _ := login(t, a, "admin", "wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", w.Code)
	}
	if w, _ := login(t, a, "root", "hunter2"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong username status = %d", w.Code)
	}
}

func TestMiddlewareRejectsMissingAndBogusTokens(t *testing.T) {
	a := testAuth(t)
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without valid token")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d", rec.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not.a.jwt")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token status = %d", rec.Code)
	}
}

func TestMiddlewareAcceptsQueryToken(t *testing.T) {
	a := testAuth(t)
	_, token := login(t, a, "admin", "hunter2")

	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/v1/events?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("query token status = %d", rec.Code)
	}
}

func TestDisabledAuthPassesThrough(t *testing.T) {
	a := New("secret", "", "", time.Hour)
	if a.Enabled() {
		t.Fatal("auth should be disabled without credentials")
	}

	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("open mode status = %d", rec.Code)
	}

	// Login is a 404 when no credentials exist.
	if w, _ := login(t, a, "admin", "x"); w.Code != http.StatusNotFound {
		t.Errorf("login without config status = %d", w.Code)
	}
}
