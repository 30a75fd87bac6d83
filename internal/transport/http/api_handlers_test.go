package http

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodPost, "/api/register", `{"username":"alice","password":"password123"}`, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created RegisterResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if created.ID == "" || created.Username != "alice" {
		t.Fatalf("unexpected register response: %+v", created)
	}

	resp = env.do(http.MethodPost, "/api/register", `{"username":"alice","password":"password123"}`, "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}

	resp = env.do(http.MethodPost, "/api/register", `{"username":"bob","password":"123"}`, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for short password, got %d", resp.Code)
	}

	resp = env.do(http.MethodPost, "/api/register", `{"username":`, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed body, got %d", resp.Code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodPost, "/api/register", `{"username":"alice","password":"password123"}`, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.Code)
	}

	resp = env.do(http.MethodPost, "/api/login", `{"username":"alice","password":"password123"}`, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var login AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if login.Token == "" || login.Username != "alice" {
		t.Fatalf("unexpected login response: %+v", login)
	}

	claims, err := env.auth.ValidateToken(login.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Username != "alice" || claims.Subject == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	resp = env.do(http.MethodPost, "/api/login", `{"username":"alice","password":"wrong-pass"}`, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}

	resp = env.do(http.MethodPost, "/api/login", `{"username":"nobody","password":"password123"}`, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for unknown user, got %d", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(http.MethodOptions, "/api/login", "", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
