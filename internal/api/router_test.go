package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/identity-platform/auth-service/internal/core/domain"
	"github.com/identity-platform/auth-service/internal/core/service"
	"github.com/identity-platform/auth-service/internal/infrastructure/crypto"
)

// memoryUserRepo is an in-memory credential store for end-to-end tests.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "User", Field: "username", Value: username}
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *memoryUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) ExistsByPhoneNumber(_ context.Context, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	clone := *user
	clone.ID = fmt.Sprintf("id-%d", r.seq)
	r.users[clone.Username] = &clone
	out := clone
	return &out, nil
}

func (r *memoryUserRepo) UpdateRole(_ context.Context, username string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return &domain.NotFoundError{Resource: "User", Field: "username", Value: username}
	}
	u.Role = role
	return nil
}

// memoryRevoker is an in-memory revocation store.
type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemoryRevoker() *memoryRevoker {
	return &memoryRevoker{revoked: make(map[string]bool)}
}

func (s *memoryRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = true
	return nil
}

func (s *memoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[jti], nil
}

type testEnv struct {
	router  http.Handler
	repo    *memoryUserRepo
	tokens  *service.TokenService
	revoker *memoryRevoker
}

func newTestEnv(t *testing.T, useDatabase bool) *testEnv {
	t.Helper()
	repo := newMemoryUserRepo()
	revoker := newMemoryRevoker()
	tokens := service.NewTokenService("test-secret", "auth-service", time.Hour)

	e := NewRouter(Dependencies{
		Log:         zerolog.Nop(),
		Users:       repo,
		Hasher:      crypto.NewBcryptHasher(4),
		Tokens:      tokens,
		Revoker:     revoker,
		UseDatabase: useDatabase,
		Registry:    prometheus.NewRegistry(),
	})
	return &testEnv{router: e, repo: repo, tokens: tokens, revoker: revoker}
}

type envelope struct {
	Status  int               `json:"status"`
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var resp envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid envelope %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func (env *testEnv) register(t *testing.T, username, password string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@example.com","password":%q}`, username, username, password)
	code, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	if code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", username, code, resp.Message)
	}
}

func (env *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	code, resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
	if code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", username, code, resp.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("no token in login response: %s", resp.Data)
	}
	return data.Token
}

func TestEndToEnd_RegisterLoginAndGatedRoute(t *testing.T) {
	env := newTestEnv(t, false)

	env.register(t, "alice", "Password@123")
	token := env.login(t, "alice", "Password@123")

	// The token is verifiable and carries the expected subject and role.
	claims, err := env.tokens.Verify(token)
	if err != nil {
		t.Fatalf("token not verifiable: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("subject = %q, want alice", claims.Subject)
	}
	role, err := claims.Role()
	if err != nil || role != domain.RoleUser {
		t.Errorf("role claim = %v (%v), want USER", role, err)
	}

	// Authenticated routes admit the USER.
	if code, _ := env.do(t, http.MethodGet, "/api/v1/welcome", token, ""); code != http.StatusOK {
		t.Errorf("welcome: expected 200, got %d", code)
	}

	// MANAGER-gated route denies a USER with 403.
	code, resp := env.do(t, http.MethodGet, "/api/v1/welcome/manager", token, "")
	if code != http.StatusForbidden {
		t.Errorf("manager route: expected 403, got %d", code)
	}
	if resp.Success {
		t.Error("manager route: expected failure envelope")
	}

	// Unauthenticated access to a gated route yields 401.
	if code, _ := env.do(t, http.MethodGet, "/api/v1/welcome", "", ""); code != http.StatusUnauthorized {
		t.Errorf("unauthenticated welcome: expected 401, got %d", code)
	}
}

func TestEndToEnd_DuplicateRegistration(t *testing.T) {
	env := newTestEnv(t, false)

	env.register(t, "alice", "Password@123")

	body := `{"username":"alice","email":"other@example.com","password":"Password@123"}`
	code, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if !strings.Contains(resp.Message, "username") {
		t.Errorf("conflict message does not name the field: %q", resp.Message)
	}
	if len(env.repo.users) != 1 {
		t.Errorf("duplicate record created: %d users", len(env.repo.users))
	}
}

func TestEndToEnd_LoginFailuresAreUniform(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice", "Password@123")

	codeWrong, respWrong := env.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"alice","password":"wrong-password"}`)
	codeGhost, respGhost := env.do(t, http.MethodPost, "/api/v1/auth/login", "",
		`{"username":"ghost","password":"whatever-123"}`)

	if codeWrong != http.StatusUnauthorized || codeGhost != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", codeWrong, codeGhost)
	}
	if respWrong.Message != respGhost.Message {
		t.Errorf("login failure messages differ: %q vs %q", respWrong.Message, respGhost.Message)
	}
}

func TestEndToEnd_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, false)

	code, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"al","email":"not-an-email","password":"short"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if len(resp.Errors) == 0 {
		t.Error("expected field errors in envelope")
	}
}

func TestEndToEnd_AdminRoleChange(t *testing.T) {
	env := newTestEnv(t, false)

	env.register(t, "alice", "Password@123")
	env.register(t, "root", "Password@123")
	env.repo.users["root"].Role = domain.RoleAdmin
	adminToken := env.login(t, "root", "Password@123")
	userToken := env.login(t, "alice", "Password@123")

	// A USER cannot reach the admin surface.
	if code, _ := env.do(t, http.MethodPut, "/api/v1/admin/users/role", userToken,
		`{"username":"alice","new_role":"MANAGER"}`); code != http.StatusForbidden {
		t.Fatalf("user hitting admin route: expected 403, got %d", code)
	}

	// Admin promotes alice.
	code, resp := env.do(t, http.MethodPut, "/api/v1/admin/users/role", adminToken,
		`{"username":"alice","new_role":"MANAGER","reason":"promotion"}`)
	if code != http.StatusOK {
		t.Fatalf("role change: expected 200, got %d (%s)", code, resp.Message)
	}
	var result string
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	if !strings.Contains(result, "USER") || !strings.Contains(result, "MANAGER") {
		t.Errorf("result does not name both roles: %q", result)
	}
	if env.repo.users["alice"].Role != domain.RoleManager {
		t.Errorf("role not persisted: %s", env.repo.users["alice"].Role)
	}

	// Same role again is a no-op 200.
	code, resp = env.do(t, http.MethodPut, "/api/v1/admin/users/role", adminToken,
		`{"username":"alice","new_role":"MANAGER"}`)
	if code != http.StatusOK {
		t.Fatalf("no-op role change: expected 200, got %d", code)
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil || !strings.Contains(result, "No changes made") {
		t.Errorf("unexpected no-op result: %s", resp.Data)
	}

	// Self-change is rejected with 400.
	if code, _ = env.do(t, http.MethodPut, "/api/v1/admin/users/role", adminToken,
		`{"username":"root","new_role":"USER"}`); code != http.StatusBadRequest {
		t.Errorf("self role change: expected 400, got %d", code)
	}

	// Unknown target yields 404.
	if code, _ = env.do(t, http.MethodPut, "/api/v1/admin/users/role", adminToken,
		`{"username":"ghost","new_role":"MANAGER"}`); code != http.StatusNotFound {
		t.Errorf("missing target: expected 404, got %d", code)
	}
}

func TestEndToEnd_DatabaseModeReflectsRoleChangeImmediately(t *testing.T) {
	env := newTestEnv(t, true)

	env.register(t, "alice", "Password@123")
	token := env.login(t, "alice", "Password@123")

	// MANAGER route denies alice while she is a USER.
	if code, _ := env.do(t, http.MethodGet, "/api/v1/welcome/manager", token, ""); code != http.StatusForbidden {
		t.Fatalf("expected 403 before promotion, got %d", code)
	}

	// Promote server-side; the same token now passes because the pipeline
	// re-fetches the record.
	env.repo.users["alice"].Role = domain.RoleManager
	if code, _ := env.do(t, http.MethodGet, "/api/v1/welcome/manager", token, ""); code != http.StatusOK {
		t.Errorf("expected 200 after promotion, got %d", code)
	}
}

func TestEndToEnd_DatabaseModeDeletedUserGets401(t *testing.T) {
	env := newTestEnv(t, true)

	env.register(t, "alice", "Password@123")
	token := env.login(t, "alice", "Password@123")

	// The account is deleted while the token is still live; the pipeline must
	// answer 401, not 404, so the response does not reveal account existence.
	delete(env.repo.users, "alice")

	code, resp := env.do(t, http.MethodGet, "/api/v1/welcome", token, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("deleted account: expected 401, got %d", code)
	}
	if strings.Contains(resp.Message, "not found") {
		t.Errorf("response leaks account existence: %q", resp.Message)
	}
}

func TestEndToEnd_LogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t, false)

	env.register(t, "alice", "Password@123")
	token := env.login(t, "alice", "Password@123")

	if code, _ := env.do(t, http.MethodPost, "/api/v1/auth/logout", token, ""); code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", code)
	}

	// The revoked token is rejected everywhere afterwards.
	code, resp := env.do(t, http.MethodGet, "/api/v1/welcome", token, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", code)
	}
	if !strings.Contains(resp.Message, "revoked") {
		t.Errorf("expected revocation message, got %q", resp.Message)
	}
}

func TestEndToEnd_ExpiredToken(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice", "Password@123")

	// Mint a token that expired a minute ago, signed with the live secret.
	past := time.Now().Add(-time.Hour)
	claims := service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "auth-service",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(59 * time.Minute)),
			ID:        "expired-jti",
		},
		Roles: string(domain.RoleUser),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	code, resp := env.do(t, http.MethodGet, "/api/v1/welcome", token, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", code)
	}
	if !strings.Contains(resp.Message, "expired") {
		t.Errorf("expected expiry message, got %q", resp.Message)
	}
}
