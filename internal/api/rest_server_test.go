package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dunereach/dune-server/internal/auth"
	"github.com/dunereach/dune-server/internal/game"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *RestServer
	accounts *auth.MemoryAccountRepo
	monsters *game.MemoryMonsterRepo
	tokens   *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Fresh registry so repeated server construction does not collide on
	// metric registration.
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	gin.SetMode(gin.TestMode)

	accounts := auth.NewMemoryAccountRepo()
	monsters := game.NewMemoryMonsterRepo()
	tokens, err := auth.NewTokenManager("rest-server-test-secret")
	require.NoError(t, err)

	server := NewRestServer(Config{
		Port:        ":0",
		Accounts:    accounts,
		Monsters:    monsters,
		Engine:      game.NewEngine(accounts, monsters),
		Leaderboard: game.NewLeaderboard(accounts, nil, 0),
		Tokens:      tokens,
		Policy:      auth.PasswordPolicy{MinLength: 6},
	})

	return &testEnv{
		server:   server,
		accounts: accounts,
		monsters: monsters,
		tokens:   tokens,
	}
}

func (env *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)
	return w
}

func (env *testEnv) seedAccount(t *testing.T, username string, role auth.Role) string {
	t.Helper()
	hash, err := auth.HashPassword("Secret123!")
	require.NoError(t, err)
	account := &auth.Account{
		Username:     username,
		PasswordHash: hash,
		Email:        username + "@thedune.example",
		Role:         role,
		Level:        1,
		Experience:   0,
		RegisteredAt: time.Now(),
	}
	require.NoError(t, env.accounts.Create(context.Background(), account))

	token, err := env.tokens.Issue(account)
	require.NoError(t, err)
	return token
}

func (env *testEnv) seedMonster(t *testing.T, id, name, rarity string) {
	t.Helper()
	require.NoError(t, env.monsters.Create(context.Background(), &game.Monster{
		MonsterID:  id,
		Name:       name,
		Attributes: game.MonsterAttributes{Rarity: rarity},
		Location:   "sietch",
	}))
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthAndWelcome(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "GET", "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The Dune")
}

func TestRegisterEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/auth/register", map[string]string{
		"username": "chani",
		"password": "Secret123!",
		"email":    "chani@thedune.example",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeResponse(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "chani", data["username"])
	assert.Equal(t, float64(1), data["level"])
	assert.Nil(t, data["password_hash"], "view must not leak the hash")

	// Duplicate registration.
	w = env.request(t, "POST", "/api/auth/register", map[string]string{
		"username": "chani",
		"password": "Other456!",
		"email":    "other@thedune.example",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Policy violation.
	w = env.request(t, "POST", "/api/auth/register", map[string]string{
		"username": "stilgar",
		"password": "abc",
		"email":    "stilgar@thedune.example",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "duncan", auth.RoleUser)

	w := env.request(t, "POST", "/api/auth/login", map[string]string{
		"username": "duncan",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Wrong password and unknown user must yield identical bodies.
	wrongPass := env.request(t, "POST", "/api/auth/login", map[string]string{
		"username": "duncan",
		"password": "nope",
	}, "")
	unknownUser := env.request(t, "POST", "/api/auth/login", map[string]string{
		"username": "nobody",
		"password": "Secret123!",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.Equal(t, wrongPass.Body.String(), unknownUser.Body.String())
}

func TestGenerateTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "gurney", auth.RoleUser)

	w := env.request(t, "POST", "/api/auth/token", map[string]string{
		"username": "gurney",
		"password": "Secret123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "gurney", claims.Username)
	assert.Equal(t, auth.RoleUser, claims.Role)

	w = env.request(t, "POST", "/api/auth/token", map[string]string{
		"username": "gurney",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, "POST", "/api/game/slay", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, "POST", "/api/game/slay", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSlayEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedAccount(t, "paul", auth.RoleUser)
	env.seedMonster(t, "m-1", "Sandworm", "epic")

	w := env.request(t, "POST", "/api/game/slay", map[string]string{"monster_id": "m-1"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeResponse(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(50), data["points"])
	assert.Equal(t, float64(1), data["level"])
	assert.Equal(t, float64(50), data["experience"])
	assert.Contains(t, body["message"], "Sandworm")

	// Unknown explicit monster.
	w = env.request(t, "POST", "/api/game/slay", map[string]string{"monster_id": "ghost"}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Random selector works with a non-empty catalog.
	w = env.request(t, "POST", "/api/game/slay", map[string]string{}, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSlayEmptyCatalog(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedAccount(t, "paul", auth.RoleUser)

	w := env.request(t, "POST", "/api/game/slay", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No monsters")
}

func TestSlayOnBehalfRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.seedAccount(t, "paul", auth.RoleUser)
	adminToken := env.seedAccount(t, "overseer", auth.RoleAdmin)
	env.seedAccount(t, "chani", auth.RoleUser)
	env.seedMonster(t, "m-1", "Sandworm", "common")

	w := env.request(t, "POST", "/api/game/slay", map[string]string{
		"username":   "chani",
		"monster_id": "m-1",
	}, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "POST", "/api/game/slay", map[string]string{
		"username":   "chani",
		"monster_id": "m-1",
	}, adminToken)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLeaderboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.seedAccount(t, "paul", auth.RoleUser)
	env.seedAccount(t, "chani", auth.RoleUser)

	w := env.request(t, "GET", "/api/game/leaderboard?limit=1", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeResponse(t, w)
	data := body["data"].(map[string]interface{})
	entries := data["entries"].([]interface{})
	assert.Len(t, entries, 1)
}

func TestGetAccountEndpoint(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.seedAccount(t, "paul", auth.RoleUser)
	adminToken := env.seedAccount(t, "overseer", auth.RoleAdmin)

	// Self read.
	w := env.request(t, "GET", "/api/users/paul", nil, userToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// Reading someone else requires admin.
	w = env.request(t, "GET", "/api/users/overseer", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "GET", "/api/users/paul", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "GET", "/api/users/nobody", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesForbiddenForUsers(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.seedAccount(t, "paul", auth.RoleUser)

	w := env.request(t, "GET", "/api/admin/monsters", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, "GET", "/api/admin/server", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMonsterCatalogCRUD(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAccount(t, "overseer", auth.RoleAdmin)

	monster := map[string]interface{}{
		"monster_id": "m-9",
		"name":       "Sligh",
		"attributes": map[string]interface{}{"rarity": "rare", "strength": 4, "agility": 9},
		"location":   "rock outcrops",
	}

	w := env.request(t, "POST", "/api/admin/monsters", monster, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.request(t, "POST", "/api/admin/monsters", monster, adminToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, "GET", "/api/admin/monsters/m-9", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Sligh", data["name"])

	monster["name"] = "Greater Sligh"
	w = env.request(t, "PUT", "/api/admin/monsters/m-9", monster, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "GET", "/api/admin/monsters", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Greater Sligh")

	w = env.request(t, "DELETE", "/api/admin/monsters/m-9", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "GET", "/api/admin/monsters/m-9", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAccountEndpoint(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAccount(t, "overseer", auth.RoleAdmin)
	env.seedAccount(t, "paul", auth.RoleUser)

	w := env.request(t, "DELETE", "/api/admin/users/paul", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, "DELETE", "/api/admin/users/paul", nil, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
