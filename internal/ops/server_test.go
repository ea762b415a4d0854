package ops

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra/auth"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/journal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeReadStore struct {
	servers []domain.ServerRecord
	records []journal.Record
}

func (f *fakeReadStore) ListServers(ctx context.Context, limit int) ([]domain.ServerRecord, error) {
	return f.servers, nil
}

func (f *fakeReadStore) ListJournal(ctx context.Context, limit int) ([]journal.Record, error) {
	return f.records, nil
}

type fakeSwitch struct{ down map[string]bool }

func (f *fakeSwitch) Set(ctx context.Context, scope string, on bool) error {
	f.down[scope] = on
	return nil
}

func (f *fakeSwitch) IsMaintenance(scope string) bool { return f.down[scope] }

func newTestServer(t *testing.T) (*Server, *fakeReadStore, *fakeSwitch) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("op-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := infra.OpsConfig{
		OperatorUser: "operator",
		OperatorHash: string(hash),
		TokenTTL:     time.Hour,
	}

	store := &fakeReadStore{
		servers: []domain.ServerRecord{{Name: "lobby", InstanceID: "aaaa", PanelKey: "mc-eu"}},
		records: []journal.Record{{Action: "power.start", Status: journal.StatusSuccess}},
	}
	sw := &fakeSwitch{down: map[string]bool{}}

	srv := NewServer(
		zap.NewNop(),
		NewTokenIssuer(cfg, key),
		auth.NewValidator(&key.PublicKey),
		store, sw,
		[]string{"mc-eu", "mc-us"},
		prometheus.NewRegistry(),
	)
	return srv, store, sw
}

func obtainToken(t *testing.T, srv *Server, username, password string) (string, int) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return "", rec.Code
	}
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken, rec.Code
}

func TestTokenIssueAndRefuse(t *testing.T) {
	srv, _, _ := newTestServer(t)

	token, code := obtainToken(t, srv, "operator", "op-secret")
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, token)

	_, code = obtainToken(t, srv, "operator", "wrong")
	assert.Equal(t, http.StatusUnauthorized, code)

	_, code = obtainToken(t, srv, "intruder", "op-secret")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProtectedPerimeter(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// Без токена — 401
	req := httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// С токеном — данные хранилища
	token, _ := obtainToken(t, srv, "operator", "op-secret")
	req = httptest.NewRequest(http.MethodGet, "/v1/servers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lobby")
}

func TestJournalEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token, _ := obtainToken(t, srv, "operator", "op-secret")

	req := httptest.NewRequest(http.MethodGet, "/v1/audit?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "power.start")
}

func TestMaintenanceSwitch(t *testing.T) {
	srv, _, sw := newTestServer(t)
	token, _ := obtainToken(t, srv, "operator", "op-secret")

	body := bytes.NewReader([]byte(`{"maintenance": true}`))
	req := httptest.NewRequest(http.MethodPut, "/v1/scopes/mc-eu/maintenance", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sw.down["mc-eu"])

	// Неизвестный scope отклоняется до мутации
	req = httptest.NewRequest(http.MethodPut, "/v1/scopes/mc-asia/maintenance",
		bytes.NewReader([]byte(`{"maintenance": true}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetricsPublic(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
