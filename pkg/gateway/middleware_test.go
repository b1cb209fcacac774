package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/identity"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

const gateTestSecret = "0123456789abcdef0123456789abcdef"

func okHandler(captured *audit.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			if actor, ok := ActorFromContext(r.Context()); ok {
				*captured = actor
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

func testGate(t *testing.T, admins ...identity.Admin) (*Gate, *identity.TokenManager) {
	t.Helper()
	tokens, err := identity.NewTokenManager(gateTestSecret, "content-sync", "admin-ui", time.Hour)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return &Gate{
		Tokens:     tokens,
		Admins:     identity.NewMemoryFinder(admins...),
		CronSecret: "cron-secret-value",
	}, tokens
}

func TestGateRejectsAnonymous(t *testing.T) {
	gate, _ := testGate(t)
	handler := gate.Middleware(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != false {
		t.Errorf("expected success=false envelope, got %v", body)
	}
	if body["error"] != "forbidden" {
		t.Errorf("expected generic error, got %v", body["error"])
	}
}

func TestGateAcceptsActiveAdmin(t *testing.T) {
	admin := identity.Admin{ID: uuid.New(), Email: "editor@emberworks.dev", Role: "editor", IsActive: true}
	gate, tokens := testGate(t, admin)

	token, err := tokens.IssueToken(admin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var actor audit.Actor
	handler := gate.Middleware(okHandler(&actor))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if actor.Email != admin.Email {
		t.Errorf("expected actor from token, got %+v", actor)
	}
	if actor.UserID != admin.ID.String() {
		t.Errorf("expected actor user id from identity record, got %q", actor.UserID)
	}
}

func TestGateRejectsInactiveAdmin(t *testing.T) {
	admin := identity.Admin{ID: uuid.New(), Email: "former@emberworks.dev", IsActive: false}
	gate, tokens := testGate(t, admin)

	token, err := tokens.IssueToken(admin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := gate.Middleware(okHandler(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("valid token for inactive admin must be rejected, got %d", rec.Code)
	}
}

func TestGateCronSecret(t *testing.T) {
	gate, _ := testGate(t)

	var actor audit.Actor
	handler := gate.Middleware(okHandler(&actor))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil)
	req.Header.Set("X-Cron-Secret", "cron-secret-value")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if actor.UserID != audit.AutomationActor().UserID {
		t.Errorf("expected automation actor, got %+v", actor)
	}

	// Wrong secret.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil)
	req.Header.Set("X-Cron-Secret", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong secret, got %d", rec.Code)
	}
}

func TestGateUnsetCronSecretClosesPath(t *testing.T) {
	gate, _ := testGate(t)
	gate.CronSecret = ""

	handler := gate.Middleware(okHandler(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil)
	req.Header.Set("X-Cron-Secret", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("unset server secret must close the automation path, got %d", rec.Code)
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	middleware := CORS([]string{"https://admin.emberworks.dev"})
	handler := middleware(okHandler(nil))

	// Preflight from a listed origin.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync/news", nil)
	req.Header.Set("Origin", "https://admin.emberworks.dev")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.emberworks.dev" {
		t.Errorf("expected echoed origin, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "*" {
		t.Error("wildcard origin must never be emitted")
	}

	// Actual request from a listed origin.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/review/drafts", nil)
	req.Header.Set("Origin", "https://admin.emberworks.dev")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORSUnlistedOriginPreflight(t *testing.T) {
	middleware := CORS([]string{"https://admin.emberworks.dev"})
	handler := middleware(okHandler(nil))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync/news", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unlisted preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("no CORS headers should be set for an unlisted origin")
	}
}

func TestCORSNoOriginPassesThrough(t *testing.T) {
	middleware := CORS([]string{"https://admin.emberworks.dev"})
	handler := middleware(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("no CORS headers expected without an origin")
	}
}
