package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/db"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/models"
	"github.com/postforge/postforge/internal/security"
	"github.com/postforge/postforge/internal/settings"
)

func newTestRouter(t *testing.T) (*gin.Engine, *ledger.Ledger, config.JWTConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := db.Open("file:" + filepath.Join(t.TempDir(), "admin_test.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	hashed, errHash := security.HashPassword("hunter22")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	admin := models.Admin{Username: "root", Password: hashed, Active: true}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("seed admin: %v", errCreate)
	}

	jwtCfg := config.JWTConfig{Secret: "test-secret", Expiry: time.Hour}
	ldg := ledger.New(conn, nil)
	store := settings.NewStore(conn)

	r := gin.New()
	RegisterAdminRoutes(r, conn, jwtCfg, ldg, store)
	return r, ldg, jwtCfg
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if errEncode := json.NewEncoder(&buf).Encode(body); errEncode != nil {
			t.Fatalf("encode body: %v", errEncode)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v0/admin/login", "", map[string]string{
		"username": "root",
		"password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode login response: %v", errDecode)
	}
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v0/admin/login", "", map[string]string{
		"username": "root",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestAccountsRequireAuth(t *testing.T) {
	r, _, _ := newTestRouter(t)

	if w := doJSON(t, r, http.MethodGet, "/v0/admin/accounts", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status %d, want 401", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/v0/admin/accounts", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status %d, want 401", w.Code)
	}
}

func TestSetPlanThroughAPI(t *testing.T) {
	r, ldg, _ := newTestRouter(t)
	token := login(t, r)

	w := doJSON(t, r, http.MethodPut, "/v0/admin/accounts/42/plan", token, map[string]string{"plan": "monthly"})
	if w.Code != http.StatusOK {
		t.Fatalf("set plan status %d: %s", w.Code, w.Body.String())
	}

	snap, errPeek := ldg.Peek(t.Context(), 42)
	if errPeek != nil {
		t.Fatalf("peek: %v", errPeek)
	}
	if snap.Plan != models.PlanMonthly {
		t.Fatalf("plan %q, want monthly", snap.Plan)
	}
}

func TestUnlockRefundsReservation(t *testing.T) {
	r, ldg, _ := newTestRouter(t)
	token := login(t, r)

	result, errReserve := ldg.TryReserve(t.Context(), 7)
	if errReserve != nil || !result.Reserved {
		t.Fatalf("reserve: %v %+v", errReserve, result)
	}

	w := doJSON(t, r, http.MethodPost, "/v0/admin/accounts/7/unlock", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status %d: %s", w.Code, w.Body.String())
	}

	snap, errPeek := ldg.Peek(t.Context(), 7)
	if errPeek != nil {
		t.Fatalf("peek: %v", errPeek)
	}
	if snap.UsedToday != 0 {
		t.Fatalf("used today %d after unlock, want 0", snap.UsedToday)
	}
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status %d", w.Code)
	}
}
