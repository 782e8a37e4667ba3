package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/bank"
	"github.com/chainledge/tickpoints/config"
	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/models"
	"github.com/chainledge/tickpoints/routes"
	"github.com/chainledge/tickpoints/storage"
	"github.com/chainledge/tickpoints/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("ADMIN_PRINCIPAL", "admin")
	os.Setenv("GIN_MODE", "test")
	os.Setenv("RATE_LIMIT_PER_MINUTE", "10000")
	os.Setenv("GIN_PATH", filepath.Join(os.TempDir(), "tickpoints-test-gin.log"))
	gin.SetMode(gin.TestMode)
	if err := utils.InitLogger(config.Load()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T) (*gin.Engine, *bank.MemoryBook) {
	t.Helper()
	led, err := ledger.New(storage.NewMemory(), "admin", models.GlobalConfig{
		PointsPerCheckin:  100,
		StreakBonusPerDay: 10,
		FeeAmount:         1000,
		WindowLength:      144,
		FeeRecipient:      "treasury",
	})
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	book := bank.NewMemoryBook()
	return routes.SetupRouter(routes.Deps{Ledger: led, Book: book}), book
}

func token(t *testing.T, principal string) string {
	t.Helper()
	tok, err := utils.GenerateToken(principal)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, r *gin.Engine, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", w.Body.String(), err)
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func TestCheckinFlow(t *testing.T) {
	r, _ := setupRouter(t)
	adminTok := token(t, "admin")
	aliceTok := token(t, "alice")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/admin/faucet", adminTok,
		gin.H{"principal": "alice", "amount": 10000})
	if w.Code != http.StatusOK {
		t.Fatalf("faucet status = %d, body %s", w.Code, w.Body.String())
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/checkin", aliceTok, gin.H{"now": 100})
	if w.Code != http.StatusOK {
		t.Fatalf("checkin status = %d, body %s", w.Code, w.Body.String())
	}
	var receipt ledger.CheckinReceipt
	decodeData(t, env, &receipt)
	if receipt.Earned != 110 || receipt.Streak != 1 || receipt.FeePaid != 1000 {
		t.Errorf("unexpected receipt: %+v", receipt)
	}

	// The fee actually settled.
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/admin/balances/alice", adminTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("balance status = %d", w.Code)
	}
	var bal struct {
		Balance uint64 `json:"balance"`
	}
	decodeData(t, env, &bal)
	if bal.Balance != 9000 {
		t.Errorf("alice balance = %d, want 9000", bal.Balance)
	}

	// Second attempt in the same window is a conflict.
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", aliceTok, gin.H{"now": 100})
	if w.Code != http.StatusConflict {
		t.Errorf("repeat checkin status = %d, want 409", w.Code)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/users/alice/stats?now=244", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("user stats status = %d", w.Code)
	}
	var stats ledger.UserStatsView
	decodeData(t, env, &stats)
	if stats.Points != 110 || !stats.CanCheckIn || stats.LastCheckin != 100 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("global stats status = %d", w.Code)
	}
	var global ledger.GlobalStatsView
	decodeData(t, env, &global)
	if global.TotalCheckins != 1 || global.UniqueUsers != 1 || global.FeeAmount != 1000 {
		t.Errorf("unexpected global stats: %+v", global)
	}

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/users/alice/checkins", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	var rows []models.CheckinRecord
	decodeData(t, env, &rows)
	if len(rows) != 1 || rows[0].Tick != 100 {
		t.Errorf("unexpected history: %+v", rows)
	}
}

func TestCheckinRequiresAuth(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkin", "", gin.H{"now": 100})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin", "not-a-token", gin.H{"now": 100})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", w.Code)
	}
}

func TestCheckinFeeFailure(t *testing.T) {
	r, _ := setupRouter(t)
	bobTok := token(t, "bob")

	// No faucet deposit, so bob cannot cover the fee.
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkin", bobTok, gin.H{"now": 100})
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want 402", w.Code)
	}

	// The failed attempt left bob eligible and unrecorded.
	w, env := doJSON(t, r, http.MethodGet, "/api/v1/users/bob/stats?now=100", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats ledger.UserStatsView
	decodeData(t, env, &stats)
	if stats.TotalCheckins != 0 || !stats.CanCheckIn {
		t.Errorf("unexpected stats after fee failure: %+v", stats)
	}
}

func TestCheckinValidation(t *testing.T) {
	r, _ := setupRouter(t)
	tok := token(t, "alice")

	// Missing and zero ticks are both rejected; ticks start at 1.
	for _, body := range []any{gin.H{}, gin.H{"now": 0}} {
		w, _ := doJSON(t, r, http.MethodPost, "/api/v1/checkin", tok, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: status = %d, want 400", body, w.Code)
		}
	}
}

func TestBulkCheckin(t *testing.T) {
	r, book := setupRouter(t)
	adminTok := token(t, "admin")
	payerTok := token(t, "payer")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/admin/faucet", adminTok,
		gin.H{"principal": "payer", "amount": 5000})
	if w.Code != http.StatusOK {
		t.Fatalf("faucet status = %d", w.Code)
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/checkin/bulk", payerTok,
		gin.H{"principals": []string{"u1", "u2"}, "now": 50})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk status = %d, body %s", w.Code, w.Body.String())
	}
	var receipts []ledger.CheckinReceipt
	decodeData(t, env, &receipts)
	if len(receipts) != 2 {
		t.Fatalf("receipts = %d, want 2", len(receipts))
	}

	// One aggregate fee of 2000 left the payer with 3000.
	balance, _ := book.Balance("payer")
	if balance != 3000 {
		t.Errorf("payer balance = %d, want 3000", balance)
	}

	// A batch with an in-window member fails whole and costs nothing.
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin/bulk", payerTok,
		gin.H{"principals": []string{"u3", "u1"}, "now": 60})
	if w.Code != http.StatusConflict {
		t.Errorf("conflicting bulk status = %d, want 409", w.Code)
	}
	balance, _ = book.Balance("payer")
	if balance != 3000 {
		t.Errorf("payer balance after aborted batch = %d, want 3000", balance)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/checkin/bulk", payerTok,
		gin.H{"principals": []string{}, "now": 60})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", w.Code)
	}
}

func TestAdminConfigEndpoints(t *testing.T) {
	r, _ := setupRouter(t)
	adminTok := token(t, "admin")
	aliceTok := token(t, "alice")

	w, _ := doJSON(t, r, http.MethodPut, "/api/v1/admin/config/fee", aliceTok, gin.H{"value": 5000})
	if w.Code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPut, "/api/v1/admin/config/fee", adminTok, gin.H{"value": 0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero fee status = %d, want 400", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPut, "/api/v1/admin/config/fee", adminTok, gin.H{"value": 5000})
	if w.Code != http.StatusOK {
		t.Fatalf("set fee status = %d", w.Code)
	}

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/stats", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var global ledger.GlobalStatsView
	decodeData(t, env, &global)
	if global.FeeAmount != 5000 {
		t.Errorf("feeAmount = %d, want 5000", global.FeeAmount)
	}

	// Zero streak bonus is a legal setting.
	w, _ = doJSON(t, r, http.MethodPut, "/api/v1/admin/config/streak-bonus", adminTok, gin.H{"value": 0})
	if w.Code != http.StatusOK {
		t.Errorf("zero streak bonus status = %d, want 200", w.Code)
	}
}

func TestFaucetRequiresAdmin(t *testing.T) {
	r, _ := setupRouter(t)
	aliceTok := token(t, "alice")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/admin/faucet", aliceTok,
		gin.H{"principal": "alice", "amount": 10000})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestIssueToken(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/token", "", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing principal status = %d, want 400", w.Code)
	}

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/token", "", gin.H{"principal": "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var data struct {
		Token     string `json:"token"`
		Principal string `json:"principal"`
	}
	decodeData(t, env, &data)
	if data.Token == "" || data.Principal != "alice" {
		t.Errorf("unexpected token response: %+v", data)
	}

	claims, err := utils.ParseToken(data.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Principal != "alice" {
		t.Errorf("principal = %q, want alice", claims.Principal)
	}
}

func TestUserStatsRequiresNow(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/users/alice/stats", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLeaderboardUnconfigured(t *testing.T) {
	r, _ := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/leaderboard", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
