package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/utils"
)

func record(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(ctx)
	return w
}

func TestSuccessEnvelope(t *testing.T) {
	w := record(func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"earned": 110})
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var env utils.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != 0 || env.Message != "success" {
		t.Errorf("unexpected envelope: %+v", env)
	}
	data, ok := env.Data.(map[string]interface{})
	if !ok || data["earned"] != float64(110) {
		t.Errorf("unexpected data: %+v", env.Data)
	}
}

func TestErrorEnvelopeOmitsData(t *testing.T) {
	w := record(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusConflict, 40910, "already checked in this window")
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, present := raw["data"]; present {
		t.Error("error envelope should omit the data field")
	}
	var env utils.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != 40910 {
		t.Errorf("code = %d, want 40910", env.Code)
	}
}

func TestRedisKeyNamespacing(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"balances"}, "tickpoints:balances"},
		{[]string{"leaderboard"}, "tickpoints:leaderboard"},
		{[]string{"board", "daily"}, "tickpoints:board:daily"},
		{nil, "tickpoints"},
	}
	for _, tt := range tests {
		if got := utils.RedisKey(tt.parts...); got != tt.want {
			t.Errorf("RedisKey(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}
