package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shamstack/voice-order-backend/internal/config"
	"github.com/shamstack/voice-order-backend/internal/domain"
	"github.com/shamstack/voice-order-backend/internal/http/handlers"
	"github.com/shamstack/voice-order-backend/internal/http/middleware"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		MaxUploadBytes:   10 << 20,
		AudioDir:         t.TempDir(),
		OrderETA:         "15-20 minutes",
		FallbackLanguage: "ar",
		RateRPS:          1000,
		RateBurst:        1000,
		IdempotencyTTL:   time.Hour,
		OTEL:             config.OTELConfig{ServiceName: "voice-order-backend-test"},
	}
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "router_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Order{}, &domain.ConversationTurn{}, &domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, Deps{}, testConfig(t))
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestNoRouteReturnsErrorEnvelope(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/definitely/not/here", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var resp handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error envelope: %v", err)
	}
	if resp.Code != handlers.ErrCodeNotFound {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestNoMethodReturnsErrorEnvelope(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/submit_order", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSimulateCallTextOnlyDeployment(t *testing.T) {
	// Deps{} is the text-only configuration: no speech providers wired.
	r := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake-wav")); err != nil {
		t.Fatalf("write: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/simulate_call", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error envelope: %v", err)
	}
	if resp.Code != handlers.ErrCodeTranscriptionFailed {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestSubmitOrderThroughFullStack(t *testing.T) {
	r := newTestServer(t)

	submit := func(key string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(handlers.SubmitOrderRequest{
			Name:      "Amir",
			OrderList: []string{"shawarma", "fries"},
		})
		req := httptest.NewRequest(http.MethodPost, "/submit_order", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(middleware.HeaderIdempotencyKey, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := submit("")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var first handlers.SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.OrderID != 1 || first.ETA != "15-20 minutes" {
		t.Fatalf("first = %+v", first)
	}

	key := uuid.NewString()
	w = submit(key)
	var second handlers.SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if second.OrderID != 2 {
		t.Fatalf("second id = %d, want 2", second.OrderID)
	}

	// Same key again: replayed, no new ledger row.
	w = submit(key)
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replay header, got %v", w.Header())
	}
	var replayed handlers.SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &replayed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if replayed.OrderID != 2 {
		t.Fatalf("replayed id = %d, want 2", replayed.OrderID)
	}

	w = submit("")
	var third handlers.SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &third); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if third.OrderID != 3 {
		t.Fatalf("id after replay = %d, want 3", third.OrderID)
	}
}
