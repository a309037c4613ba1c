package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shamstack/voice-order-backend/internal/domain"
	"github.com/shamstack/voice-order-backend/internal/services"
)

type stubOrderService struct {
	submitFn func(ctx context.Context, name string, items []string) (*domain.Order, error)
	listFn   func(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error)
}

func (s *stubOrderService) Submit(ctx context.Context, name string, items []string) (*domain.Order, error) {
	return s.submitFn(ctx, name, items)
}

func (s *stubOrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return nil, services.ErrOrderNotFound
}

func (s *stubOrderService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error) {
	if s.listFn != nil {
		return s.listFn(ctx, page, pageSize)
	}
	return []domain.Order{}, 0, nil
}

type stubConvService struct {
	handleFn func(ctx context.Context, audio io.Reader) (*services.TurnResult, error)
	turnsFn  func(ctx context.Context, page, pageSize int) ([]domain.ConversationTurn, int64, error)
}

func (s *stubConvService) HandleRecording(ctx context.Context, audio io.Reader) (*services.TurnResult, error) {
	return s.handleFn(ctx, audio)
}

func (s *stubConvService) ListTurnsPage(ctx context.Context, page, pageSize int) ([]domain.ConversationTurn, int64, error) {
	if s.turnsFn != nil {
		return s.turnsFn(ctx, page, pageSize)
	}
	return []domain.ConversationTurn{}, 0, nil
}

func newTestRouter(t *testing.T, orderSvc OrderService, convSvc ConversationService, audioDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(orderSvc, convSvc, audioDir)
	r.POST("/submit_order", h.SubmitOrder)
	r.GET("/orders", h.ListOrders)
	r.POST("/simulate_call", h.SimulateCall)
	r.GET("/turns", h.ListTurns)
	r.GET("/audio/:name", h.ServeAudio)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserIDResolution(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if got := userID(c); got != "demo-user" {
		t.Fatalf("default userID = %q", got)
	}
	c.Request.Header.Set("X-User-ID", "  u42  ")
	if got := userID(c); got != "u42" {
		t.Fatalf("header userID = %q", got)
	}
	c.Set("userID", "ctx-user")
	if got := userID(c); got != "ctx-user" {
		t.Fatalf("context userID = %q", got)
	}
}

func TestSubmitOrder_OK(t *testing.T) {
	svc := &stubOrderService{
		submitFn: func(_ context.Context, name string, items []string) (*domain.Order, error) {
			if name != "Amir" || len(items) != 2 {
				t.Fatalf("unexpected submit args: %q %v", name, items)
			}
			return &domain.Order{ID: 1, CustomerName: name, Items: items, ETA: "15-20 minutes"}, nil
		},
	}
	r := newTestRouter(t, svc, &stubConvService{}, t.TempDir())

	w := postJSON(t, r, "/submit_order", SubmitOrderRequest{Name: "Amir", OrderList: []string{"shawarma", "fries"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SubmitOrderResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.OrderID != 1 || resp.ETA != "15-20 minutes" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSubmitOrder_BindingRejectsMissingFields(t *testing.T) {
	svc := &stubOrderService{
		submitFn: func(context.Context, string, []string) (*domain.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	r := newTestRouter(t, svc, &stubConvService{}, t.TempDir())

	for _, body := range []any{
		map[string]any{"name": "Amir"},
		map[string]any{"order_list": []string{"fries"}},
		map[string]any{"name": "Amir", "order_list": []string{}},
	} {
		w := postJSON(t, r, "/submit_order", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: status = %d", body, w.Code)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("error envelope: %v", err)
		}
		if resp.Code != ErrCodeInvalidOrder {
			t.Fatalf("code = %q, want %q", resp.Code, ErrCodeInvalidOrder)
		}
	}
}

func TestSubmitOrder_ServiceValidationError(t *testing.T) {
	svc := &stubOrderService{
		submitFn: func(context.Context, string, []string) (*domain.Order, error) {
			return nil, fmt.Errorf("%w: blank item", services.ErrInvalidOrder)
		},
	}
	r := newTestRouter(t, svc, &stubConvService{}, t.TempDir())

	w := postJSON(t, r, "/submit_order", SubmitOrderRequest{Name: "A", OrderList: []string{" "}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSubmitOrder_LedgerWriteFailed(t *testing.T) {
	svc := &stubOrderService{
		submitFn: func(context.Context, string, []string) (*domain.Order, error) {
			return nil, fmt.Errorf("%w: disk full", services.ErrLedgerWriteFailed)
		},
	}
	r := newTestRouter(t, svc, &stubConvService{}, t.TempDir())

	w := postJSON(t, r, "/submit_order", SubmitOrderRequest{Name: "A", OrderList: []string{"fries"}})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error envelope: %v", err)
	}
	if resp.Code != ErrCodeLedgerWriteFailed {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestListOrders_PaginationMetadata(t *testing.T) {
	svc := &stubOrderService{
		listFn: func(_ context.Context, page, pageSize int) ([]domain.Order, int64, error) {
			return []domain.Order{{ID: 1}, {ID: 2}}, 5, nil
		},
	}
	r := newTestRouter(t, svc, &stubConvService{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/orders?page=1&page_size=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ListOrdersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Pagination.Total != 5 || resp.Pagination.TotalPages != 3 || !resp.Pagination.HasNext {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}
}
