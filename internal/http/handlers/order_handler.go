// Order HTTP handlers.
//
// This file exposes REST endpoints for the order ledger:
//   - POST /submit_order   (validate and append an order, sequential ID)
//   - GET  /orders         (list orders, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, key), the handler returns the originally recorded
// order and sets `Idempotency-Replayed: true` instead of appending a new row.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shamstack/voice-order-backend/internal/domain"
	"github.com/shamstack/voice-order-backend/internal/repo"
	"github.com/shamstack/voice-order-backend/internal/services"
	"github.com/shamstack/voice-order-backend/internal/utils"
)

// idempotencyScopeOrders is the Scope value recorded for order submissions.
const idempotencyScopeOrders = "submit_order"

//
// Service contracts (context-aware)
//

// OrderService defines order ledger operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OrderService interface {
	// Submit validates and durably appends an order, assigning the next
	// sequential ID.
	Submit(ctx context.Context, customerName string, items []string) (*domain.Order, error)
	// Get returns one order by ID.
	Get(ctx context.Context, id int64) (*domain.Order, error)
	// ListPage returns a page of orders and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error)
}

// ConversationService defines voice interaction operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// HandleRecording processes one uploaded recording end to end and records
	// the turn.
	HandleRecording(ctx context.Context, audio io.Reader) (*services.TurnResult, error)
	// ListTurnsPage returns a page of conversation turns and the total count.
	ListTurnsPage(ctx context.Context, page, pageSize int) ([]domain.ConversationTurn, int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for orders and voice conversations.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	orderSvc OrderService
	convSvc  ConversationService

	// audioDir is where synthesized reply audio lives; used by ServeAudio.
	audioDir string
}

// New constructs and returns a Handlers instance bound to the given services.
func New(orderSvc OrderService, convSvc ConversationService, audioDir string) *Handlers {
	return &Handlers{orderSvc: orderSvc, convSvc: convSvc, audioDir: audioDir}
}

// userID extracts the caller identity from Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header, and finally
// to "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
		return h
	}
	return "demo-user"
}

//
// DTOs
//

// SubmitOrderRequest is the JSON payload for placing an order.
type SubmitOrderRequest struct {
	// Name is the customer name. It must be non-empty.
	Name string `json:"name" binding:"required,min=1" example:"Amir"`
	// OrderList holds the requested item names, at least one.
	OrderList []string `json:"order_list" binding:"required,min=1" example:"shawarma,fries"`
}

// SubmitOrderResponse is the JSON envelope for a recorded order.
type SubmitOrderResponse struct {
	OrderID int64  `json:"order_id" example:"1"`
	ETA     string `json:"eta"      example:"15-20 minutes"`
}

// ListOrdersResponse contains a page of orders and pagination metadata.
type ListOrdersResponse struct {
	Orders     []domain.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// middleware has already validated/stashed it. The fallback behavior reads
// the "Idempotency-Key" header directly when no dedicated middleware exists.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}

//
// Handlers
//

// SubmitOrder godoc
// @ID          submitOrder
// @Summary     Place an order
// @Description Validates the submission and appends it to the order ledger with
// @Description the next sequential order ID. Supports idempotency via the
// @Description Idempotency-Key header (same key → same recorded order).
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Caller ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.SubmitOrderRequest  true  "Order payload"
//
// @Success     200  {object}  handlers.SubmitOrderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid order"
// @Failure     500  {object}  handlers.ErrorResponse  "Ledger write failed"
// @Router      /submit_order [post]
func (h *Handlers) SubmitOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidOrder, "name and order_list required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.orderSvc.(*services.OrderService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, idempotencyScopeOrders, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetOrder(ctx, svc.DB, rec.OrderID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, SubmitOrderResponse{OrderID: prev.ID, ETA: prev.ETA})
					return
				}
			}
		}
	}

	o, err := h.orderSvc.Submit(ctx, req.Name, req.OrderList)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidOrder):
			fail(c, http.StatusBadRequest, ErrCodeInvalidOrder, err.Error())
		case errors.Is(err, services.ErrLedgerWriteFailed):
			fail(c, http.StatusInternalServerError, ErrCodeLedgerWriteFailed, "could not record the order, please retry")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.orderSvc.(*services.OrderService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, idempotencyScopeOrders, idemKey, o.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, SubmitOrderResponse{OrderID: o.ID, ETA: o.ETA})
}

// ListOrders godoc
// @ID          listOrders
// @Summary     List orders (paginated)
// @Description Returns a page of the ledger, oldest first. Supports weak ETag
// @Description via If-None-Match and may return 304.
// @Tags        Orders
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListOrdersResponse
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /orders [get]
func (h *Handlers) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.orderSvc.(*services.OrderService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, err := repo.CountOrders(ctx, db)
		if err == nil {
			etag := fmt.Sprintf(`W/"orders:%d"`, count)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.orderSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListOrdersResponse{
		Orders: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
