// Package services – OrderService
//
// This file implements OrderService, the application-level component that owns
// the order ledger. It validates submissions and assigns sequential order IDs
// with no gaps: submissions are serialized with a mutex and the ID is computed
// and written inside a single repository transaction, so a failed write never
// consumes an ID and two orders never share one.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/shamstack/voice-order-backend/internal/domain"
	"github.com/shamstack/voice-order-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultETA is the preparation estimate quoted when none is configured.
const DefaultETA = "15-20 minutes"

// OrderService coordinates validation and durable, gap-free order recording.
type OrderService struct {
	DB *gorm.DB

	// ETA is the preparation estimate recorded with each order.
	// DefaultETA is used when empty.
	ETA string

	// MaxItems caps the number of items per order. 0 means no cap.
	MaxItems int

	mu sync.Mutex
}

// Submit validates the submission and appends it to the ledger. The returned
// order carries the assigned sequential ID and the quoted ETA.
//
// Validation failures return ErrInvalidOrder. Persistence failures return
// ErrLedgerWriteFailed; in that case nothing was written and no ID was used.
func (s *OrderService) Submit(ctx context.Context, customerName string, items []string) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.Int("order.items", len(items))),
	)
	defer span.End()

	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidOrder)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	if s.MaxItems > 0 && len(items) > s.MaxItems {
		return nil, fmt.Errorf("%w: too many items", ErrInvalidOrder)
	}
	clean := make([]string, len(items))
	for i, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			return nil, fmt.Errorf("%w: blank item", ErrInvalidOrder)
		}
		clean[i] = it
	}

	// Serialize submissions so the count-then-insert in the repository
	// transaction cannot race another writer in the same process.
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := repo.CreateOrder(ctx, s.DB, customerName, clean, s.eta())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerWriteFailed, err)
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))
	return o, nil
}

// Get returns one order by ID, or ErrOrderNotFound.
func (s *OrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("order.id", id)),
	)
	defer span.End()

	o, err := repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListPage returns paginated orders, oldest first, plus the ledger total.
func (s *OrderService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountOrders(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}

	items, err := repo.ListOrdersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

func (s *OrderService) eta() string {
	if strings.TrimSpace(s.ETA) == "" {
		return DefaultETA
	}
	return s.ETA
}
