// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an order is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// ID assignment: order IDs are sequential integers with no gaps. CreateOrder
// runs inside a transaction that reads the current row count and writes
// count+1 as the new primary key; the service layer serializes calls so two
// submissions can never observe the same count.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shamstack/voice-order-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateOrder inserts a new Order row with the next sequential ID, computed
// and written inside a single transaction. CreatedAt is set to UTC.
//
// On success, it returns the persisted Order. On failure, nothing is written
// and the DB error is returned.
func CreateOrder(ctx context.Context, db *gorm.DB, customerName string, items []string, eta string) (*domain.Order, error) {
	o := &domain.Order{
		CustomerName: customerName,
		Items:        domain.ItemList(items),
		ETA:          eta,
		CreatedAt:    time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&domain.Order{}).Count(&total).Error; err != nil {
			return err
		}
		o.ID = total + 1
		return tx.Create(o).Error
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches a single order by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetOrder(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CountOrders returns the total number of orders in the ledger.
// On DB error, it returns the error.
func CountOrders(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Count(&total).Error
	return total, err
}

// ListOrdersPage returns a paginated slice of orders ordered by ID ascending,
// which for this ledger is also chronological. Use CountOrders to obtain the
// total for pagination metadata. On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListOrdersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
