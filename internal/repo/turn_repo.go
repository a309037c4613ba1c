// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConversationTurn model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamstack/voice-order-backend/internal/domain"
)

// CreateTurn inserts a new conversation turn row with a UUID primary key and
// UTC timestamp. On success it returns the persisted turn.
func CreateTurn(ctx context.Context, db *gorm.DB, inputText, language, intent string, items []string, replyText, audioPath string) (*domain.ConversationTurn, error) {
	t := &domain.ConversationTurn{
		ID:        uuid.NewString(),
		InputText: inputText,
		Language:  language,
		Intent:    intent,
		Items:     domain.ItemList(items),
		ReplyText: replyText,
		AudioPath: audioPath,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// CountTurns returns the total number of recorded conversation turns.
func CountTurns(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ConversationTurn{}).
		Count(&total).Error
	return total, err
}

// ListTurnsPage returns a paginated slice of turns ordered deterministically
// (CreatedAt ASC, ID ASC). Use CountTurns to obtain the total for pagination
// metadata. On DB error, it returns the error.
func ListTurnsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	err := db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// TurnsStats returns aggregate metadata for the conversation log: the total
// number of rows and the maximum CreatedAt timestamp among those rows.
//
// When the log is empty, the returned count is 0 and maxCreatedAt is nil.
func TurnsStats(ctx context.Context, db *gorm.DB) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ConversationTurn{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
