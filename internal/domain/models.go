// Package domain defines the persistence models for orders and conversation
// turns. These types are mapped with GORM and form the core data layer of the
// voice ordering backend.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ItemList is a slice of recognized menu item names stored as a JSON array in
// a single TEXT column. Order and duplicates are preserved exactly as the
// classifier produced them.
type ItemList []string

// Value implements driver.Valuer by serializing the list as JSON.
func (l ItemList) Value() (driver.Value, error) {
	if l == nil {
		l = ItemList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for TEXT/BLOB columns holding a JSON array.
func (l *ItemList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = ItemList{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("itemlist: cannot scan %T", src)
	}
}

// Order represents a confirmed customer order in the ledger.
//
// Fields:
//   - ID: sequential integer assigned by the service (1, 2, 3, ... with no
//     gaps); autoIncrement is disabled because the service owns ID assignment.
//   - CustomerName: name given by the caller.
//   - Items: recognized item names, JSON-encoded.
//   - ETA: human-readable preparation estimate recorded at submission time.
//   - CreatedAt: UTC timestamp managed by the repository.
type Order struct {
	ID           int64     `json:"order_id"      gorm:"primaryKey;autoIncrement:false"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(255);not null"`
	Items        ItemList  `json:"items"         gorm:"type:text;not null"`
	ETA          string    `json:"eta"           gorm:"type:varchar(64);not null"`
	CreatedAt    time.Time `json:"created_at"    gorm:"index"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// ConversationTurn represents one processed voice interaction: the transcribed
// input, what the classifier made of it, and the reply that was produced.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - InputText: transcription of the caller's audio (may be empty when
//     transcription failed).
//   - Language: resolved reply language ("ar", "en" or "tr").
//   - Intent: classified intent ("order", "complaint", "question", "unknown").
//   - Items: extracted item names for order intents, JSON-encoded.
//   - ReplyText: the generated reply.
//   - AudioPath: relative path of the synthesized reply audio, empty when
//     synthesis was skipped or failed.
//   - CreatedAt: UTC timestamp.
type ConversationTurn struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	InputText string    `json:"input_text" gorm:"type:text;not null"`
	Language  string    `json:"language"   gorm:"type:varchar(8);not null"`
	Intent    string    `json:"intent"     gorm:"type:varchar(16);not null;index"`
	Items     ItemList  `json:"items"      gorm:"type:text;not null"`
	ReplyText string    `json:"reply_text" gorm:"type:text;not null"`
	AudioPath string    `json:"audio_path" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for ConversationTurn.
func (ConversationTurn) TableName() string { return "conversation_turns" }
