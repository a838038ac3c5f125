package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type chatMessage struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    int64  `gorm:"index:idx_chat_ts"`
	Role      string `gorm:"size:16"`
	Username  string
	Content   string
	Timestamp int64 `gorm:"index:idx_chat_ts"`
}

func (chatMessage) TableName() string { return "chat_messages" }

// SQLiteAdapter is the durable single-host backend.
type SQLiteAdapter struct {
	db *gorm.DB
}

func NewSQLite(path string) (*SQLiteAdapter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.AutoMigrate(&chatMessage{}); err != nil {
		return nil, fmt.Errorf("migrate chat_messages: %w", err)
	}
	return &SQLiteAdapter{db: db}, nil
}

func (s *SQLiteAdapter) SaveMessage(ctx context.Context, chatID int64, username, content string) error {
	rec := chatMessage{ChatID: chatID, Role: RoleUser, Username: username, Content: content, Timestamp: nowMillis()}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save message for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *SQLiteAdapter) SaveResponse(ctx context.Context, chatID int64, content string) error {
	rec := chatMessage{ChatID: chatID, Role: RoleAssistant, Content: content, Timestamp: nowMillis()}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save response for chat %d: %w", chatID, err)
	}
	return nil
}

func (s *SQLiteAdapter) GetConversation(ctx context.Context, chatID int64, limit int) []Message {
	var recs []chatMessage
	q := s.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if limit > 0 {
		q = q.Order("timestamp DESC").Order("id DESC").Limit(limit)
	} else {
		q = q.Order("timestamp ASC").Order("id ASC")
	}
	if err := q.Find(&recs).Error; err != nil {
		log.Printf("sqlite: load conversation for chat %d: %v", chatID, err)
		return nil
	}
	msgs := make([]Message, 0, len(recs))
	for _, r := range recs {
		msgs = append(msgs, Message{Role: r.Role, Username: r.Username, Content: r.Content, Timestamp: r.Timestamp})
	}
	if limit > 0 {
		reverseMessages(msgs)
	}
	return msgs
}

func (s *SQLiteAdapter) ResetConversation(ctx context.Context, chatID int64) error {
	if err := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&chatMessage{}).Error; err != nil {
		return fmt.Errorf("reset conversation for chat %d: %w", chatID, err)
	}
	return nil
}
