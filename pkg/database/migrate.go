package database

import (
	"github.com/GeorgeShani/Learnyx-sub001/internal/model"

	"gorm.io/gorm"
)

// Migrate creates or updates the chat schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.MessageContent{},
		&model.MessageReadStatus{},
		&model.AssistantConversationContext{},
	); err != nil {
		return err
	}

	// Assistant conversations store user2_id NULL, so idx_conversations_pair
	// never conflicts for them (Postgres treats NULLs as distinct). The
	// partial index is what makes get-or-create race-safe; GORM tags cannot
	// express it.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_assistant
			ON conversations (type, user1_id) WHERE user2_id IS NULL`,
	).Error
}
