package model

import (
	"time"

	"github.com/google/uuid"
)

type AssistantConversationContext struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	SystemPrompt      string    `gorm:"type:varchar(2000);not null"`
	LastInteractionAt time.Time `gorm:"not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

func (AssistantConversationContext) TableName() string {
	return "assistant_conversation_contexts"
}
