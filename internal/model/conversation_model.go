package model

import (
	"time"

	"github.com/google/uuid"
)

// Conversation rows with a NULL user2_id (assistant conversations) are
// deduplicated by the partial index idx_conversations_assistant created in
// database.Migrate; idx_conversations_pair cannot cover them.
type Conversation struct {
	Id             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type           string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_conversations_pair"`
	User1Id        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair;index"`
	User2Id        *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_conversations_pair;index"`
	LastActivityAt time.Time  `gorm:"not null"`
	IsActive       bool       `gorm:"not null;default:true"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}
