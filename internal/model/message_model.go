package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	Id               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId   uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_conversation_created"`
	SenderId         *uuid.UUID `gorm:"type:uuid;index"` // NULL for assistant-authored messages
	TextContent      *string    `gorm:"type:varchar(4000)"`
	IsEdited         bool       `gorm:"not null;default:false"`
	EditedAt         *time.Time
	ReplyToMessageId *uuid.UUID     `gorm:"type:uuid"` // same-conversation rule enforced in the store, not by constraint
	CreatedAt        time.Time      `gorm:"autoCreateTime;index:idx_messages_conversation_created"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`

	Contents []MessageContent `gorm:"foreignKey:MessageId;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageContent struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_message_contents_order"`
	ContentType  string    `gorm:"type:varchar(16);not null"`
	TextContent  *string   `gorm:"type:text"`
	FileURL      *string   `gorm:"type:text"`
	FileName     *string   `gorm:"type:varchar(255)"`
	MimeType     *string   `gorm:"type:varchar(127)"`
	FileSize     *int64
	Width        *int
	Height       *int
	ThumbnailURL *string   `gorm:"type:text"`
	Order        int       `gorm:"column:content_order;not null;uniqueIndex:idx_message_contents_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (MessageContent) TableName() string {
	return "message_contents"
}
