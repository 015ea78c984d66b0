package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessageTextLength bounds the text payload of a single message.
const MaxMessageTextLength = 4000

type ContentType string

const (
	ContentTypeText   ContentType = "text"
	ContentTypeImage  ContentType = "image"
	ContentTypeFile   ContentType = "file"
	ContentTypeSystem ContentType = "system"
)

type Message struct {
	Id               uuid.UUID
	ConversationId   uuid.UUID
	SenderId         *uuid.UUID // nil when authored by the assistant
	TextContent      *string
	IsEdited         bool
	EditedAt         *time.Time
	ReplyToMessageId *uuid.UUID
	Contents         []*MessageContent
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
}

// IsAssistant reports whether the message was authored by the assistant.
func (m *Message) IsAssistant() bool {
	return m.SenderId == nil
}

type MessageContent struct {
	Id           uuid.UUID
	MessageId    uuid.UUID
	ContentType  ContentType
	TextContent  *string
	FileURL      *string
	FileName     *string
	MimeType     *string
	FileSize     *int64
	Width        *int
	Height       *int
	ThumbnailURL *string
	Order        int
	CreatedAt    time.Time
}
