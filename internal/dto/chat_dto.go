package dto

import (
	"time"

	"github.com/google/uuid"
)

type GetOrCreateConversationRequest struct {
	Type   string     `json:"type" validate:"required,oneof=user_to_user user_to_assistant"`
	PeerId *uuid.UUID `json:"peer_id,omitempty"` // required for user_to_user
}

type ConversationResponse struct {
	Id             uuid.UUID  `json:"id"`
	Type           string     `json:"type"`
	User1Id        uuid.UUID  `json:"user1_id"`
	User2Id        *uuid.UUID `json:"user2_id,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	IsActive       bool       `json:"is_active"`
	PeerOnline     *bool      `json:"peer_online,omitempty"`
	PeerName       *string    `json:"peer_name,omitempty"`
	PeerAvatarURL  *string    `json:"peer_avatar_url,omitempty"`
}

type MessageContentRequest struct {
	ContentType  string  `json:"content_type" validate:"required,oneof=text image file system"`
	TextContent  *string `json:"text_content,omitempty"`
	FileURL      *string `json:"file_url,omitempty"`
	FileName     *string `json:"file_name,omitempty"`
	MimeType     *string `json:"mime_type,omitempty"`
	FileSize     *int64  `json:"file_size,omitempty"`
	Width        *int    `json:"width,omitempty"`
	Height       *int    `json:"height,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}

type SendMessageRequest struct {
	ConversationId   uuid.UUID               `json:"conversation_id" validate:"required"`
	Text             *string                 `json:"text,omitempty" validate:"omitempty,max=4000"`
	Contents         []MessageContentRequest `json:"contents,omitempty" validate:"omitempty,max=10,dive"`
	ReplyToMessageId *uuid.UUID              `json:"reply_to_message_id,omitempty"`
}

type EditMessageRequest struct {
	MessageId uuid.UUID `json:"message_id" validate:"required"`
	Text      string    `json:"text" validate:"required,max=4000"`
}

type MessageContentResponse struct {
	Id           uuid.UUID `json:"id"`
	ContentType  string    `json:"content_type"`
	TextContent  *string   `json:"text_content,omitempty"`
	FileURL      *string   `json:"file_url,omitempty"`
	FileName     *string   `json:"file_name,omitempty"`
	MimeType     *string   `json:"mime_type,omitempty"`
	FileSize     *int64    `json:"file_size,omitempty"`
	Width        *int      `json:"width,omitempty"`
	Height       *int      `json:"height,omitempty"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	Order        int       `json:"order"`
}

type MessageResponse struct {
	Id               uuid.UUID                `json:"id"`
	ConversationId   uuid.UUID                `json:"conversation_id"`
	SenderId         *uuid.UUID               `json:"sender_id,omitempty"` // absent for assistant messages
	TextContent      *string                  `json:"text_content,omitempty"`
	IsEdited         bool                     `json:"is_edited"`
	EditedAt         *time.Time               `json:"edited_at,omitempty"`
	ReplyToMessageId *uuid.UUID               `json:"reply_to_message_id,omitempty"`
	Contents         []MessageContentResponse `json:"contents,omitempty"`
	IsDeleted        bool                     `json:"is_deleted"`
	CreatedAt        time.Time                `json:"created_at"`
}

type MessagesPageResponse struct {
	Messages   []*MessageResponse `json:"messages"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalCount int64              `json:"total_count"`
	TotalPages int                `json:"total_pages"`
}

type SearchMessagesRequest struct {
	Query          string     `json:"query" validate:"required,min=1,max=255"`
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
}

type ReadStatusResponse struct {
	ConversationId uuid.UUID `json:"conversation_id"`

	MessageId uuid.UUID `json:"message_id"`
	UserId    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	StatusAt  time.Time `json:"status_at"`
}

type MarkAllReadResponse struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	MarkedCount    int       `json:"marked_count"`
}

type UpdateAssistantPromptRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

// PublishChatEvent is the payload sent onto the internal bus when chat
// state changes. Kind carries the event stream type; the consumer relays
// it to the durable stream.
type PublishChatEvent struct {
	Kind           string     `json:"kind"`
	ConversationId uuid.UUID  `json:"conversation_id"`
	MessageId      *uuid.UUID `json:"message_id,omitempty"`
	SenderId       *uuid.UUID `json:"sender_id,omitempty"`
	RecipientId    *uuid.UUID `json:"recipient_id,omitempty"`
	ReaderId       *uuid.UUID `json:"reader_id,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}
