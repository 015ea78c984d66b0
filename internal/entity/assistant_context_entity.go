package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaxSystemPromptLength bounds the stored assistant system prompt.
const MaxSystemPromptLength = 2000

// AssistantConversationContext is one-to-one with a user-to-assistant
// conversation and is deleted with it.
type AssistantConversationContext struct {
	Id                uuid.UUID
	ConversationId    uuid.UUID
	SystemPrompt      string
	LastInteractionAt time.Time
	CreatedAt         time.Time
}
