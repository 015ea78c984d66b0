package entity

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationTypeUserToUser      ConversationType = "user_to_user"
	ConversationTypeUserToAssistant ConversationType = "user_to_assistant"
)

type Conversation struct {
	Id             uuid.UUID
	Type           ConversationType
	User1Id        uuid.UUID
	User2Id        *uuid.UUID // nil for assistant conversations
	LastActivityAt time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// IsParticipant reports whether the user is one of the two parties.
func (c *Conversation) IsParticipant(userId uuid.UUID) bool {
	if c.User1Id == userId {
		return true
	}
	return c.User2Id != nil && *c.User2Id == userId
}

// OtherParticipant returns the counterpart of userId in a user-to-user
// conversation, or nil for assistant conversations.
func (c *Conversation) OtherParticipant(userId uuid.UUID) *uuid.UUID {
	if c.Type != ConversationTypeUserToUser || c.User2Id == nil {
		return nil
	}
	if c.User1Id == userId {
		return c.User2Id
	}
	u := c.User1Id
	return &u
}

// CanonicalPair orders a user pair deterministically so the uniqueness
// constraint on (user1_id, user2_id) is order-independent.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
