package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ByParticipant matches conversations the user takes part in, on either side
// of the canonical pair.
type ByParticipant struct {
	UserID uuid.UUID
}

func (s ByParticipant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user1_id = ? OR user2_id = ?", s.UserID, s.UserID)
}

// NotAuthoredBy matches messages not sent by the user, assistant messages
// included (sender_id IS NULL).
type NotAuthoredBy struct {
	UserID uuid.UUID
}

func (s NotAuthoredBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sender_id IS NULL OR sender_id <> ?", s.UserID)
}

// TextMatches performs a case-insensitive substring match on message text.
type TextMatches struct {
	Query string
}

func (s TextMatches) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("text_content ILIKE ?", "%"+s.Query+"%")
}

// InConversations limits messages to a set of conversation ids.
type InConversations struct {
	IDs []uuid.UUID
}

func (s InConversations) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id IN ?", s.IDs)
}

// WithContents preloads message content parts in position order.
type WithContents struct{}

func (s WithContents) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Contents", func(db *gorm.DB) *gorm.DB {
		return db.Order("content_order ASC")
	})
}
