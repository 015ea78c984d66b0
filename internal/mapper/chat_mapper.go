package mapper

import (
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/model"

	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:             c.Id,
		Type:           entity.ConversationType(c.Type),
		User1Id:        c.User1Id,
		User2Id:        c.User2Id,
		LastActivityAt: c.LastActivityAt,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:             c.Id,
		Type:           string(c.Type),
		User1Id:        c.User1Id,
		User2Id:        c.User2Id,
		LastActivityAt: c.LastActivityAt,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	contents := make([]*entity.MessageContent, len(msg.Contents))
	for i := range msg.Contents {
		contents[i] = m.MessageContentToEntity(&msg.Contents[i])
	}

	return &entity.Message{
		Id:               msg.Id,
		ConversationId:   msg.ConversationId,
		SenderId:         msg.SenderId,
		TextContent:      msg.TextContent,
		IsEdited:         msg.IsEdited,
		EditedAt:         msg.EditedAt,
		ReplyToMessageId: msg.ReplyToMessageId,
		Contents:         contents,
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
		IsDeleted:        msg.DeletedAt.Valid,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if msg.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	} else if msg.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	contents := make([]model.MessageContent, len(msg.Contents))
	for i, c := range msg.Contents {
		contents[i] = *m.MessageContentToModel(c)
	}

	return &model.Message{
		Id:               msg.Id,
		ConversationId:   msg.ConversationId,
		SenderId:         msg.SenderId,
		TextContent:      msg.TextContent,
		IsEdited:         msg.IsEdited,
		EditedAt:         msg.EditedAt,
		ReplyToMessageId: msg.ReplyToMessageId,
		Contents:         contents,
		CreatedAt:        msg.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
	}
}

// Content Mappers

func (m *ChatMapper) MessageContentToEntity(c *model.MessageContent) *entity.MessageContent {
	if c == nil {
		return nil
	}

	return &entity.MessageContent{
		Id:           c.Id,
		MessageId:    c.MessageId,
		ContentType:  entity.ContentType(c.ContentType),
		TextContent:  c.TextContent,
		FileURL:      c.FileURL,
		FileName:     c.FileName,
		MimeType:     c.MimeType,
		FileSize:     c.FileSize,
		Width:        c.Width,
		Height:       c.Height,
		ThumbnailURL: c.ThumbnailURL,
		Order:        c.Order,
		CreatedAt:    c.CreatedAt,
	}
}

func (m *ChatMapper) MessageContentToModel(c *entity.MessageContent) *model.MessageContent {
	if c == nil {
		return nil
	}

	return &model.MessageContent{
		Id:           c.Id,
		MessageId:    c.MessageId,
		ContentType:  string(c.ContentType),
		TextContent:  c.TextContent,
		FileURL:      c.FileURL,
		FileName:     c.FileName,
		MimeType:     c.MimeType,
		FileSize:     c.FileSize,
		Width:        c.Width,
		Height:       c.Height,
		ThumbnailURL: c.ThumbnailURL,
		Order:        c.Order,
		CreatedAt:    c.CreatedAt,
	}
}

// Read Status Mappers

func (m *ChatMapper) ReadStatusToEntity(s *model.MessageReadStatus) *entity.MessageReadStatus {
	if s == nil {
		return nil
	}
	return &entity.MessageReadStatus{
		Id:        s.Id,
		MessageId: s.MessageId,
		UserId:    s.UserId,
		Status:    entity.ReadStatus(s.Status),
		StatusAt:  s.StatusAt,
	}
}

func (m *ChatMapper) ReadStatusToModel(s *entity.MessageReadStatus) *model.MessageReadStatus {
	if s == nil {
		return nil
	}
	return &model.MessageReadStatus{
		Id:        s.Id,
		MessageId: s.MessageId,
		UserId:    s.UserId,
		Status:    string(s.Status),
		StatusAt:  s.StatusAt,
	}
}

// Assistant Context Mappers

func (m *ChatMapper) AssistantContextToEntity(c *model.AssistantConversationContext) *entity.AssistantConversationContext {
	if c == nil {
		return nil
	}
	return &entity.AssistantConversationContext{
		Id:                c.Id,
		ConversationId:    c.ConversationId,
		SystemPrompt:      c.SystemPrompt,
		LastInteractionAt: c.LastInteractionAt,
		CreatedAt:         c.CreatedAt,
	}
}

func (m *ChatMapper) AssistantContextToModel(c *entity.AssistantConversationContext) *model.AssistantConversationContext {
	if c == nil {
		return nil
	}
	return &model.AssistantConversationContext{
		Id:                c.Id,
		ConversationId:    c.ConversationId,
		SystemPrompt:      c.SystemPrompt,
		LastInteractionAt: c.LastInteractionAt,
		CreatedAt:         c.CreatedAt,
	}
}
