package service

import (
	"github.com/GeorgeShani/Learnyx-sub001/internal/dto"
	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
)

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	if m == nil {
		return nil
	}
	contents := make([]dto.MessageContentResponse, 0, len(m.Contents))
	for _, c := range m.Contents {
		contents = append(contents, dto.MessageContentResponse{
			Id:           c.Id,
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
		})
	}
	return &dto.MessageResponse{
		Id:               m.Id,
		ConversationId:   m.ConversationId,
		SenderId:         m.SenderId,
		TextContent:      m.TextContent,
		IsEdited:         m.IsEdited,
		EditedAt:         m.EditedAt,
		ReplyToMessageId: m.ReplyToMessageId,
		Contents:         contents,
		IsDeleted:        m.IsDeleted,
		CreatedAt:        m.CreatedAt,
	}
}

func toConversationResponse(c *entity.Conversation) *dto.ConversationResponse {
	if c == nil {
		return nil
	}
	return &dto.ConversationResponse{
		Id:             c.Id,
		Type:           string(c.Type),
		User1Id:        c.User1Id,
		User2Id:        c.User2Id,
		LastActivityAt: c.LastActivityAt,
		IsActive:       c.IsActive,
	}
}
