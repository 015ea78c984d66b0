package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/apperror"
	"github.com/GeorgeShani/Learnyx-sub001/internal/dto"
	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/logger"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/memory"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/events"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/llm"

	"github.com/google/uuid"
)

const (
	// assistantHistoryWindow bounds how many recent messages feed the
	// assistant prompt.
	assistantHistoryWindow = 20

	// assistantTimeout caps a single generation call.
	assistantTimeout = 90 * time.Second
)

// IChatService enforces authorization and sequences the send/receive
// workflow on top of the conversation store.
type IChatService interface {
	CanAccess(ctx context.Context, conversationId, userId uuid.UUID) (bool, error)
	GetOrCreateConversation(ctx context.Context, userId uuid.UUID, request *dto.GetOrCreateConversationRequest) (*dto.ConversationResponse, error)
	GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error)
	DeactivateConversation(ctx context.Context, userId, conversationId uuid.UUID) error
	UpdateAssistantPrompt(ctx context.Context, userId, conversationId uuid.UUID, prompt string) error

	// SendMessage persists a user message. The second return value reports
	// whether the conversation is assistant-typed so the caller can schedule
	// the assistant turn; the orchestrator itself never blocks on generation.
	SendMessage(ctx context.Context, userId uuid.UUID, request *dto.SendMessageRequest) (*dto.MessageResponse, bool, error)

	// GetAssistantResponse generates a reply from recent history. It has no
	// side effects; persisting the reply is SendAssistantMessage so a
	// transient failure never leaves an orphaned message.
	GetAssistantResponse(ctx context.Context, conversationId uuid.UUID) (string, error)
	SendAssistantMessage(ctx context.Context, conversationId uuid.UUID, text string) (*dto.MessageResponse, error)

	MarkAsRead(ctx context.Context, messageId, userId uuid.UUID) (*dto.ReadStatusResponse, error)
	MarkAllAsRead(ctx context.Context, conversationId, userId uuid.UUID) (*dto.MarkAllReadResponse, error)
	EditMessage(ctx context.Context, userId uuid.UUID, request *dto.EditMessageRequest) (*dto.MessageResponse, error)
	DeleteMessage(ctx context.Context, userId, messageId uuid.UUID) (*dto.MessageResponse, error)
	GetMessagesPage(ctx context.Context, userId, conversationId uuid.UUID, page, pageSize int) (*dto.MessagesPageResponse, error)
	SearchMessages(ctx context.Context, userId uuid.UUID, query string, conversationId *uuid.UUID) ([]*dto.MessageResponse, error)
}

type chatService struct {
	store       IConversationService
	llmProvider llm.LLMProvider
	publisher   IPublisherService
	presence    *memory.PresenceRepository
	logger      logger.ILogger
}

func NewChatService(
	store IConversationService,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	presence *memory.PresenceRepository,
	log logger.ILogger,
) IChatService {
	return &chatService{
		store:       store,
		llmProvider: llmProvider,
		publisher:   publisher,
		presence:    presence,
		logger:      log,
	}
}

func (cs *chatService) CanAccess(ctx context.Context, conversationId, userId uuid.UUID) (bool, error) {
	conversation, err := cs.store.GetConversation(ctx, conversationId)
	if err != nil {
		return false, err
	}
	return conversation.IsParticipant(userId), nil
}

// requireAccess loads the conversation and rejects non-participants.
func (cs *chatService) requireAccess(ctx context.Context, conversationId, userId uuid.UUID) (*entity.Conversation, error) {
	conversation, err := cs.store.GetConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if !conversation.IsParticipant(userId) {
		return nil, apperror.NewForbidden("user %s is not a participant of conversation %s", userId, conversationId)
	}
	return conversation, nil
}

func (cs *chatService) GetOrCreateConversation(ctx context.Context, userId uuid.UUID, request *dto.GetOrCreateConversationRequest) (*dto.ConversationResponse, error) {
	convType := entity.ConversationType(request.Type)
	if convType == entity.ConversationTypeUserToUser {
		if request.PeerId == nil {
			return nil, apperror.NewValidation("peer_id is required for a user-to-user conversation")
		}
		if _, err := cs.store.GetUser(ctx, *request.PeerId); err != nil {
			return nil, err
		}
	}

	conversation, err := cs.store.GetOrCreateConversation(ctx, userId, request.PeerId, convType)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(conversation), nil
}

func (cs *chatService) GetConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationResponse, error) {
	conversations, err := cs.store.GetConversationsForUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	response := make([]*dto.ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		r := toConversationResponse(c)
		if peer := c.OtherParticipant(userId); peer != nil {
			if cs.presence != nil {
				online := cs.presence.IsOnline(*peer)
				r.PeerOnline = &online
			}
			// A missing peer row just leaves the profile fields empty.
			if user, err := cs.store.GetUser(ctx, *peer); err == nil && user != nil {
				r.PeerName = &user.DisplayName
				r.PeerAvatarURL = user.AvatarURL
			}
		}
		response = append(response, r)
	}
	return response, nil
}

// DeactivateConversation retires a conversation for its participant. The
// row and its messages stay; the store only drops the active flag.
func (cs *chatService) DeactivateConversation(ctx context.Context, userId, conversationId uuid.UUID) error {
	if _, err := cs.requireAccess(ctx, conversationId, userId); err != nil {
		return err
	}
	return cs.store.DeactivateConversation(ctx, conversationId)
}

func (cs *chatService) UpdateAssistantPrompt(ctx context.Context, userId, conversationId uuid.UUID, prompt string) error {
	conversation, err := cs.requireAccess(ctx, conversationId, userId)
	if err != nil {
		return err
	}
	if conversation.Type != entity.ConversationTypeUserToAssistant {
		return apperror.NewValidation("conversation %s is not assistant-typed", conversationId)
	}
	if len(prompt) > entity.MaxSystemPromptLength {
		return apperror.NewValidation("system prompt exceeds %d characters", entity.MaxSystemPromptLength)
	}
	return cs.store.UpdateAssistantPrompt(ctx, conversationId, prompt)
}

func (cs *chatService) SendMessage(ctx context.Context, userId uuid.UUID, request *dto.SendMessageRequest) (*dto.MessageResponse, bool, error) {
	conversation, err := cs.requireAccess(ctx, request.ConversationId, userId)
	if err != nil {
		return nil, false, err
	}

	contents := make([]*entity.MessageContent, 0, len(request.Contents))
	for _, c := range request.Contents {
		contents = append(contents, &entity.MessageContent{
			ContentType:  entity.ContentType(c.ContentType),
			TextContent:  c.TextContent,
			FileURL:      c.FileURL,
			FileName:     c.FileName,
			MimeType:     c.MimeType,
			FileSize:     c.FileSize,
			Width:        c.Width,
			Height:       c.Height,
			ThumbnailURL: c.ThumbnailURL,
		})
	}

	sender := userId
	message, err := cs.store.AppendMessage(ctx, conversation.Id, &sender, request.Text, contents, request.ReplyToMessageId)
	if err != nil {
		return nil, false, err
	}

	cs.publishMessageSent(ctx, conversation, message)

	isAssistant := conversation.Type == entity.ConversationTypeUserToAssistant
	return toMessageResponse(message), isAssistant, nil
}

// publishEvent puts a chat event onto the in-process bus. Best-effort: a
// bus failure never fails the operation that produced the event.
func (cs *chatService) publishEvent(ctx context.Context, payload dto.PublishChatEvent) {
	if cs.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := cs.publisher.Publish(ctx, data); err != nil {
		cs.logger.Warn("ChatService", "Failed to publish chat event", map[string]interface{}{
			"kind":            payload.Kind,
			"conversation_id": payload.ConversationId,
			"error":           err,
		})
	}
}

func (cs *chatService) publishMessageSent(ctx context.Context, conversation *entity.Conversation, message *entity.Message) {
	var recipient *uuid.UUID
	if message.SenderId != nil {
		recipient = conversation.OtherParticipant(*message.SenderId)
	}
	cs.publishEvent(ctx, dto.PublishChatEvent{
		Kind:           events.EventTypeMessageSent,
		ConversationId: conversation.Id,
		MessageId:      &message.Id,
		SenderId:       message.SenderId,
		RecipientId:    recipient,
	})
}

func (cs *chatService) GetAssistantResponse(ctx context.Context, conversationId uuid.UUID) (string, error) {
	conversation, err := cs.store.GetConversation(ctx, conversationId)
	if err != nil {
		return "", err
	}
	if conversation.Type != entity.ConversationTypeUserToAssistant {
		return "", apperror.NewValidation("conversation %s is not assistant-typed", conversationId)
	}

	assistantCtx, err := cs.store.GetAssistantContext(ctx, conversationId)
	if err != nil {
		return "", err
	}
	historyWindow, err := cs.store.GetHistoryWindow(ctx, conversationId, assistantHistoryWindow)
	if err != nil {
		return "", err
	}

	history := make([]llm.Message, 0, len(historyWindow)+1)
	if assistantCtx.SystemPrompt != "" {
		history = append(history, llm.Message{Role: "system", Content: assistantCtx.SystemPrompt})
	}
	for _, m := range historyWindow {
		if m.TextContent == nil {
			continue
		}
		role := "user"
		if m.IsAssistant() {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: *m.TextContent})
	}

	genCtx, cancel := context.WithTimeout(ctx, assistantTimeout)
	defer cancel()

	text, err := cs.llmProvider.Chat(genCtx, history)
	if err != nil {
		cs.logger.Error("ChatService", "Assistant generation failed", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err,
		})
		cs.publishEvent(ctx, dto.PublishChatEvent{
			Kind:           events.EventTypeAssistantFailed,
			ConversationId: conversationId,
			Reason:         err.Error(),
		})
		return "", apperror.NewAssistantUnavailable(err)
	}
	return text, nil
}

func (cs *chatService) SendAssistantMessage(ctx context.Context, conversationId uuid.UUID, text string) (*dto.MessageResponse, error) {
	conversation, err := cs.store.GetConversation(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if conversation.Type != entity.ConversationTypeUserToAssistant {
		return nil, apperror.NewValidation("conversation %s is not assistant-typed", conversationId)
	}

	message, err := cs.store.AppendMessage(ctx, conversationId, nil, &text, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := cs.store.TouchAssistantInteraction(ctx, conversationId); err != nil {
		cs.logger.Warn("ChatService", "Failed to touch assistant interaction time", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err,
		})
	}

	cs.publishEvent(ctx, dto.PublishChatEvent{
		Kind:           events.EventTypeAssistantReply,
		ConversationId: conversationId,
		MessageId:      &message.Id,
	})
	return toMessageResponse(message), nil
}

func (cs *chatService) MarkAsRead(ctx context.Context, messageId, userId uuid.UUID) (*dto.ReadStatusResponse, error) {
	message, err := cs.store.GetMessage(ctx, messageId)
	if err != nil {
		return nil, err
	}
	if _, err := cs.requireAccess(ctx, message.ConversationId, userId); err != nil {
		return nil, err
	}
	if message.SenderId != nil && *message.SenderId == userId {
		return nil, apperror.NewValidation("cannot mark own message as read")
	}

	if _, err := cs.store.SetReadStatus(ctx, messageId, userId, entity.ReadStatusRead); err != nil {
		return nil, err
	}

	cs.publishEvent(ctx, dto.PublishChatEvent{
		Kind:           events.EventTypeMessageRead,
		ConversationId: message.ConversationId,
		MessageId:      &messageId,
		ReaderId:       &userId,
	})
	return &dto.ReadStatusResponse{
		ConversationId: message.ConversationId,
		MessageId:      messageId,
		UserId:         userId,
		Status:         string(entity.ReadStatusRead),
		StatusAt:       time.Now(),
	}, nil
}

func (cs *chatService) MarkAllAsRead(ctx context.Context, conversationId, userId uuid.UUID) (*dto.MarkAllReadResponse, error) {
	if _, err := cs.requireAccess(ctx, conversationId, userId); err != nil {
		return nil, err
	}
	marked, err := cs.store.MarkConversationRead(ctx, conversationId, userId)
	if err != nil {
		return nil, err
	}
	return &dto.MarkAllReadResponse{
		ConversationId: conversationId,
		MarkedCount:    marked,
	}, nil
}

func (cs *chatService) EditMessage(ctx context.Context, userId uuid.UUID, request *dto.EditMessageRequest) (*dto.MessageResponse, error) {
	message, err := cs.store.GetMessage(ctx, request.MessageId)
	if err != nil {
		return nil, err
	}
	// Only the original sender may edit; assistant messages have no sender
	// and are immutable.
	if message.SenderId == nil || *message.SenderId != userId {
		return nil, apperror.NewForbidden("only the original sender may edit a message")
	}

	edited, err := cs.store.EditMessage(ctx, request.MessageId, request.Text)
	if err != nil {
		return nil, err
	}
	return toMessageResponse(edited), nil
}

func (cs *chatService) DeleteMessage(ctx context.Context, userId, messageId uuid.UUID) (*dto.MessageResponse, error) {
	message, err := cs.store.GetMessage(ctx, messageId)
	if err != nil {
		return nil, err
	}
	if message.SenderId == nil || *message.SenderId != userId {
		return nil, apperror.NewForbidden("only the original sender may delete a message")
	}

	deleted, err := cs.store.DeleteMessage(ctx, messageId)
	if err != nil {
		return nil, err
	}
	return toMessageResponse(deleted), nil
}

func (cs *chatService) GetMessagesPage(ctx context.Context, userId, conversationId uuid.UUID, page, pageSize int) (*dto.MessagesPageResponse, error) {
	if _, err := cs.requireAccess(ctx, conversationId, userId); err != nil {
		return nil, err
	}

	messages, total, err := cs.store.GetMessagesPage(ctx, conversationId, page, pageSize)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	response := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, toMessageResponse(m))
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.MessagesPageResponse{
		Messages:   response,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

func (cs *chatService) SearchMessages(ctx context.Context, userId uuid.UUID, query string, conversationId *uuid.UUID) ([]*dto.MessageResponse, error) {
	if conversationId != nil {
		if _, err := cs.requireAccess(ctx, *conversationId, userId); err != nil {
			return nil, err
		}
	}

	messages, err := cs.store.SearchMessages(ctx, userId, query, conversationId)
	if err != nil {
		return nil, err
	}
	response := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, toMessageResponse(m))
	}
	return response, nil
}
