package service

import (
	"context"
	"strings"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/apperror"
	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/syncutil"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/specification"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// DefaultAssistantSystemPrompt seeds the context of a fresh assistant
// conversation.
const DefaultAssistantSystemPrompt = "You are a helpful learning assistant. Answer concisely and stay on topic."

// IConversationService is the persistence-facing store for conversations,
// messages, content parts and read statuses. It is authorization-agnostic;
// access rules live in the chat service.
type IConversationService interface {
	GetOrCreateConversation(ctx context.Context, user1 uuid.UUID, user2 *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	GetConversationsForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Conversation, error)
	DeactivateConversation(ctx context.Context, id uuid.UUID) error

	AppendMessage(ctx context.Context, conversationId uuid.UUID, senderId *uuid.UUID, text *string, contents []*entity.MessageContent, replyTo *uuid.UUID) (*entity.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	EditMessage(ctx context.Context, messageId uuid.UUID, newText string) (*entity.Message, error)
	DeleteMessage(ctx context.Context, messageId uuid.UUID) (*entity.Message, error)
	GetMessagesPage(ctx context.Context, conversationId uuid.UUID, page, pageSize int) ([]*entity.Message, int64, error)
	GetHistoryWindow(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.Message, error)
	SearchMessages(ctx context.Context, userId uuid.UUID, query string, conversationId *uuid.UUID) ([]*entity.Message, error)

	SetReadStatus(ctx context.Context, messageId, userId uuid.UUID, status entity.ReadStatus) (bool, error)
	MarkConversationRead(ctx context.Context, conversationId, userId uuid.UUID) (int, error)

	GetAssistantContext(ctx context.Context, conversationId uuid.UUID) (*entity.AssistantConversationContext, error)
	TouchAssistantInteraction(ctx context.Context, conversationId uuid.UUID) error
	UpdateAssistantPrompt(ctx context.Context, conversationId uuid.UUID, prompt string) error

	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type conversationService struct {
	uowFactory unitofwork.RepositoryFactory

	// Serializes writes within a conversation so content order assignment
	// and lastActivityAt updates never interleave.
	writeLocks *syncutil.KeyedMutex
}

func NewConversationService(uowFactory unitofwork.RepositoryFactory) IConversationService {
	return &conversationService{
		uowFactory: uowFactory,
		writeLocks: syncutil.NewKeyedMutex(),
	}
}

func (cs *conversationService) GetOrCreateConversation(ctx context.Context, user1 uuid.UUID, user2 *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	var u1 uuid.UUID
	var u2 *uuid.UUID
	switch convType {
	case entity.ConversationTypeUserToUser:
		if user2 == nil {
			return nil, apperror.NewValidation("a user-to-user conversation requires two participants")
		}
		if *user2 == user1 {
			return nil, apperror.NewValidation("cannot start a conversation with yourself")
		}
		a, b := entity.CanonicalPair(user1, *user2)
		u1 = a
		u2 = &b
	case entity.ConversationTypeUserToAssistant:
		u1 = user1
		u2 = nil
	default:
		return nil, apperror.NewValidation("unknown conversation type %q", convType)
	}

	existing, err := cs.findByPair(ctx, uow, convType, u1, u2)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Repairs a conversation whose context insert never landed.
		if convType == entity.ConversationTypeUserToAssistant {
			if err := cs.ensureAssistantContext(ctx, uow, existing.Id); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	now := time.Now()
	conversation := &entity.Conversation{
		Id:             uuid.New(),
		Type:           convType,
		User1Id:        u1,
		User2Id:        u2,
		LastActivityAt: now,
		IsActive:       true,
		CreatedAt:      now,
	}

	created, err := uow.ConversationRepository().CreateIfAbsent(ctx, conversation)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the insert race; the winner's row is the conversation.
		winner, err := cs.findByPair(ctx, uow, convType, u1, u2)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, apperror.NewConflict("conversation creation race could not be resolved")
		}
		conversation = winner
	}

	if convType == entity.ConversationTypeUserToAssistant {
		if err := cs.ensureAssistantContext(ctx, uow, conversation.Id); err != nil {
			return nil, err
		}
	}

	return conversation, nil
}

// ensureAssistantContext is the idempotent half of assistant conversation
// creation; it also heals a conversation left without one by a crash
// between the two inserts.
func (cs *conversationService) ensureAssistantContext(ctx context.Context, uow unitofwork.UnitOfWork, conversationId uuid.UUID) error {
	now := time.Now()
	assistantCtx := &entity.AssistantConversationContext{
		Id:                uuid.New(),
		ConversationId:    conversationId,
		SystemPrompt:      DefaultAssistantSystemPrompt,
		LastInteractionAt: now,
		CreatedAt:         now,
	}
	_, err := uow.AssistantContextRepository().CreateIfAbsent(ctx, assistantCtx)
	return err
}

func (cs *conversationService) findByPair(ctx context.Context, uow unitofwork.UnitOfWork, convType entity.ConversationType, u1 uuid.UUID, u2 *uuid.UUID) (*entity.Conversation, error) {
	specs := []specification.Specification{
		specification.Filter("type", string(convType)),
		specification.Filter("user1_id", u1),
	}
	if u2 != nil {
		specs = append(specs, specification.Filter("user2_id", *u2))
	} else {
		specs = append(specs, specification.IsNull{Field: "user2_id"})
	}
	return uow.ConversationRepository().FindOne(ctx, specs...)
}

func (cs *conversationService) GetConversation(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperror.NewNotFound("conversation %s not found", id)
	}
	return conversation, nil
}

func (cs *conversationService) GetConversationsForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Conversation, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().FindAll(ctx,
		specification.ByParticipant{UserID: userId},
		specification.OrderBy{Field: "last_activity_at", Desc: true},
	)
}

func (cs *conversationService) DeactivateConversation(ctx context.Context, id uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	return uow.ConversationRepository().Deactivate(ctx, id)
}

func (cs *conversationService) AppendMessage(ctx context.Context, conversationId uuid.UUID, senderId *uuid.UUID, text *string, contents []*entity.MessageContent, replyTo *uuid.UUID) (*entity.Message, error) {
	hasText := text != nil && strings.TrimSpace(*text) != ""
	if !hasText && len(contents) == 0 {
		return nil, apperror.NewValidation("message must carry text or at least one content part")
	}
	if hasText && len(*text) > entity.MaxMessageTextLength {
		return nil, apperror.NewValidation("message text exceeds %d characters", entity.MaxMessageTextLength)
	}

	cs.writeLocks.Lock(conversationId)
	defer cs.writeLocks.Unlock(conversationId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	conversation, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperror.NewNotFound("conversation %s not found", conversationId)
	}

	if replyTo != nil {
		parent, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: *replyTo})
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperror.NewNotFound("reply target %s not found", *replyTo)
		}
		// Cross-conversation replies need a join a DB constraint cannot
		// express; checked here at write time.
		if parent.ConversationId != conversationId {
			return nil, apperror.NewValidation("reply target belongs to a different conversation")
		}
	}

	now := time.Now()
	message := &entity.Message{
		Id:               uuid.New(),
		ConversationId:   conversationId,
		SenderId:         senderId,
		ReplyToMessageId: replyTo,
		CreatedAt:        now,
	}
	if hasText {
		t := strings.TrimSpace(*text)
		message.TextContent = &t
	}
	for i, c := range contents {
		part := *c
		part.Id = uuid.New()
		part.MessageId = message.Id
		part.Order = i
		part.CreatedAt = now
		message.Contents = append(message.Contents, &part)
	}

	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, err
	}
	if err := uow.ConversationRepository().TouchLastActivity(ctx, conversationId, now); err != nil {
		return nil, err
	}

	// The message is now visible to the recipient; seed their receipt row.
	if recipient := cs.recipientOf(conversation, senderId); recipient != nil {
		receipt := &entity.MessageReadStatus{
			Id:        uuid.New(),
			MessageId: message.Id,
			UserId:    *recipient,
			Status:    entity.ReadStatusSent,
			StatusAt:  now,
		}
		if _, err := uow.ReadStatusRepository().UpsertMonotonic(ctx, receipt); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return message, nil
}

// recipientOf resolves the human recipient of a message, nil when the
// counterpart is the assistant.
func (cs *conversationService) recipientOf(conversation *entity.Conversation, senderId *uuid.UUID) *uuid.UUID {
	if conversation.Type != entity.ConversationTypeUserToUser {
		if senderId == nil {
			// Assistant-authored message in an assistant conversation is
			// addressed to the owner.
			u := conversation.User1Id
			return &u
		}
		return nil
	}
	if senderId == nil {
		return nil
	}
	return conversation.OtherParticipant(*senderId)
}

func (cs *conversationService) GetMessage(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: id}, specification.WithContents{})
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NewNotFound("message %s not found", id)
	}
	return message, nil
}

func (cs *conversationService) EditMessage(ctx context.Context, messageId uuid.UUID, newText string) (*entity.Message, error) {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return nil, apperror.NewValidation("message text cannot be empty")
	}
	if len(newText) > entity.MaxMessageTextLength {
		return nil, apperror.NewValidation("message text exceeds %d characters", entity.MaxMessageTextLength)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId}, specification.WithContents{})
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NewNotFound("message %s not found", messageId)
	}

	now := time.Now()
	message.TextContent = &newText
	message.IsEdited = true
	message.EditedAt = &now
	if err := uow.MessageRepository().Update(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

func (cs *conversationService) DeleteMessage(ctx context.Context, messageId uuid.UUID) (*entity.Message, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NewNotFound("message %s not found", messageId)
	}

	// Soft delete keeps the row so reply references stay resolvable; text
	// and content parts are cleared so the tombstone carries no payload.
	// One transaction: a half-stripped message must never survive an error.
	message.TextContent = nil
	message.Contents = nil
	if err := uow.MessageRepository().Update(ctx, message); err != nil {
		return nil, err
	}
	if err := uow.MessageRepository().DeleteContents(ctx, messageId); err != nil {
		return nil, err
	}
	if err := uow.MessageRepository().Delete(ctx, messageId); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	message.IsDeleted = true
	return message, nil
}

func (cs *conversationService) GetMessagesPage(ctx context.Context, conversationId uuid.UUID, page, pageSize int) ([]*entity.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	// Tombstones stay in the page so reply references keep resolving.
	total, err := uow.MessageRepository().Count(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.IncludeDeleted{},
	)
	if err != nil {
		return nil, 0, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.IncludeDeleted{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Pagination{Limit: pageSize, Offset: (page - 1) * pageSize},
		specification.WithContents{},
	)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (cs *conversationService) GetHistoryWindow(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.Message, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Pagination{Limit: limit, Offset: 0},
	)
	if err != nil {
		return nil, err
	}
	// Chronological order for prompt assembly.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (cs *conversationService) SearchMessages(ctx context.Context, userId uuid.UUID, query string, conversationId *uuid.UUID) ([]*entity.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.NewValidation("search query cannot be empty")
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	conversations, err := uow.ConversationRepository().FindAll(ctx, specification.ByParticipant{UserID: userId})
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(conversations))
	for _, c := range conversations {
		if conversationId != nil && c.Id != *conversationId {
			continue
		}
		ids = append(ids, c.Id)
	}
	if len(ids) == 0 {
		return []*entity.Message{}, nil
	}

	return uow.MessageRepository().FindAll(ctx,
		specification.InConversations{IDs: ids},
		specification.TextMatches{Query: query},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.WithContents{},
	)
}

func (cs *conversationService) SetReadStatus(ctx context.Context, messageId, userId uuid.UUID, status entity.ReadStatus) (bool, error) {
	if status.Rank() < 0 {
		return false, apperror.NewValidation("unknown read status %q", status)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return false, err
	}
	if message == nil {
		return false, apperror.NewNotFound("message %s not found", messageId)
	}

	return uow.ReadStatusRepository().UpsertMonotonic(ctx, &entity.MessageReadStatus{
		Id:        uuid.New(),
		MessageId: messageId,
		UserId:    userId,
		Status:    status,
		StatusAt:  time.Now(),
	})
}

func (cs *conversationService) MarkConversationRead(ctx context.Context, conversationId, userId uuid.UUID) (int, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	ids, err := uow.MessageRepository().FindIDsNotAuthoredBy(ctx, conversationId, userId)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	marked := 0
	for _, id := range ids {
		advanced, err := uow.ReadStatusRepository().UpsertMonotonic(ctx, &entity.MessageReadStatus{
			Id:        uuid.New(),
			MessageId: id,
			UserId:    userId,
			Status:    entity.ReadStatusRead,
			StatusAt:  now,
		})
		if err != nil {
			return marked, err
		}
		if advanced {
			marked++
		}
	}
	return marked, nil
}

func (cs *conversationService) GetAssistantContext(ctx context.Context, conversationId uuid.UUID) (*entity.AssistantConversationContext, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	assistantCtx, err := uow.AssistantContextRepository().FindByConversationId(ctx, conversationId)
	if err != nil {
		return nil, err
	}
	if assistantCtx == nil {
		return nil, apperror.NewNotFound("assistant context for conversation %s not found", conversationId)
	}
	return assistantCtx, nil
}

func (cs *conversationService) TouchAssistantInteraction(ctx context.Context, conversationId uuid.UUID) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	return uow.AssistantContextRepository().TouchLastInteraction(ctx, conversationId, time.Now())
}

func (cs *conversationService) UpdateAssistantPrompt(ctx context.Context, conversationId uuid.UUID, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apperror.NewValidation("system prompt cannot be empty")
	}
	if len(prompt) > entity.MaxSystemPromptLength {
		return apperror.NewValidation("system prompt exceeds %d characters", entity.MaxSystemPromptLength)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	return uow.AssistantContextRepository().UpdateSystemPrompt(ctx, conversationId, prompt)
}

func (cs *conversationService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFound("user %s not found", id)
	}
	return user, nil
}
