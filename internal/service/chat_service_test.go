package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/apperror"
	"github.com/GeorgeShani/Learnyx-sub001/internal/dto"
	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/logger"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/events"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the conversation store.
type fakeStore struct {
	conversations map[uuid.UUID]*entity.Conversation
	messages      map[uuid.UUID]*entity.Message
	users         map[uuid.UUID]*entity.User
	history       []*entity.Message
	assistantCtx  *entity.AssistantConversationContext

	appended         []*entity.Message
	touchedAssistant int
	markedAll        int
	deactivated      int
	lastPrompt       string
	readStatuses     map[uuid.UUID]entity.ReadStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[uuid.UUID]*entity.Conversation),
		messages:      make(map[uuid.UUID]*entity.Message),
		users:         make(map[uuid.UUID]*entity.User),
		readStatuses:  make(map[uuid.UUID]entity.ReadStatus),
	}
}

func (f *fakeStore) addConversation(c *entity.Conversation) {
	f.conversations[c.Id] = c
}

func (f *fakeStore) GetOrCreateConversation(_ context.Context, user1 uuid.UUID, user2 *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error) {
	c := &entity.Conversation{Id: uuid.New(), Type: convType, User1Id: user1, User2Id: user2, IsActive: true}
	f.conversations[c.Id] = c
	return c, nil
}

func (f *fakeStore) GetConversation(_ context.Context, id uuid.UUID) (*entity.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, apperror.NewNotFound("conversation %s not found", id)
	}
	return c, nil
}

func (f *fakeStore) GetConversationsForUser(_ context.Context, userId uuid.UUID) ([]*entity.Conversation, error) {
	var out []*entity.Conversation
	for _, c := range f.conversations {
		if c.IsParticipant(userId) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) DeactivateConversation(_ context.Context, id uuid.UUID) error {
	if c, ok := f.conversations[id]; ok {
		c.IsActive = false
	}
	f.deactivated++
	return nil
}

func (f *fakeStore) AppendMessage(_ context.Context, conversationId uuid.UUID, senderId *uuid.UUID, text *string, contents []*entity.MessageContent, replyTo *uuid.UUID) (*entity.Message, error) {
	if _, ok := f.conversations[conversationId]; !ok {
		return nil, apperror.NewNotFound("conversation %s not found", conversationId)
	}
	m := &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversationId,
		SenderId:       senderId,
		TextContent:    text,
		Contents:       contents,
		CreatedAt:      time.Now(),
	}
	f.messages[m.Id] = m
	f.appended = append(f.appended, m)
	return m, nil
}

func (f *fakeStore) GetMessage(_ context.Context, id uuid.UUID) (*entity.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return nil, apperror.NewNotFound("message %s not found", id)
	}
	return m, nil
}

func (f *fakeStore) EditMessage(_ context.Context, messageId uuid.UUID, newText string) (*entity.Message, error) {
	m, ok := f.messages[messageId]
	if !ok {
		return nil, apperror.NewNotFound("message %s not found", messageId)
	}
	m.TextContent = &newText
	m.IsEdited = true
	return m, nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, messageId uuid.UUID) (*entity.Message, error) {
	m, ok := f.messages[messageId]
	if !ok {
		return nil, apperror.NewNotFound("message %s not found", messageId)
	}
	m.IsDeleted = true
	m.TextContent = nil
	return m, nil
}

func (f *fakeStore) GetMessagesPage(_ context.Context, conversationId uuid.UUID, page, pageSize int) ([]*entity.Message, int64, error) {
	var out []*entity.Message
	for _, m := range f.messages {
		if m.ConversationId == conversationId {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) GetHistoryWindow(_ context.Context, conversationId uuid.UUID, limit int) ([]*entity.Message, error) {
	return f.history, nil
}

func (f *fakeStore) SearchMessages(_ context.Context, userId uuid.UUID, query string, conversationId *uuid.UUID) ([]*entity.Message, error) {
	return nil, nil
}

func (f *fakeStore) SetReadStatus(_ context.Context, messageId, userId uuid.UUID, status entity.ReadStatus) (bool, error) {
	if _, ok := f.messages[messageId]; !ok {
		return false, apperror.NewNotFound("message %s not found", messageId)
	}
	prev, ok := f.readStatuses[messageId]
	if ok && prev.Rank() >= status.Rank() {
		return false, nil
	}
	f.readStatuses[messageId] = status
	return true, nil
}

func (f *fakeStore) MarkConversationRead(_ context.Context, conversationId, userId uuid.UUID) (int, error) {
	f.markedAll++
	return 3, nil
}

func (f *fakeStore) GetAssistantContext(_ context.Context, conversationId uuid.UUID) (*entity.AssistantConversationContext, error) {
	if f.assistantCtx == nil {
		return nil, apperror.NewNotFound("assistant context missing")
	}
	return f.assistantCtx, nil
}

func (f *fakeStore) TouchAssistantInteraction(_ context.Context, conversationId uuid.UUID) error {
	f.touchedAssistant++
	return nil
}

func (f *fakeStore) UpdateAssistantPrompt(_ context.Context, conversationId uuid.UUID, prompt string) error {
	f.lastPrompt = prompt
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NewNotFound("user %s not found", id)
	}
	return u, nil
}

// fakeLLM returns a canned reply or error and records the history it saw.
type fakeLLM struct {
	reply   string
	err     error
	history []llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.history = history
	return f.reply, f.err
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	return f.reply, f.err
}

// fakePublisher decodes every bus payload it receives.
type fakePublisher struct {
	published []dto.PublishChatEvent
}

func (f *fakePublisher) Publish(_ context.Context, payload []byte) error {
	var evt dto.PublishChatEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}
	f.published = append(f.published, evt)
	return nil
}

func (f *fakePublisher) kinds() []string {
	out := make([]string, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.Kind)
	}
	return out
}

func newTestChatService(store *fakeStore, provider llm.LLMProvider) IChatService {
	return NewChatService(store, provider, nil, nil, logger.NewNopLogger())
}

func strPtr(s string) *string { return &s }

func TestSendMessageRequiresParticipant(t *testing.T) {
	store := newFakeStore()
	a, b, stranger := uuid.New(), uuid.New(), uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: a, User2Id: &b}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	_, _, err := svc.SendMessage(context.Background(), stranger, &dto.SendMessageRequest{
		ConversationId: conv.Id,
		Text:           strPtr("hi"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	assert.Empty(t, store.appended, "denied send must not persist anything")
}

func TestGetOrCreateConversationValidatesPeer(t *testing.T) {
	store := newFakeStore()
	owner, ghost := uuid.New(), uuid.New()
	store.users[owner] = &entity.User{Id: owner, DisplayName: "Owner"}

	svc := newTestChatService(store, &fakeLLM{})

	_, err := svc.GetOrCreateConversation(context.Background(), owner, &dto.GetOrCreateConversationRequest{
		Type:   string(entity.ConversationTypeUserToUser),
		PeerId: &ghost,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	peer := uuid.New()
	store.users[peer] = &entity.User{Id: peer, DisplayName: "Peer"}
	resp, err := svc.GetOrCreateConversation(context.Background(), owner, &dto.GetOrCreateConversationRequest{
		Type:   string(entity.ConversationTypeUserToUser),
		PeerId: &peer,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.ConversationTypeUserToUser), resp.Type)

	// Assistant conversations have no peer to validate.
	_, err = svc.GetOrCreateConversation(context.Background(), owner, &dto.GetOrCreateConversationRequest{
		Type: string(entity.ConversationTypeUserToAssistant),
	})
	require.NoError(t, err)
}

func TestGetConversationsCarriesPeerProfile(t *testing.T) {
	store := newFakeStore()
	owner, peer := uuid.New(), uuid.New()
	store.users[peer] = &entity.User{Id: peer, DisplayName: "Peer Person"}
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: owner, User2Id: &peer}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	list, err := svc.GetConversations(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].PeerName)
	assert.Equal(t, "Peer Person", *list[0].PeerName)
}

func TestSendMessageFlagsAssistantConversation(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	human := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: owner, User2Id: func() *uuid.UUID { u := uuid.New(); return &u }()}
	assistant := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToAssistant, User1Id: owner}
	store.addConversation(human)
	store.addConversation(assistant)

	svc := newTestChatService(store, &fakeLLM{})

	_, assistantTyped, err := svc.SendMessage(context.Background(), owner, &dto.SendMessageRequest{
		ConversationId: human.Id,
		Text:           strPtr("hello"),
	})
	require.NoError(t, err)
	assert.False(t, assistantTyped)

	resp, assistantTyped, err := svc.SendMessage(context.Background(), owner, &dto.SendMessageRequest{
		ConversationId: assistant.Id,
		Text:           strPtr("hello bot"),
	})
	require.NoError(t, err)
	assert.True(t, assistantTyped)
	assert.Equal(t, owner, *resp.SenderId)
}

func TestGetAssistantResponseBuildsHistory(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToAssistant, User1Id: owner}
	store.addConversation(conv)
	store.assistantCtx = &entity.AssistantConversationContext{
		Id:             uuid.New(),
		ConversationId: conv.Id,
		SystemPrompt:   "be helpful",
	}
	store.history = []*entity.Message{
		{Id: uuid.New(), ConversationId: conv.Id, SenderId: &owner, TextContent: strPtr("question")},
		{Id: uuid.New(), ConversationId: conv.Id, TextContent: strPtr("earlier answer")},
	}

	provider := &fakeLLM{reply: "an answer"}
	svc := newTestChatService(store, provider)

	text, err := svc.GetAssistantResponse(context.Background(), conv.Id)
	require.NoError(t, err)
	assert.Equal(t, "an answer", text)

	require.Len(t, provider.history, 3)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.Equal(t, "be helpful", provider.history[0].Content)
	assert.Equal(t, "user", provider.history[1].Role)
	assert.Equal(t, "assistant", provider.history[2].Role)

	// Generation has no side effects of its own.
	assert.Empty(t, store.appended)
	assert.Zero(t, store.touchedAssistant)
}

func TestGetAssistantResponseFailure(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToAssistant, User1Id: owner}
	store.addConversation(conv)
	store.assistantCtx = &entity.AssistantConversationContext{ConversationId: conv.Id}

	provider := &fakeLLM{err: errors.New("model offline")}
	svc := newTestChatService(store, provider)

	_, err := svc.GetAssistantResponse(context.Background(), conv.Id)
	require.Error(t, err)
	assert.True(t, apperror.IsAssistantUnavailable(err))
	assert.Empty(t, store.appended, "failed generation must not persist a message")
}

func TestSendAssistantMessagePersistsWithoutSender(t *testing.T) {
	store := newFakeStore()
	owner := uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToAssistant, User1Id: owner}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	resp, err := svc.SendAssistantMessage(context.Background(), conv.Id, "reply text")
	require.NoError(t, err)
	assert.Nil(t, resp.SenderId)
	assert.Equal(t, 1, store.touchedAssistant)

	// Only assistant-typed conversations accept assistant turns.
	human := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: owner, User2Id: func() *uuid.UUID { u := uuid.New(); return &u }()}
	store.addConversation(human)
	_, err = svc.SendAssistantMessage(context.Background(), human.Id, "nope")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestMarkAsReadRejectsOwnMessage(t *testing.T) {
	store := newFakeStore()
	a, b := uuid.New(), uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: a, User2Id: &b}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	msg, err := store.AppendMessage(context.Background(), conv.Id, &a, strPtr("hi"), nil, nil)
	require.NoError(t, err)

	_, err = svc.MarkAsRead(context.Background(), msg.Id, a)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	status, err := svc.MarkAsRead(context.Background(), msg.Id, b)
	require.NoError(t, err)
	assert.Equal(t, conv.Id, status.ConversationId)
	assert.Equal(t, string(entity.ReadStatusRead), status.Status)
}

func TestEditMessageSenderOnly(t *testing.T) {
	store := newFakeStore()
	a, b := uuid.New(), uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: a, User2Id: &b}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	msg, err := store.AppendMessage(context.Background(), conv.Id, &a, strPtr("original"), nil, nil)
	require.NoError(t, err)

	_, err = svc.EditMessage(context.Background(), b, &dto.EditMessageRequest{MessageId: msg.Id, Text: "hacked"})
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	assert.Equal(t, "original", *msg.TextContent)

	edited, err := svc.EditMessage(context.Background(), a, &dto.EditMessageRequest{MessageId: msg.Id, Text: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", *edited.TextContent)
	assert.True(t, edited.IsEdited)

	// Assistant messages have no sender and are immutable.
	botMsg, err := store.AppendMessage(context.Background(), conv.Id, nil, strPtr("bot"), nil, nil)
	require.NoError(t, err)
	_, err = svc.EditMessage(context.Background(), a, &dto.EditMessageRequest{MessageId: botMsg.Id, Text: "nope"})
	assert.True(t, apperror.IsForbidden(err))
}

func TestChatEventsReachTheBus(t *testing.T) {
	store := newFakeStore()
	a, b := uuid.New(), uuid.New()
	human := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: a, User2Id: &b}
	assistant := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToAssistant, User1Id: a}
	store.addConversation(human)
	store.addConversation(assistant)
	store.assistantCtx = &entity.AssistantConversationContext{ConversationId: assistant.Id}

	publisher := &fakePublisher{}
	provider := &fakeLLM{err: errors.New("model offline")}
	svc := NewChatService(store, provider, publisher, nil, logger.NewNopLogger())

	msg, _, err := svc.SendMessage(context.Background(), a, &dto.SendMessageRequest{
		ConversationId: human.Id,
		Text:           strPtr("hello"),
	})
	require.NoError(t, err)

	_, err = svc.MarkAsRead(context.Background(), msg.Id, b)
	require.NoError(t, err)

	_, err = svc.SendAssistantMessage(context.Background(), assistant.Id, "canned reply")
	require.NoError(t, err)

	_, err = svc.GetAssistantResponse(context.Background(), assistant.Id)
	require.Error(t, err)

	require.Equal(t, []string{
		events.EventTypeMessageSent,
		events.EventTypeMessageRead,
		events.EventTypeAssistantReply,
		events.EventTypeAssistantFailed,
	}, publisher.kinds())

	sent := publisher.published[0]
	require.NotNil(t, sent.RecipientId)
	assert.Equal(t, b, *sent.RecipientId)

	read := publisher.published[1]
	require.NotNil(t, read.ReaderId)
	assert.Equal(t, b, *read.ReaderId)
	assert.Equal(t, human.Id, read.ConversationId)

	failed := publisher.published[3]
	assert.Equal(t, "model offline", failed.Reason)
}

func TestDeactivateConversationRequiresParticipant(t *testing.T) {
	store := newFakeStore()
	a, b, stranger := uuid.New(), uuid.New(), uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: a, User2Id: &b, IsActive: true}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	err := svc.DeactivateConversation(context.Background(), stranger, conv.Id)
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	assert.Zero(t, store.deactivated)

	require.NoError(t, svc.DeactivateConversation(context.Background(), a, conv.Id))
	assert.False(t, conv.IsActive)
}

func TestUpdateAssistantPromptRules(t *testing.T) {
	store := newFakeStore()
	owner, peer := uuid.New(), uuid.New()
	human := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: owner, User2Id: &peer}
	assistant := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToAssistant, User1Id: owner}
	store.addConversation(human)
	store.addConversation(assistant)

	svc := newTestChatService(store, &fakeLLM{})

	err := svc.UpdateAssistantPrompt(context.Background(), peer, assistant.Id, "be terse")
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))

	err = svc.UpdateAssistantPrompt(context.Background(), owner, human.Id, "be terse")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	require.NoError(t, svc.UpdateAssistantPrompt(context.Background(), owner, assistant.Id, "be terse"))
	assert.Equal(t, "be terse", store.lastPrompt)
}

func TestMarkAllAsReadAuthorized(t *testing.T) {
	store := newFakeStore()
	a, b, stranger := uuid.New(), uuid.New(), uuid.New()
	conv := &entity.Conversation{Id: uuid.New(), Type: entity.ConversationTypeUserToUser, User1Id: a, User2Id: &b}
	store.addConversation(conv)

	svc := newTestChatService(store, &fakeLLM{})

	_, err := svc.MarkAllAsRead(context.Background(), conv.Id, stranger)
	require.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
	assert.Zero(t, store.markedAll)

	result, err := svc.MarkAllAsRead(context.Background(), conv.Id, b)
	require.NoError(t, err)
	assert.Equal(t, 3, result.MarkedCount)
	assert.Equal(t, conv.Id, result.ConversationId)
}
