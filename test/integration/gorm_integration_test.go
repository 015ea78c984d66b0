package integration

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/unitofwork"
	"github.com/GeorgeShani/Learnyx-sub001/internal/service"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, database.Migrate(gormDB))

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.ConversationRepository())
	assert.NotNil(t, uow.MessageRepository())
	assert.NotNil(t, uow.ReadStatusRepository())
	assert.NotNil(t, uow.AssistantContextRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	store := service.NewConversationService(uowFactory)
	ctx := context.Background()

	t.Run("Get or create conversation is idempotent", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()

		first, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		// Reversed pair must converge on the same row.
		second, err := store.GetOrCreateConversation(ctx, b, &a, entity.ConversationTypeUserToUser)
		require.NoError(t, err)
		assert.Equal(t, first.Id, second.Id)
	})

	t.Run("Append and page messages", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		text := "integration hello"
		msg, err := store.AppendMessage(ctx, conversation.Id, &a, &text, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, conversation.Id, msg.ConversationId)

		page, total, err := store.GetMessagesPage(ctx, conversation.Id, 1, 10)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, int64(1))
		require.NotEmpty(t, page)
		assert.Equal(t, msg.Id, page[0].Id)
	})

	t.Run("Deleted message stays as tombstone in pages", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		text := "short lived"
		msg, err := store.AppendMessage(ctx, conversation.Id, &a, &text, nil, nil)
		require.NoError(t, err)

		deleted, err := store.DeleteMessage(ctx, msg.Id)
		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted)
		assert.Nil(t, deleted.TextContent)

		page, total, err := store.GetMessagesPage(ctx, conversation.Id, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, page, 1)
		assert.Equal(t, msg.Id, page[0].Id)
		assert.True(t, page[0].IsDeleted)
		assert.Nil(t, page[0].TextContent)
	})

	t.Run("Content parts keep contiguous order", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		caption := "look at these"
		url1, url2 := "https://files.test/one.png", "https://files.test/two.pdf"
		name2 := "two.pdf"
		msg, err := store.AppendMessage(ctx, conversation.Id, &a, &caption, []*entity.MessageContent{
			{ContentType: entity.ContentTypeImage, FileURL: &url1},
			{ContentType: entity.ContentTypeFile, FileURL: &url2, FileName: &name2},
			{ContentType: entity.ContentTypeText, TextContent: &caption},
		}, nil)
		require.NoError(t, err)

		fetched, err := store.GetMessage(ctx, msg.Id)
		require.NoError(t, err)
		require.Len(t, fetched.Contents, 3)
		for i, part := range fetched.Contents {
			assert.Equal(t, i, part.Order)
		}
		assert.Equal(t, entity.ContentTypeImage, fetched.Contents[0].ContentType)
	})

	t.Run("Deleting a message clears its content parts", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		url := "https://files.test/secret.png"
		msg, err := store.AppendMessage(ctx, conversation.Id, &a, nil, []*entity.MessageContent{
			{ContentType: entity.ContentTypeImage, FileURL: &url},
		}, nil)
		require.NoError(t, err)

		_, err = store.DeleteMessage(ctx, msg.Id)
		require.NoError(t, err)

		page, _, err := store.GetMessagesPage(ctx, conversation.Id, 1, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.True(t, page[0].IsDeleted)
		assert.Empty(t, page[0].Contents, "tombstone must not carry attachment payload")
	})

	t.Run("Mark all as read is idempotent", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		for _, text := range []string{"first", "second"} {
			text := text
			_, err := store.AppendMessage(ctx, conversation.Id, &a, &text, nil, nil)
			require.NoError(t, err)
		}

		marked, err := store.MarkConversationRead(ctx, conversation.Id, b)
		require.NoError(t, err)
		assert.Equal(t, 2, marked)

		marked, err = store.MarkConversationRead(ctx, conversation.Id, b)
		require.NoError(t, err)
		assert.Zero(t, marked)
	})

	t.Run("Assistant conversation is unique per owner", func(t *testing.T) {
		owner := uuid.New()

		ids := make([]uuid.UUID, 4)
		var wg sync.WaitGroup
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				conversation, err := store.GetOrCreateConversation(ctx, owner, nil, entity.ConversationTypeUserToAssistant)
				assert.NoError(t, err)
				if conversation != nil {
					ids[i] = conversation.Id
				}
			}(i)
		}
		wg.Wait()

		for _, id := range ids[1:] {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("Missing assistant context is restored on reuse", func(t *testing.T) {
		owner := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, owner, nil, entity.ConversationTypeUserToAssistant)
		require.NoError(t, err)

		// Simulate a crash between the conversation insert and the context
		// insert.
		require.NoError(t, gormDB.Exec(
			"DELETE FROM assistant_conversation_contexts WHERE conversation_id = ?",
			conversation.Id,
		).Error)
		_, err = store.GetAssistantContext(ctx, conversation.Id)
		require.Error(t, err)

		again, err := store.GetOrCreateConversation(ctx, owner, nil, entity.ConversationTypeUserToAssistant)
		require.NoError(t, err)
		assert.Equal(t, conversation.Id, again.Id)

		restored, err := store.GetAssistantContext(ctx, conversation.Id)
		require.NoError(t, err)
		assert.Equal(t, conversation.Id, restored.ConversationId)
	})

	t.Run("Read status never regresses", func(t *testing.T) {
		a := uuid.New()
		b := uuid.New()
		conversation, err := store.GetOrCreateConversation(ctx, a, &b, entity.ConversationTypeUserToUser)
		require.NoError(t, err)

		text := "read me"
		msg, err := store.AppendMessage(ctx, conversation.Id, &a, &text, nil, nil)
		require.NoError(t, err)

		advanced, err := store.SetReadStatus(ctx, msg.Id, b, entity.ReadStatusRead)
		require.NoError(t, err)
		assert.True(t, advanced)

		// Downgrade attempt is silently ignored.
		advanced, err = store.SetReadStatus(ctx, msg.Id, b, entity.ReadStatusDelivered)
		require.NoError(t, err)
		assert.False(t, advanced)
	})
}
