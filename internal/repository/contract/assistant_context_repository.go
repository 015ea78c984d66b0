package contract

import (
	"context"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"

	"github.com/google/uuid"
)

type AssistantContextRepository interface {
	// CreateIfAbsent inserts the context unless the conversation already has
	// one (one-to-one constraint). Returns true when this call created it.
	CreateIfAbsent(ctx context.Context, context *entity.AssistantConversationContext) (bool, error)
	FindByConversationId(ctx context.Context, conversationId uuid.UUID) (*entity.AssistantConversationContext, error)
	UpdateSystemPrompt(ctx context.Context, conversationId uuid.UUID, prompt string) error
	TouchLastInteraction(ctx context.Context, conversationId uuid.UUID, at time.Time) error
}
