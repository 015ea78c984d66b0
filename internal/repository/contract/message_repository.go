package contract

import (
	"context"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Create persists the message together with its ordered content parts.
	Create(ctx context.Context, message *entity.Message) error
	Update(ctx context.Context, message *entity.Message) error
	Delete(ctx context.Context, id uuid.UUID) error // soft delete
	// DeleteContents hard-deletes the message's content parts so a
	// tombstone carries no attachment payload.
	DeleteContents(ctx context.Context, messageId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindIDsNotAuthoredBy returns ids of messages in the conversation that
	// the user did not author, for bulk read marking.
	FindIDsNotAuthoredBy(ctx context.Context, conversationId, userId uuid.UUID) ([]uuid.UUID, error)
}
