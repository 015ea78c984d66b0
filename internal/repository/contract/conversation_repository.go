package contract

import (
	"context"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	// CreateIfAbsent inserts the conversation unless one already exists for
	// its canonical pair. Returns true when this call created the row.
	CreateIfAbsent(ctx context.Context, conversation *entity.Conversation) (bool, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	TouchLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
