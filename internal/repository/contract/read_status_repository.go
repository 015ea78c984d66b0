package contract

import (
	"context"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/specification"

	"github.com/google/uuid"
)

type ReadStatusRepository interface {
	// UpsertMonotonic creates or advances the (message, user) status row.
	// A transition that would move the status backward is silently ignored.
	// Returns true when the row was created or advanced.
	UpsertMonotonic(ctx context.Context, status *entity.MessageReadStatus) (bool, error)
	FindByMessageAndUser(ctx context.Context, messageId, userId uuid.UUID) (*entity.MessageReadStatus, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageReadStatus, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
