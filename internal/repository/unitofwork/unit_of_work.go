package unitofwork

import (
	"context"

	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	ReadStatusRepository() contract.ReadStatusRepository
	AssistantContextRepository() contract.AssistantContextRepository
}
