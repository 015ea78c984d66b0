package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/mapper"
	"github.com/GeorgeShani/Learnyx-sub001/internal/model"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssistantContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewAssistantContextRepository(db *gorm.DB) contract.AssistantContextRepository {
	return &AssistantContextRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *AssistantContextRepositoryImpl) CreateIfAbsent(ctx context.Context, context *entity.AssistantConversationContext) (bool, error) {
	m := r.mapper.AssistantContextToModel(context)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	*context = *r.mapper.AssistantContextToEntity(m)
	return true, nil
}

func (r *AssistantContextRepositoryImpl) FindByConversationId(ctx context.Context, conversationId uuid.UUID) (*entity.AssistantConversationContext, error) {
	var m model.AssistantConversationContext
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AssistantContextToEntity(&m), nil
}

func (r *AssistantContextRepositoryImpl) UpdateSystemPrompt(ctx context.Context, conversationId uuid.UUID, prompt string) error {
	return r.db.WithContext(ctx).
		Model(&model.AssistantConversationContext{}).
		Where("conversation_id = ?", conversationId).
		Update("system_prompt", prompt).Error
}

func (r *AssistantContextRepositoryImpl) TouchLastInteraction(ctx context.Context, conversationId uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.AssistantConversationContext{}).
		Where("conversation_id = ?", conversationId).
		Update("last_interaction_at", at).Error
}
