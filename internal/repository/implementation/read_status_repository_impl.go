package implementation

import (
	"context"
	"errors"

	"github.com/GeorgeShani/Learnyx-sub001/internal/entity"
	"github.com/GeorgeShani/Learnyx-sub001/internal/mapper"
	"github.com/GeorgeShani/Learnyx-sub001/internal/model"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/contract"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadStatusRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewReadStatusRepository(db *gorm.DB) contract.ReadStatusRepository {
	return &ReadStatusRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ReadStatusRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReadStatusRepositoryImpl) UpsertMonotonic(ctx context.Context, status *entity.MessageReadStatus) (bool, error) {
	m := r.mapper.ReadStatusToModel(status)

	// Insert wins for a fresh (message, user) pair. On conflict the rank
	// guard in the WHERE clause makes regressions a no-op instead of an
	// error, which is the monotonic-only policy.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":    m.Status,
				"status_at": m.StatusAt,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				gorm.Expr(
					"CASE message_read_statuses.status WHEN 'sent' THEN 0 WHEN 'delivered' THEN 1 ELSE 2 END < CASE excluded.status WHEN 'sent' THEN 0 WHEN 'delivered' THEN 1 ELSE 2 END",
				),
			}},
		}).
		Create(m)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReadStatusRepositoryImpl) FindByMessageAndUser(ctx context.Context, messageId, userId uuid.UUID) (*entity.MessageReadStatus, error) {
	var m model.MessageReadStatus
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageId, userId).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ReadStatusToEntity(&m), nil
}

func (r *ReadStatusRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageReadStatus, error) {
	var models []*model.MessageReadStatus
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.MessageReadStatus, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ReadStatusToEntity(m)
	}
	return entities, nil
}

func (r *ReadStatusRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.MessageReadStatus{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
