package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"knowledge-governance/internal/model"
)

// aiSessionRowID is the id of the only row in ai_sessions.
const aiSessionRowID = 1

type AISessionRepository struct {
	db *gorm.DB
}

func NewAISessionRepository(db *gorm.DB) *AISessionRepository {
	return &AISessionRepository{db: db}
}

func (r *AISessionRepository) Load(ctx context.Context) (*model.AISession, error) {
	var session model.AISession
	if err := r.db.WithContext(ctx).First(&session, aiSessionRowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load ai session failed: %w", err)
	}
	return &session, nil
}

func (r *AISessionRepository) Save(ctx context.Context, session *model.AISession) error {
	session.ID = aiSessionRowID
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(session).Error; err != nil {
		return fmt.Errorf("save ai session failed: %w", err)
	}
	return nil
}
