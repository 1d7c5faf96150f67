package repository

import (
	"signlearn_backend/internal/model"

	"gorm.io/gorm"
)

type QuizResultRepository struct {
	DB *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: db}
}

func (r *QuizResultRepository) Create(result *model.QuizResult) error {
	return r.DB.Create(result).Error
}

func (r *QuizResultRepository) FindBySession(sessionID string) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.Where("session_id = ?", sessionID).Order("completed_at desc").First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}
