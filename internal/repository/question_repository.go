package repository

import (
	"signlearn_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// FindAll 按 id 升序返回全部测验题
func (r *QuestionRepository) FindAll() ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Order("id asc").Find(&questions).Error
	return questions, err
}

// FindSignItems 仅取 answer 与 imageUrl，用于字母学习和文字转手势
func (r *QuestionRepository) FindSignItems() ([]model.SignItem, error) {
	var items []model.SignItem
	err := r.DB.Model(&model.Question{}).
		Select("answer", "image_url").
		Order("id asc").
		Scan(&items).Error
	return items, err
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}
