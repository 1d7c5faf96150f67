package repository

import (
	"signlearn_backend/internal/model"

	"gorm.io/gorm"
)

// randomWordLimit 与原有随机抽词接口保持一致
const randomWordLimit = 100

type WordQuestionRepository struct {
	DB *gorm.DB
}

func NewWordQuestionRepository(db *gorm.DB) *WordQuestionRepository {
	return &WordQuestionRepository{DB: db}
}

// FindVideos 返回 answer 与 videoUrl，ascending 控制 id 顺序
func (r *WordQuestionRepository) FindVideos(ascending bool) ([]model.WordVideo, error) {
	order := "id desc"
	if ascending {
		order = "id asc"
	}
	var items []model.WordVideo
	err := r.DB.Model(&model.WordQuestion{}).
		Select("answer", "video_url").
		Order(order).
		Scan(&items).Error
	return items, err
}

func (r *WordQuestionRepository) FindRandomVideos() ([]model.WordVideo, error) {
	var items []model.WordVideo
	err := r.DB.Model(&model.WordQuestion{}).
		Select("answer", "video_url").
		Order("RAND()").
		Limit(randomWordLimit).
		Scan(&items).Error
	return items, err
}

// FindAllDesc 完整记录，id 降序
func (r *WordQuestionRepository) FindAllDesc() ([]model.WordQuestion, error) {
	var words []model.WordQuestion
	err := r.DB.Order("id desc").Find(&words).Error
	return words, err
}

func (r *WordQuestionRepository) FindSignItems() ([]model.SignItem, error) {
	var items []model.SignItem
	err := r.DB.Model(&model.WordQuestion{}).
		Select("answer", "image_url", "video_url").
		Order("id asc").
		Scan(&items).Error
	return items, err
}

func (r *WordQuestionRepository) FindByID(id uint) (*model.WordQuestion, error) {
	var w model.WordQuestion
	if err := r.DB.First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WordQuestionRepository) Create(w *model.WordQuestion) error {
	return r.DB.Create(w).Error
}

func (r *WordQuestionRepository) Update(w *model.WordQuestion) error {
	return r.DB.Save(w).Error
}

func (r *WordQuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.WordQuestion{}, id).Error
}
