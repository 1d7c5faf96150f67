package repository

import (
	"strings"

	"signlearn_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) ListCategories() ([]model.CategorySummary, error) {
	var categories []model.LessonCategory
	if err := r.DB.Order("`order` asc").Find(&categories).Error; err != nil {
		return nil, err
	}

	type countRow struct {
		CategoryCode string
		Total        int64
	}
	var rows []countRow
	err := r.DB.Model(&model.Lesson{}).
		Select("category_code, COUNT(*) AS total").
		Group("category_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryCode] = row.Total
	}

	summaries := make([]model.CategorySummary, 0, len(categories))
	for _, c := range categories {
		summaries = append(summaries, model.CategorySummary{LessonCategory: c, TotalLessons: counts[c.Code]})
	}
	return summaries, nil
}

// Find 按分类与关键字筛选课程；category 非空时按 order 排序
func (r *LessonRepository) Find(category, query string) ([]model.Lesson, error) {
	db := r.DB.Model(&model.Lesson{})
	if category != "" {
		db = db.Where("category_code = ?", category)
	}
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var lessons []model.Lesson
	err := db.Order("`order` asc, id asc").Find(&lessons).Error
	return lessons, err
}

func (r *LessonRepository) FindByID(id uint) (*model.Lesson, error) {
	var l model.Lesson
	if err := r.DB.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LessonRepository) CategoryExists(code string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.LessonCategory{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *LessonRepository) Create(l *model.Lesson) error {
	return r.DB.Create(l).Error
}

func (r *LessonRepository) Update(l *model.Lesson) error {
	return r.DB.Save(l).Error
}

func (r *LessonRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Lesson{}, id).Error
}
