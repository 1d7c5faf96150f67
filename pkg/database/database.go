package database

import (
	"fmt"
	"log"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, mode string, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式下默认不迁移，除非显式指定 -migrate
	if mode == "release" && !migrate {
		return db, nil
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")

	if err := seedCategories(db); err != nil {
		return nil, err
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.WordQuestion{},
		&model.LessonCategory{},
		&model.Lesson{},
		&model.QuizResult{},
	)
}

// 默认课程分类
func seedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.LessonCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.LessonCategory{
		{Code: model.CategoryAlphabet, Name: "ASL Alphabet", Description: "Master all 26 letters of the ASL alphabet through interactive lessons", Color: "#06b6d4", Order: 1},
		{Code: model.CategoryCommonWords, Name: "Common Words", Description: "Learn essential everyday signs and expressions used in daily conversations", Color: "#8b5cf6", Order: 2},
		{Code: model.CategoryPhrases, Name: "Phrases", Description: "Put signs together into useful everyday phrases", Color: "#ec4899", Order: 3},
		{Code: model.CategoryGrammar, Name: "Grammar", Description: "Facial grammar, word order and the structure of signed sentences", Color: "#f59e0b", Order: 4},
	}
	for i := range defaults {
		if err := db.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
