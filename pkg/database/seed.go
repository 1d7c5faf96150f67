package database

import (
	"fmt"
	"log"
	"os"

	"signlearn_backend/internal/model"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile 初始课程内容，来自 configs/seed.yaml
type SeedFile struct {
	Questions []SeedQuestion `yaml:"questions"`
	Words     []SeedWord     `yaml:"words"`
	Lessons   []SeedLesson   `yaml:"lessons"`
}

type SeedQuestion struct {
	ImageURL string `yaml:"image_url"`
	Options  []string
	Answer   string
}

type SeedWord struct {
	Answer   string
	ImageURL string `yaml:"image_url"`
	VideoURL string `yaml:"video_url"`
}

type SeedLesson struct {
	Title           string
	Category        string
	ImageURL        string `yaml:"image_url"`
	VideoURL        string `yaml:"video_url"`
	Description     string
	ExampleSentence string `yaml:"example_sentence"`
	Difficulty      string
	EstimatedTime   int `yaml:"estimated_time"`
	Order           int
}

// SeedStats 每张表实际写入的行数
type SeedStats struct {
	Questions int
	Words     int
	Lessons   int
}

func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// ParseSeed 解析并校验种子数据，任何一道题不合法都整体失败
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, q := range seed.Questions {
		if _, err := q.toModel(); err != nil {
			return nil, fmt.Errorf("question #%d: %w", i+1, err)
		}
	}
	for i, w := range seed.Words {
		if w.Answer == "" {
			return nil, fmt.Errorf("word #%d: answer is required", i+1)
		}
	}
	for i, l := range seed.Lessons {
		if l.Title == "" || l.Category == "" {
			return nil, fmt.Errorf("lesson #%d: title and category are required", i+1)
		}
	}
	return &seed, nil
}

func (q SeedQuestion) toModel() (*model.Question, error) {
	if len(q.Options) != len(model.OptionKeys) {
		return nil, fmt.Errorf("expected %d options, got %d", len(model.OptionKeys), len(q.Options))
	}
	m := &model.Question{
		ImageURL: q.ImageURL,
		OptionA:  q.Options[0],
		OptionB:  q.Options[1],
		OptionC:  q.Options[2],
		OptionD:  q.Options[3],
		Answer:   q.Answer,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (w SeedWord) toModel() *model.WordQuestion {
	m := &model.WordQuestion{Answer: w.Answer, ImageURL: w.ImageURL}
	if w.VideoURL != "" {
		v := w.VideoURL
		m.VideoURL = &v
	}
	return m
}

func (l SeedLesson) toModel() *model.Lesson {
	difficulty := model.Difficulty(l.Difficulty)
	if difficulty == "" {
		difficulty = model.Beginner
	}
	return &model.Lesson{
		Title:            l.Title,
		CategoryCode:     l.Category,
		ImageURL:         l.ImageURL,
		VideoURL:         l.VideoURL,
		Description:      l.Description,
		ExampleSentence:  l.ExampleSentence,
		Difficulty:       difficulty,
		EstimatedMinutes: l.EstimatedTime,
		Order:            l.Order,
	}
}

// ApplySeed 只向空表写入；force 为 true 时忽略已有数据直接追加
func ApplySeed(db *gorm.DB, seed *SeedFile, force bool) (SeedStats, error) {
	var stats SeedStats
	err := db.Transaction(func(tx *gorm.DB) error {
		if ok, err := shouldSeed(tx, &model.Question{}, force); err != nil {
			return err
		} else if ok {
			for _, q := range seed.Questions {
				m, err := q.toModel()
				if err != nil {
					return err
				}
				if err := tx.Create(m).Error; err != nil {
					return err
				}
				stats.Questions++
			}
		}

		if ok, err := shouldSeed(tx, &model.WordQuestion{}, force); err != nil {
			return err
		} else if ok {
			for _, w := range seed.Words {
				if err := tx.Create(w.toModel()).Error; err != nil {
					return err
				}
				stats.Words++
			}
		}

		if ok, err := shouldSeed(tx, &model.Lesson{}, force); err != nil {
			return err
		} else if ok {
			for _, l := range seed.Lessons {
				if err := tx.Create(l.toModel()).Error; err != nil {
					return err
				}
				stats.Lessons++
			}
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, err
	}
	log.Printf("Seed applied: %d questions, %d words, %d lessons", stats.Questions, stats.Words, stats.Lessons)
	return stats, nil
}

func shouldSeed(tx *gorm.DB, table interface{}, force bool) (bool, error) {
	if force {
		return true, nil
	}
	var count int64
	if err := tx.Model(table).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
