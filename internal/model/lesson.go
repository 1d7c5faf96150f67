package model

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

const (
	CategoryAlphabet    = "alphabet"
	CategoryCommonWords = "common-words"
	CategoryPhrases     = "phrases"
	CategoryGrammar     = "grammar"
)

// swagger:model LessonCategory
type LessonCategory struct {
	BaseModel
	Code        string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"size:20" json:"color"`
	Order       int    `gorm:"default:0" json:"order"`
}

func (LessonCategory) TableName() string {
	return "lesson_categories"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	Title            string     `gorm:"size:255;not null" json:"title"`
	CategoryCode     string     `gorm:"size:50;index;not null" json:"category"`
	ImageURL         string     `gorm:"size:512" json:"imageUrl"`
	VideoURL         string     `gorm:"size:512" json:"videoUrl,omitempty"`
	ThumbnailURL     string     `gorm:"size:512" json:"thumbnailUrl,omitempty"`
	Description      string     `gorm:"type:text" json:"description"`
	ExampleSentence  string     `gorm:"type:text" json:"exampleSentence,omitempty"`
	Order            int        `gorm:"default:0" json:"order"`
	Difficulty       Difficulty `gorm:"size:20;default:'beginner'" json:"difficulty,omitempty"`
	EstimatedMinutes int        `gorm:"default:0" json:"estimatedTime,omitempty"`
	DurationSeconds  float64    `gorm:"default:0" json:"durationSeconds,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type CategorySummary struct {
	LessonCategory
	TotalLessons int64 `json:"totalLessons"`
}
