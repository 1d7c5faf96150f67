package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuizResult 完成的测验记录
type QuizResult struct {
	SessionRecord
	SessionID   string         `gorm:"size:36;index;not null" json:"sessionId"`
	Correct     int            `gorm:"default:0" json:"correct"`
	Total       int            `gorm:"default:0" json:"total"`
	Percentage  int            `gorm:"default:0" json:"percentage"`
	Grade       string         `gorm:"size:32" json:"grade"`
	Answers     datatypes.JSON `gorm:"type:json" json:"answers"`
	CompletedAt time.Time      `json:"completedAt"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
