package model

import (
	"errors"
	"strings"
)

// OptionKeys 选项键，顺序与 optionA..optionD 对应
var OptionKeys = []string{"a", "b", "c", "d"}

var (
	ErrAnswerNotInOptions = errors.New("answer must match one of the options")
	ErrAnswerAmbiguous    = errors.New("answer matches more than one option")
	ErrInvalidOptionKey   = errors.New("option key must be one of a, b, c, d")
)

const letterPrefix = "Letter "

// Question 四选一测验题，同时作为字母课程条目
// swagger:model Question
type Question struct {
	BaseModel
	ImageURL string `gorm:"size:512" json:"imageUrl"`
	OptionA  string `gorm:"size:255;not null" json:"optionA"`
	OptionB  string `gorm:"size:255;not null" json:"optionB"`
	OptionC  string `gorm:"size:255;not null" json:"optionC"`
	OptionD  string `gorm:"size:255;not null" json:"optionD"`
	Answer   string `gorm:"type:text;not null" json:"answer"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) Options() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// OptionForKey 返回 a..d 对应的选项文本
func (q *Question) OptionForKey(key string) (string, error) {
	for i, k := range OptionKeys {
		if strings.EqualFold(k, key) {
			return q.Options()[i], nil
		}
	}
	return "", ErrInvalidOptionKey
}

// KeyForAnswer 根据已保存的作答文本反查选项键，找不到返回空串
func (q *Question) KeyForAnswer(text string) string {
	for i, opt := range q.Options() {
		if opt == text {
			return OptionKeys[i]
		}
	}
	return ""
}

// Validate 每道题恰好一个正确选项
func (q *Question) Validate() error {
	matches := 0
	for _, opt := range q.Options() {
		if opt == q.Answer {
			matches++
		}
	}
	switch {
	case matches == 0:
		return ErrAnswerNotInOptions
	case matches > 1:
		return ErrAnswerAmbiguous
	}
	return nil
}

// LetterName 取答案首行并去掉 "Letter " 前缀，如 "Letter A\n..." -> "A"
func LetterName(answer string) string {
	first, _, _ := strings.Cut(answer, "\n")
	return strings.TrimSpace(strings.Replace(first, letterPrefix, "", 1))
}

// WordQuestion 单词/短语手势
// swagger:model WordQuestion
type WordQuestion struct {
	BaseModel
	Answer   string  `gorm:"size:255;not null;index" json:"answer"`
	ImageURL string  `gorm:"size:512" json:"imageUrl"`
	VideoURL *string `gorm:"size:512" json:"videoUrl"`
}

func (WordQuestion) TableName() string {
	return "word_questions"
}

// SignItem 词典条目，供字母学习与文字转手势使用
type SignItem struct {
	Answer   string  `json:"answer"`
	ImageURL string  `json:"imageUrl,omitempty"`
	VideoURL *string `json:"videoUrl,omitempty"`
}

// WordVideo learnWord/testWord 接口的精简返回
type WordVideo struct {
	Answer   string  `json:"answer"`
	VideoURL *string `json:"videoUrl"`
}
