package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"

	"gorm.io/gorm"
)

const (
	relatedBefore    = 1
	relatedWindow    = 4
	defaultImageExt  = "png"
	letterFilePrefix = "ASL_Letter_"
	downloadTimeout  = 15 * time.Second
)

type LetterSource interface {
	FindAll() ([]model.Question, error)
	FindSignItems() ([]model.SignItem, error)
}

type WordSource interface {
	FindVideos(ascending bool) ([]model.WordVideo, error)
	FindRandomVideos() ([]model.WordVideo, error)
	FindAllDesc() ([]model.WordQuestion, error)
	FindSignItems() ([]model.SignItem, error)
}

type LessonSource interface {
	ListCategories() ([]model.CategorySummary, error)
	Find(category, query string) ([]model.Lesson, error)
	FindByID(id uint) (*model.Lesson, error)
}

// MediaOpener 读取本服务存储中的文件
type MediaOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	KeyFromURL(url string) (string, bool)
}

type LearningService struct {
	LetterRepo LetterSource
	WordRepo   WordSource
	LessonRepo LessonSource
	Media      MediaOpener
	HTTP       *http.Client
}

func NewLearningService(letters LetterSource, words WordSource, lessons LessonSource, media MediaOpener) *LearningService {
	return &LearningService{
		LetterRepo: letters,
		WordRepo:   words,
		LessonRepo: lessons,
		Media:      media,
		HTTP:       &http.Client{Timeout: downloadTimeout},
	}
}

func (s *LearningService) Questions() ([]model.Question, error) {
	return s.LetterRepo.FindAll()
}

func (s *LearningService) Alphabet() ([]model.SignItem, error) {
	return s.LetterRepo.FindSignItems()
}

type LetterCard struct {
	Index       int    `json:"index"`
	Letter      string `json:"letter"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type AlphabetDetail struct {
	LetterCard
	Answer   string       `json:"answer"`
	Total    int          `json:"total"`
	Progress float64      `json:"progress"`
	HasPrev  bool         `json:"hasPrev"`
	HasNext  bool         `json:"hasNext"`
	Related  []LetterCard `json:"related"`
}

func (s *LearningService) AlphabetDetail(index int) (*AlphabetDetail, error) {
	items, err := s.LetterRepo.FindSignItems()
	if err != nil {
		return nil, err
	}
	return BuildAlphabetDetail(items, index)
}

func BuildAlphabetDetail(items []model.SignItem, index int) (*AlphabetDetail, error) {
	n := len(items)
	if index < 0 || index >= n {
		return nil, util.ErrNotFound
	}

	related := []LetterCard{}
	for _, i := range RelatedIndexes(index, n) {
		related = append(related, letterCard(items[i], i))
	}
	return &AlphabetDetail{
		LetterCard: letterCard(items[index], index),
		Answer:     items[index].Answer,
		Total:      n,
		Progress:   float64(index+1) / float64(n) * 100,
		HasPrev:    index > 0,
		HasNext:    index < n-1,
		Related:    related,
	}, nil
}

// RelatedIndexes 当前字母附近的最多三个字母：从前一个开始取四个并排除自身
func RelatedIndexes(index, n int) []int {
	start := index - relatedBefore
	if start < 0 {
		start = 0
	}
	end := start + relatedWindow
	if end > n {
		end = n
	}
	out := make([]int, 0, relatedWindow)
	for i := start; i < end; i++ {
		if i != index {
			out = append(out, i)
		}
	}
	return out
}

func letterCard(item model.SignItem, index int) LetterCard {
	lines := strings.Split(item.Answer, "\n")
	desc := ""
	if len(lines) > 1 {
		desc = strings.TrimSpace(lines[1])
	}
	return LetterCard{
		Index:       index,
		Letter:      model.LetterName(item.Answer),
		Description: desc,
		ImageURL:    item.ImageURL,
	}
}

// LetterFileName 如 ASL_Letter_A.png
func LetterFileName(answer, imageURL string) string {
	return letterFilePrefix + model.LetterName(answer) + "." + util.ExtFromURL(imageURL, defaultImageExt)
}

type Download struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// LetterDownload 打开字母图片；本地存储直接读取，外部地址通过 HTTP 拉取
func (s *LearningService) LetterDownload(ctx context.Context, index int) (*Download, error) {
	items, err := s.LetterRepo.FindSignItems()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(items) {
		return nil, util.ErrNotFound
	}
	item := items[index]
	if item.ImageURL == "" {
		return nil, util.ErrNotFound
	}

	name := LetterFileName(item.Answer, item.ImageURL)
	contentType := mime.TypeByExtension("." + util.ExtFromURL(item.ImageURL, defaultImageExt))
	if contentType == "" {
		contentType = util.MimeOctetStream
	}

	if s.Media != nil {
		if key, ok := s.Media.KeyFromURL(item.ImageURL); ok {
			body, err := s.Media.Open(ctx, key)
			if err != nil {
				return nil, err
			}
			return &Download{FileName: name, ContentType: contentType, Size: -1, Body: body}, nil
		}
	}

	if !strings.HasPrefix(item.ImageURL, "http://") && !strings.HasPrefix(item.ImageURL, "https://") {
		return nil, util.ErrNotFound
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.ImageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch letter image: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("fetch letter image: status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		contentType = ct
	}
	return &Download{FileName: name, ContentType: contentType, Size: resp.ContentLength, Body: resp.Body}, nil
}

func (s *LearningService) LearnWords() ([]model.WordVideo, error) {
	return s.WordRepo.FindVideos(true)
}

func (s *LearningService) RandomWords() ([]model.WordVideo, error) {
	return s.WordRepo.FindRandomVideos()
}

func (s *LearningService) TestWords() ([]model.WordQuestion, error) {
	return s.WordRepo.FindAllDesc()
}

func (s *LearningService) AllWords() ([]model.SignItem, error) {
	return s.WordRepo.FindSignItems()
}

func (s *LearningService) Categories() ([]model.CategorySummary, error) {
	return s.LessonRepo.ListCategories()
}

func (s *LearningService) Lessons(category, query string) ([]model.Lesson, error) {
	return s.LessonRepo.Find(category, query)
}

type LessonDetail struct {
	model.Lesson
	PrevID *uint `json:"prevId"`
	NextID *uint `json:"nextId"`
}

// Lesson 返回课程及同分类内的上一课与下一课
func (s *LearningService) Lesson(id uint) (*LessonDetail, error) {
	lesson, err := s.LessonRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	siblings, err := s.LessonRepo.Find(lesson.CategoryCode, "")
	if err != nil {
		return nil, err
	}
	detail := &LessonDetail{Lesson: *lesson}
	for i, l := range siblings {
		if l.ID != lesson.ID {
			continue
		}
		if i > 0 {
			prev := siblings[i-1].ID
			detail.PrevID = &prev
		}
		if i < len(siblings)-1 {
			next := siblings[i+1].ID
			detail.NextID = &next
		}
		break
	}
	return detail, nil
}
