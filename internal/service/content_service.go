package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MediaKindImage   = "image"
	MediaKindVideo   = "video"
	thumbnailOffset  = "1"
	defaultThumbnail = "thumbnails/default-video-thumbnail.jpg"
)

type QuestionStore interface {
	FindByID(id uint) (*model.Question, error)
	Create(q *model.Question) error
	Update(q *model.Question) error
	Delete(id uint) error
}

type WordQuestionStore interface {
	FindByID(id uint) (*model.WordQuestion, error)
	Create(w *model.WordQuestion) error
	Update(w *model.WordQuestion) error
	Delete(id uint) error
}

type LessonStore interface {
	FindByID(id uint) (*model.Lesson, error)
	CategoryExists(code string) (bool, error)
	Create(l *model.Lesson) error
	Update(l *model.Lesson) error
	Delete(id uint) error
}

type MediaStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	UploadFile(ctx context.Context, key string, localPath string, contentType string) (string, error)
	GetURL(key string) string
}

// DictionaryInvalidator 题库变更后清除文字转手势的词典缓存
type DictionaryInvalidator interface {
	Invalidate(ctx context.Context)
}

type QuestionInput struct {
	ImageURL string `json:"imageUrl"`
	OptionA  string `json:"optionA" binding:"required"`
	OptionB  string `json:"optionB" binding:"required"`
	OptionC  string `json:"optionC" binding:"required"`
	OptionD  string `json:"optionD" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

type WordQuestionInput struct {
	Answer   string  `json:"answer" binding:"required"`
	ImageURL string  `json:"imageUrl"`
	VideoURL *string `json:"videoUrl"`
}

type LessonInput struct {
	Title            string           `json:"title" binding:"required"`
	Category         string           `json:"category" binding:"required"`
	ImageURL         string           `json:"imageUrl"`
	VideoURL         string           `json:"videoUrl"`
	ThumbnailURL     string           `json:"thumbnailUrl"`
	Description      string           `json:"description"`
	ExampleSentence  string           `json:"exampleSentence"`
	Order            int              `json:"order"`
	Difficulty       model.Difficulty `json:"difficulty"`
	EstimatedMinutes int              `json:"estimatedTime"`
	DurationSeconds  float64          `json:"durationSeconds"`
}

type MediaUpload struct {
	URL          string  `json:"url"`
	Kind         string  `json:"kind"`
	ContentType  string  `json:"contentType"`
	Size         int64   `json:"size"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
}

type ContentService struct {
	QuestionRepo QuestionStore
	WordRepo     WordQuestionStore
	LessonRepo   LessonStore
	Storage      MediaStore
	Dictionary   DictionaryInvalidator
	Cfg          *config.Config
}

func NewContentService(questions QuestionStore, words WordQuestionStore, lessons LessonStore, storage MediaStore, dict DictionaryInvalidator, cfg *config.Config) *ContentService {
	return &ContentService{
		QuestionRepo: questions,
		WordRepo:     words,
		LessonRepo:   lessons,
		Storage:      storage,
		Dictionary:   dict,
		Cfg:          cfg,
	}
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotFound
	}
	return err
}

func (s *ContentService) invalidateDictionary(ctx context.Context) {
	if s.Dictionary != nil {
		s.Dictionary.Invalidate(ctx)
	}
}

func (in QuestionInput) apply(q *model.Question) {
	q.ImageURL = strings.TrimSpace(in.ImageURL)
	q.OptionA = in.OptionA
	q.OptionB = in.OptionB
	q.OptionC = in.OptionC
	q.OptionD = in.OptionD
	q.Answer = in.Answer
}

func (s *ContentService) CreateQuestion(ctx context.Context, in QuestionInput) (*model.Question, error) {
	q := &model.Question{}
	in.apply(q)
	if err := q.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.QuestionRepo.Create(q); err != nil {
		return nil, err
	}
	s.invalidateDictionary(ctx)
	return q, nil
}

func (s *ContentService) UpdateQuestion(ctx context.Context, id uint, in QuestionInput) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	in.apply(q)
	if err := q.Validate(); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.QuestionRepo.Update(q); err != nil {
		return nil, err
	}
	s.invalidateDictionary(ctx)
	return q, nil
}

func (s *ContentService) DeleteQuestion(ctx context.Context, id uint) error {
	if _, err := s.QuestionRepo.FindByID(id); err != nil {
		return notFoundOr(err)
	}
	if err := s.QuestionRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateDictionary(ctx)
	return nil
}

func (in WordQuestionInput) apply(w *model.WordQuestion) error {
	answer := strings.TrimSpace(in.Answer)
	if answer == "" {
		return invalidInput(errors.New("answer is required"))
	}
	w.Answer = answer
	w.ImageURL = strings.TrimSpace(in.ImageURL)
	w.VideoURL = nil
	if in.VideoURL != nil && strings.TrimSpace(*in.VideoURL) != "" {
		v := strings.TrimSpace(*in.VideoURL)
		w.VideoURL = &v
	}
	return nil
}

func (s *ContentService) CreateWordQuestion(ctx context.Context, in WordQuestionInput) (*model.WordQuestion, error) {
	w := &model.WordQuestion{}
	if err := in.apply(w); err != nil {
		return nil, err
	}
	if err := s.WordRepo.Create(w); err != nil {
		return nil, err
	}
	s.invalidateDictionary(ctx)
	return w, nil
}

func (s *ContentService) UpdateWordQuestion(ctx context.Context, id uint, in WordQuestionInput) (*model.WordQuestion, error) {
	w, err := s.WordRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := in.apply(w); err != nil {
		return nil, err
	}
	if err := s.WordRepo.Update(w); err != nil {
		return nil, err
	}
	s.invalidateDictionary(ctx)
	return w, nil
}

func (s *ContentService) DeleteWordQuestion(ctx context.Context, id uint) error {
	if _, err := s.WordRepo.FindByID(id); err != nil {
		return notFoundOr(err)
	}
	if err := s.WordRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateDictionary(ctx)
	return nil
}

func (s *ContentService) applyLesson(in LessonInput, l *model.Lesson) error {
	ok, err := s.LessonRepo.CategoryExists(in.Category)
	if err != nil {
		return err
	}
	if !ok {
		return invalidInput(fmt.Errorf("unknown category %q", in.Category))
	}

	switch in.Difficulty {
	case "":
		in.Difficulty = model.Beginner
	case model.Beginner, model.Intermediate, model.Advanced:
	default:
		return invalidInput(fmt.Errorf("unknown difficulty %q", in.Difficulty))
	}

	l.Title = strings.TrimSpace(in.Title)
	l.CategoryCode = in.Category
	l.ImageURL = in.ImageURL
	l.VideoURL = in.VideoURL
	l.ThumbnailURL = in.ThumbnailURL
	l.Description = in.Description
	l.ExampleSentence = in.ExampleSentence
	l.Order = in.Order
	l.Difficulty = in.Difficulty
	l.EstimatedMinutes = in.EstimatedMinutes
	l.DurationSeconds = in.DurationSeconds
	return nil
}

func (s *ContentService) CreateLesson(in LessonInput) (*model.Lesson, error) {
	l := &model.Lesson{}
	if err := s.applyLesson(in, l); err != nil {
		return nil, err
	}
	if err := s.LessonRepo.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ContentService) UpdateLesson(id uint, in LessonInput) (*model.Lesson, error) {
	l, err := s.LessonRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := s.applyLesson(in, l); err != nil {
		return nil, err
	}
	if err := s.LessonRepo.Update(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ContentService) DeleteLesson(id uint) error {
	if _, err := s.LessonRepo.FindByID(id); err != nil {
		return notFoundOr(err)
	}
	return s.LessonRepo.Delete(id)
}

func mediaKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return folder + "/" + time.Now().Format("20060102150405") + "_" + util.GenerateRandomString(6) + ext
}

// UploadMedia 上传手势图片或视频；视频额外提取时长并生成封面
func (s *ContentService) UploadMedia(ctx context.Context, file *multipart.FileHeader) (*MediaUpload, error) {
	isVideo := util.HasExtension(file.Filename, util.AllowedVideoExtensions)
	if !isVideo && !util.HasExtension(file.Filename, util.AllowedImageExtensions) {
		return nil, util.ErrInvalidMediaType
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	allowed := []string{util.MimeImage}
	if isVideo {
		allowed = []string{util.MimeVideo}
	}
	// 深度验证 MIME 类型
	mimeType, err := util.ValidateMimeType(src, allowed)
	if err != nil {
		return nil, err
	}
	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
	}

	if !isVideo {
		url, err := s.Storage.Upload(ctx, mediaKey("images", file.Filename), src, file.Size, mimeType)
		if err != nil {
			return nil, err
		}
		return &MediaUpload{URL: url, Kind: MediaKindImage, ContentType: mimeType, Size: file.Size}, nil
	}
	return s.uploadVideo(ctx, file, src, mimeType)
}

func (s *ContentService) uploadVideo(ctx context.Context, file *multipart.FileHeader, src io.Reader, mimeType string) (*MediaUpload, error) {
	// ffmpeg 需要本地文件，先落临时目录
	tempDir := filepath.Join(s.Cfg.Storage.LocalPath, "temp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	stamp := time.Now().UnixNano()
	videoPath := filepath.Join(tempDir, fmt.Sprintf("video_%d%s", stamp, ext))
	thumbPath := filepath.Join(tempDir, fmt.Sprintf("thumb_%d.jpg", stamp))
	defer os.Remove(videoPath)
	defer os.Remove(thumbPath)

	dst, err := os.Create(videoPath)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return nil, err
	}
	dst.Close()

	videoURL, err := s.Storage.UploadFile(ctx, mediaKey("videos", file.Filename), videoPath, mimeType)
	if err != nil {
		return nil, err
	}
	upload := &MediaUpload{URL: videoURL, Kind: MediaKindVideo, ContentType: mimeType, Size: file.Size}

	if info, err := util.ProbeVideo(videoPath); err != nil {
		logger.Log.Warn("Failed to probe sign video", zap.String("file", file.Filename), zap.Error(err))
	} else {
		upload.Duration = info.Duration
		upload.Width = info.Width
		upload.Height = info.Height
	}

	upload.ThumbnailURL = s.Storage.GetURL(defaultThumbnail)
	if err := util.GenerateThumbnail(videoPath, thumbPath, thumbnailOffset); err != nil {
		logger.Log.Error("Failed to generate thumbnail", zap.String("file", file.Filename), zap.Error(err))
		return upload, nil
	}
	thumbURL, err := s.Storage.UploadFile(ctx, mediaKey("thumbnails", "thumb.jpg"), thumbPath, "image/jpeg")
	if err != nil {
		logger.Log.Error("Failed to upload thumbnail", zap.Error(err))
		return upload, nil
	}
	upload.ThumbnailURL = thumbURL
	return upload, nil
}
