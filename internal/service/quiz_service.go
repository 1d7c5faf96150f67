package service

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"
	"signlearn_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const quizLockStripes = 64

type QuestionSource interface {
	FindAll() ([]model.Question, error)
}

type QuizResultRecorder interface {
	Create(result *model.QuizResult) error
}

// QuizResultFinder 会话状态过期后按会话查询已持久化的成绩
type QuizResultFinder interface {
	FindBySession(sessionID string) (*model.QuizResult, error)
}

type QuizService struct {
	Questions QuestionSource
	Store     StateStore
	Results   QuizResultRecorder
	Shuffle   Shuffler

	locks [quizLockStripes]sync.Mutex
	now   func() time.Time
}

func NewQuizService(questions QuestionSource, store StateStore, results QuizResultRecorder) *QuizService {
	return &QuizService{
		Questions: questions,
		Store:     store,
		Results:   results,
		Shuffle:   RandomShuffle,
		now:       time.Now,
	}
}

// 同一会话的读改写在进程内串行化
func (s *QuizService) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	m := &s.locks[h.Sum32()%quizLockStripes]
	m.Lock()
	return m.Unlock
}

// Create 拉取题库并打乱；题库为空或读取失败时直接进入结束状态
func (s *QuizService) Create(ctx context.Context) (*QuizView, error) {
	questions, err := s.Questions.FindAll()
	if err != nil {
		logger.Log.Error("Error fetching quiz questions", zap.Error(err))
		questions = nil
	}

	state := NewQuizState(model.NewSessionID(), questions, s.Shuffle)
	state.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.View(), nil
}

func (s *QuizService) Get(ctx context.Context, id string) (*QuizView, error) {
	state, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return state.View(), nil
}

func (s *QuizService) Start(ctx context.Context, id string) (*QuizView, error) {
	return s.viewAfter(ctx, id, func(st *QuizState) error {
		st.Start()
		return nil
	})
}

type AnswerResult struct {
	Feedback string    `json:"feedback"`
	Answer   string    `json:"answer"`
	View     *QuizView `json:"state"`
}

func (s *QuizService) Answer(ctx context.Context, id, key string) (*AnswerResult, error) {
	var answer QuizAnswer
	state, err := s.mutate(ctx, id, func(st *QuizState) error {
		a, err := st.Answer(key)
		answer = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return &AnswerResult{
		Feedback: feedbackFor(answer.IsCorrect),
		Answer:   answer.UserAnswer,
		View:     state.View(),
	}, nil
}

func (s *QuizService) Next(ctx context.Context, id string) (*QuizView, error) {
	return s.viewAfter(ctx, id, func(st *QuizState) error {
		return st.Next()
	})
}

func (s *QuizService) Prev(ctx context.Context, id string) (*QuizView, error) {
	return s.viewAfter(ctx, id, func(st *QuizState) error {
		return st.Prev()
	})
}

func (s *QuizService) Jump(ctx context.Context, id string, index int) (*QuizView, error) {
	return s.viewAfter(ctx, id, func(st *QuizState) error {
		return st.Jump(index)
	})
}

func (s *QuizService) Restart(ctx context.Context, id string) (*QuizView, error) {
	return s.viewAfter(ctx, id, func(st *QuizState) error {
		st.Restart(s.Shuffle)
		return nil
	})
}

func (s *QuizService) Finish(ctx context.Context, id string) (*QuizScore, error) {
	state, err := s.mutate(ctx, id, func(st *QuizState) error {
		st.Finish()
		return nil
	})
	if err != nil {
		return nil, err
	}
	score := state.Score()
	return &score, nil
}

func (s *QuizService) Result(ctx context.Context, id string) (*QuizScore, error) {
	state, err := s.Store.Load(ctx, id)
	if errors.Is(err, util.ErrSessionNotFound) {
		if finder, ok := s.Results.(QuizResultFinder); ok {
			if saved, ferr := finder.FindBySession(id); ferr == nil {
				return scoreFromResult(saved), nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	score := state.Score()
	return &score, nil
}

func scoreFromResult(r *model.QuizResult) *QuizScore {
	grade, msg := Grade(r.Percentage)
	var answered int
	var answers []QuizAnswer
	if err := json.Unmarshal(r.Answers, &answers); err == nil {
		answered = len(answers)
	}
	return &QuizScore{
		Correct:    r.Correct,
		Wrong:      answered - r.Correct,
		Answered:   answered,
		Total:      r.Total,
		Percentage: r.Percentage,
		Grade:      grade,
		Message:    msg,
	}
}

func (s *QuizService) Discard(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

func (s *QuizService) viewAfter(ctx context.Context, id string, fn func(*QuizState) error) (*QuizView, error) {
	state, err := s.mutate(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	return state.View(), nil
}

func (s *QuizService) mutate(ctx context.Context, id string, fn func(*QuizState) error) (*QuizState, error) {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	if state.QuizDone && !state.ResultSaved {
		state.ResultSaved = s.recordResult(state)
	}
	state.UpdatedAt = s.now()
	if err := s.Store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// recordResult 持久化成绩；失败只记录日志，下一次状态变更时重试
func (s *QuizService) recordResult(state *QuizState) bool {
	if len(state.Questions) == 0 {
		return true
	}
	if s.Results == nil {
		return false
	}
	score := state.Score()
	answers, err := json.Marshal(state.Answers)
	if err != nil {
		logger.Log.Error("Error encoding quiz answers", zap.Error(err), zap.String("sessionId", state.ID))
		return false
	}

	result := &model.QuizResult{
		SessionID:   state.ID,
		Correct:     score.Correct,
		Total:       score.Total,
		Percentage:  score.Percentage,
		Grade:       score.Grade,
		Answers:     datatypes.JSON(answers),
		CompletedAt: s.now(),
	}
	if err := s.Results.Create(result); err != nil {
		logger.Log.Error("Error saving quiz result", zap.Error(err), zap.String("sessionId", state.ID))
		return false
	}

	monitoring.QuizCompletions.WithLabelValues(score.Grade).Inc()
	logger.Log.Info("Quiz completed",
		zap.String("sessionId", state.ID),
		zap.Int("correct", score.Correct),
		zap.Int("total", score.Total),
		zap.Int("percentage", score.Percentage),
	)
	return true
}
