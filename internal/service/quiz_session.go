package service

import (
	"math"
	"math/rand"
	"time"

	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"
)

const (
	FeedbackCorrect = "correct"
	FeedbackWrong   = "wrong"

	navUnanswered = "unanswered"
)

type QuizAnswer struct {
	QuestionID uint   `json:"questionId"`
	UserAnswer string `json:"userAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
}

// QuizState 一次测验的完整进度，序列化后存入 StateStore
type QuizState struct {
	ID               string           `json:"id"`
	Questions        []model.Question `json:"questions"`
	CurrentIndex     int              `json:"currentIndex"`
	Answers          []QuizAnswer     `json:"answers"`
	ShowInstructions bool             `json:"showInstructions"`
	QuizDone         bool             `json:"quizDone"`
	ResultSaved      bool             `json:"resultSaved"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Shuffler 打乱题目顺序，测试中可替换为确定性实现
type Shuffler func(questions []model.Question)

func RandomShuffle(questions []model.Question) {
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}

func NewQuizState(id string, questions []model.Question, shuffle Shuffler) *QuizState {
	qs := make([]model.Question, len(questions))
	copy(qs, questions)
	if shuffle != nil {
		shuffle(qs)
	}
	return &QuizState{
		ID:               id,
		Questions:        qs,
		Answers:          []QuizAnswer{},
		ShowInstructions: true,
		QuizDone:         len(qs) == 0,
	}
}

func (s *QuizState) Current() (*model.Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil, false
	}
	return &s.Questions[s.CurrentIndex], true
}

func (s *QuizState) answerFor(questionID uint) (QuizAnswer, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return QuizAnswer{}, false
}

func (s *QuizState) Start() {
	s.ShowInstructions = false
}

// 说明页关闭前题目不可见，不接受作答与导航
func (s *QuizState) requireStarted() error {
	if s.ShowInstructions && !s.QuizDone {
		return util.ErrQuizNotStarted
	}
	return nil
}

// Answer 记录当前题的选择；一题只能作答一次
func (s *QuizState) Answer(key string) (QuizAnswer, error) {
	if s.QuizDone {
		return QuizAnswer{}, util.ErrQuizFinished
	}
	if err := s.requireStarted(); err != nil {
		return QuizAnswer{}, err
	}
	current, ok := s.Current()
	if !ok {
		return QuizAnswer{}, util.ErrIndexOutOfRange
	}
	if _, answered := s.answerFor(current.ID); answered {
		return QuizAnswer{}, util.ErrAlreadyAnswered
	}

	selected, err := current.OptionForKey(key)
	if err != nil {
		return QuizAnswer{}, util.ErrInvalidInput
	}

	answer := QuizAnswer{
		QuestionID: current.ID,
		UserAnswer: selected,
		IsCorrect:  selected == current.Answer,
	}
	s.Answers = append(s.Answers, answer)
	return answer, nil
}

// Next 前进一题，最后一题之后结束测验
func (s *QuizState) Next() error {
	if err := s.requireStarted(); err != nil {
		return err
	}
	if s.CurrentIndex < len(s.Questions)-1 {
		s.CurrentIndex++
		return nil
	}
	s.QuizDone = true
	return nil
}

func (s *QuizState) Prev() error {
	if err := s.requireStarted(); err != nil {
		return err
	}
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	return nil
}

func (s *QuizState) Jump(index int) error {
	if err := s.requireStarted(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.Questions) {
		return util.ErrIndexOutOfRange
	}
	s.CurrentIndex = index
	return nil
}

func (s *QuizState) Restart(shuffle Shuffler) {
	if shuffle != nil {
		shuffle(s.Questions)
	}
	s.CurrentIndex = 0
	s.Answers = []QuizAnswer{}
	s.QuizDone = len(s.Questions) == 0
	s.ResultSaved = false
	s.ShowInstructions = true
}

func (s *QuizState) Finish() {
	s.QuizDone = true
}

type QuizScore struct {
	Correct    int    `json:"correct"`
	Wrong      int    `json:"wrong"`
	Answered   int    `json:"answered"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
	Message    string `json:"message"`
}

func (s *QuizState) Score() QuizScore {
	correct := 0
	for _, a := range s.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	total := len(s.Questions)
	pct := Percentage(correct, total)
	grade, msg := Grade(pct)
	return QuizScore{
		Correct:    correct,
		Wrong:      len(s.Answers) - correct,
		Answered:   len(s.Answers),
		Total:      total,
		Percentage: pct,
		Grade:      grade,
		Message:    msg,
	}
}

// Percentage round(correct/total*100)，total 为 0 时返回 0
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func Grade(percentage int) (string, string) {
	switch {
	case percentage >= 90:
		return "Outstanding", "Excellent performance! You've mastered the material."
	case percentage >= 75:
		return "Very Good", "Great work! You have a strong understanding."
	case percentage >= 60:
		return "Good", "Well done! Keep practicing to improve further."
	default:
		return "Needs Improvement", "Review the material and try again."
	}
}

type QuizQuestionView struct {
	ID       uint              `json:"id"`
	ImageURL string            `json:"imageUrl"`
	Options  map[string]string `json:"options"`
}

type QuizNavItem struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
}

// QuizView 返回给客户端的视图，正确答案仅在作答后揭示
type QuizView struct {
	ID               string            `json:"id"`
	CurrentIndex     int               `json:"currentIndex"`
	Total            int               `json:"total"`
	AnsweredCount    int               `json:"answeredCount"`
	ShowInstructions bool              `json:"showInstructions"`
	QuizDone         bool              `json:"quizDone"`
	Question         *QuizQuestionView `json:"question,omitempty"`
	IsAnswered       bool              `json:"isAnswered"`
	Selected         *string           `json:"selected"`
	Feedback         *string           `json:"feedback"`
	CorrectAnswer    *string           `json:"correctAnswer,omitempty"`
	Navigation       []QuizNavItem     `json:"navigation"`
}

func (s *QuizState) View() *QuizView {
	v := &QuizView{
		ID:               s.ID,
		CurrentIndex:     s.CurrentIndex,
		Total:            len(s.Questions),
		AnsweredCount:    len(s.Answers),
		ShowInstructions: s.ShowInstructions,
		QuizDone:         s.QuizDone,
		Navigation:       make([]QuizNavItem, len(s.Questions)),
	}

	for i, q := range s.Questions {
		status := navUnanswered
		if a, ok := s.answerFor(q.ID); ok {
			status = feedbackFor(a.IsCorrect)
		}
		v.Navigation[i] = QuizNavItem{Index: i, Status: status}
	}

	current, ok := s.Current()
	if !ok {
		return v
	}

	opts := current.Options()
	v.Question = &QuizQuestionView{
		ID:       current.ID,
		ImageURL: current.ImageURL,
		Options:  make(map[string]string, len(opts)),
	}
	for i, key := range model.OptionKeys {
		v.Question.Options[key] = opts[i]
	}

	if a, answered := s.answerFor(current.ID); answered {
		v.IsAnswered = true
		if key := current.KeyForAnswer(a.UserAnswer); key != "" {
			v.Selected = &key
		}
		fb := feedbackFor(a.IsCorrect)
		v.Feedback = &fb
		correct := current.Answer
		v.CorrectAnswer = &correct
	}
	return v
}

func feedbackFor(correct bool) string {
	if correct {
		return FeedbackCorrect
	}
	return FeedbackWrong
}
