package service

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"
)

func letterQuestion(id uint, letter string) model.Question {
	answer := "Letter " + letter + "\nhandshape for " + letter
	q := model.Question{
		ImageURL: "/uploads/images/" + letter + ".png",
		OptionA:  "Letter X\nnot it",
		OptionB:  "Letter Y\nnot it",
		OptionC:  answer,
		OptionD:  "Letter Z\nnot it",
		Answer:   answer,
	}
	q.ID = id
	return q
}

func sampleQuestions() []model.Question {
	return []model.Question{
		letterQuestion(1, "A"),
		letterQuestion(2, "B"),
		letterQuestion(3, "C"),
		letterQuestion(4, "D"),
	}
}

// TestNewQuizStateCopiesAndShuffles verifies the source slice is left untouched by shuffling.
func TestNewQuizStateCopiesAndShuffles(t *testing.T) {
	src := sampleQuestions()
	reverse := func(qs []model.Question) {
		for i, j := 0, len(qs)-1; i < j; i, j = i+1, j-1 {
			qs[i], qs[j] = qs[j], qs[i]
		}
	}
	st := NewQuizState("s1", src, reverse)
	if st.Questions[0].ID != 4 || src[0].ID != 1 {
		t.Fatalf("expected shuffled copy, got state=%d src=%d", st.Questions[0].ID, src[0].ID)
	}
	if !st.ShowInstructions || st.QuizDone {
		t.Fatalf("new quiz should show instructions and not be done: %+v", st)
	}
}

// TestNewQuizStateEmptyIsDone verifies an empty bank finishes immediately.
func TestNewQuizStateEmptyIsDone(t *testing.T) {
	st := NewQuizState("s1", nil, nil)
	if !st.QuizDone {
		t.Fatalf("expected empty quiz to be done")
	}
	if got := st.Score(); got.Percentage != 0 || got.Total != 0 {
		t.Fatalf("unexpected score for empty quiz: %+v", got)
	}
}

// TestAnswerOnlyOnce verifies a question locks after the first answer.
func TestAnswerOnlyOnce(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	st.Start()
	a, err := st.Answer("c")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !a.IsCorrect {
		t.Fatalf("expected option c to be correct")
	}
	if _, err := st.Answer("a"); !errors.Is(err, util.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if len(st.Answers) != 1 {
		t.Fatalf("expected one recorded answer, got %d", len(st.Answers))
	}
}

// TestAnswerRejectsUnknownKey verifies keys outside a-d are invalid input.
func TestAnswerRejectsUnknownKey(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	st.Start()
	if _, err := st.Answer("e"); !errors.Is(err, util.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

// TestAnswerUppercaseKey verifies option keys are case-insensitive.
func TestAnswerUppercaseKey(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	st.Start()
	a, err := st.Answer("A")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if a.IsCorrect || a.UserAnswer != "Letter X\nnot it" {
		t.Fatalf("unexpected answer record: %+v", a)
	}
}

// TestNextPastLastFinishes verifies advancing beyond the final question ends the quiz.
func TestNextPastLastFinishes(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions()[:2], nil)
	st.Start()
	st.Next()
	if st.CurrentIndex != 1 || st.QuizDone {
		t.Fatalf("expected index 1 and not done, got %d done=%v", st.CurrentIndex, st.QuizDone)
	}
	st.Next()
	if !st.QuizDone || st.CurrentIndex != 1 {
		t.Fatalf("expected done at last index, got %d done=%v", st.CurrentIndex, st.QuizDone)
	}
	if _, err := st.Answer("c"); !errors.Is(err, util.ErrQuizFinished) {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
}

// TestPrevAndJumpBounds verifies navigation stays inside the question list.
func TestPrevAndJumpBounds(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	st.Start()
	st.Prev()
	if st.CurrentIndex != 0 {
		t.Fatalf("prev at 0 should stay at 0, got %d", st.CurrentIndex)
	}
	if err := st.Jump(3); err != nil || st.CurrentIndex != 3 {
		t.Fatalf("jump to 3: err=%v index=%d", err, st.CurrentIndex)
	}
	if err := st.Jump(4); !errors.Is(err, util.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := st.Jump(-1); !errors.Is(err, util.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange for -1, got %v", err)
	}
}

// TestRestartClearsProgress verifies restart resets answers and flags.
func TestRestartClearsProgress(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	st.Start()
	st.Answer("c")
	st.Jump(2)
	st.Finish()
	st.ResultSaved = true

	before := questionIDs(st.Questions)
	st.Restart(RandomShuffle)
	if st.CurrentIndex != 0 || len(st.Answers) != 0 || st.QuizDone || st.ResultSaved || !st.ShowInstructions {
		t.Fatalf("restart did not reset state: %+v", st)
	}
	if after := questionIDs(st.Questions); !reflect.DeepEqual(before, after) {
		t.Fatalf("restart changed the question set: %v -> %v", before, after)
	}
}

func questionIDs(qs []model.Question) []uint {
	ids := make([]uint, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TestQuestionsLockedUntilStart verifies answering and navigation wait for the instructions to close.
func TestQuestionsLockedUntilStart(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	if _, err := st.Answer("c"); !errors.Is(err, util.ErrQuizNotStarted) {
		t.Fatalf("expected ErrQuizNotStarted from answer, got %v", err)
	}
	if err := st.Next(); !errors.Is(err, util.ErrQuizNotStarted) {
		t.Fatalf("expected ErrQuizNotStarted from next, got %v", err)
	}
	if err := st.Prev(); !errors.Is(err, util.ErrQuizNotStarted) {
		t.Fatalf("expected ErrQuizNotStarted from prev, got %v", err)
	}
	if err := st.Jump(2); !errors.Is(err, util.ErrQuizNotStarted) {
		t.Fatalf("expected ErrQuizNotStarted from jump, got %v", err)
	}
	if len(st.Answers) != 0 || st.CurrentIndex != 0 {
		t.Fatalf("state changed before start: %+v", st)
	}

	st.Start()
	if _, err := st.Answer("c"); err != nil {
		t.Fatalf("answer after start: %v", err)
	}
}

// TestScoreCountsAndGrade verifies percentage rounding and grade banding.
func TestScoreCountsAndGrade(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions()[:3], nil)
	st.Start()
	st.Answer("c")
	st.Next()
	st.Answer("c")
	st.Next()
	st.Answer("a")

	score := st.Score()
	if score.Correct != 2 || score.Wrong != 1 || score.Total != 3 || score.Answered != 3 {
		t.Fatalf("unexpected counts: %+v", score)
	}
	if score.Percentage != 67 {
		t.Fatalf("expected 67%%, got %d", score.Percentage)
	}
	if score.Grade != "Good" {
		t.Fatalf("expected Good, got %s", score.Grade)
	}
}

// TestGradeBands verifies the band boundaries.
func TestGradeBands(t *testing.T) {
	cases := map[int]string{
		100: "Outstanding",
		90:  "Outstanding",
		89:  "Very Good",
		75:  "Very Good",
		74:  "Good",
		60:  "Good",
		59:  "Needs Improvement",
		0:   "Needs Improvement",
	}
	for pct, want := range cases {
		if got, _ := Grade(pct); got != want {
			t.Fatalf("Grade(%d) = %s, want %s", pct, got, want)
		}
	}
}

// TestPercentageRounding verifies half-up rounding and zero totals.
func TestPercentageRounding(t *testing.T) {
	if got := Percentage(1, 8); got != 13 {
		t.Fatalf("Percentage(1,8) = %d, want 13", got)
	}
	if got := Percentage(5, 0); got != 0 {
		t.Fatalf("Percentage with zero total = %d", got)
	}
}

// TestViewHidesAnswerUntilAnswered verifies the correct answer is only revealed after answering.
func TestViewHidesAnswerUntilAnswered(t *testing.T) {
	st := NewQuizState("s1", sampleQuestions(), nil)
	st.Start()
	v := st.View()
	if v.CorrectAnswer != nil || v.Feedback != nil || v.IsAnswered {
		t.Fatalf("answer leaked before answering: %+v", v)
	}
	if v.Question == nil || v.Question.Options["c"] != st.Questions[0].Answer {
		t.Fatalf("options not mapped by key: %+v", v.Question)
	}

	st.Answer("b")
	v = st.View()
	if !v.IsAnswered || v.Selected == nil || *v.Selected != "b" {
		t.Fatalf("expected selected b, got %+v", v.Selected)
	}
	if v.Feedback == nil || *v.Feedback != FeedbackWrong {
		t.Fatalf("expected wrong feedback, got %v", v.Feedback)
	}
	if v.CorrectAnswer == nil || *v.CorrectAnswer != st.Questions[0].Answer {
		t.Fatalf("expected correct answer revealed")
	}
	if v.Navigation[0].Status != FeedbackWrong || v.Navigation[1].Status != navUnanswered {
		t.Fatalf("unexpected navigation: %+v", v.Navigation)
	}
}
