package model

import (
	"errors"
	"testing"
)

func sampleQuestion() *Question {
	return &Question{
		OptionA: "Letter A\nFist",
		OptionB: "Letter B\nFlat hand",
		OptionC: "Letter C\nCurve",
		OptionD: "Letter D\nPoint",
		Answer:  "Letter B\nFlat hand",
	}
}

// TestQuestionValidate verifies exactly one option must equal the answer.
func TestQuestionValidate(t *testing.T) {
	q := sampleQuestion()
	if err := q.Validate(); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	q.Answer = "Letter E\nCurl"
	if err := q.Validate(); !errors.Is(err, ErrAnswerNotInOptions) {
		t.Fatalf("expected ErrAnswerNotInOptions, got %v", err)
	}

	q = sampleQuestion()
	q.OptionD = q.OptionB
	if err := q.Validate(); !errors.Is(err, ErrAnswerAmbiguous) {
		t.Fatalf("expected ErrAnswerAmbiguous, got %v", err)
	}
}

// TestOptionForKeyAndBack verifies key lookup and its reverse.
func TestOptionForKeyAndBack(t *testing.T) {
	q := sampleQuestion()
	opt, err := q.OptionForKey("B")
	if err != nil || opt != q.OptionB {
		t.Fatalf("OptionForKey(B) = %q, %v", opt, err)
	}
	if key := q.KeyForAnswer(opt); key != "b" {
		t.Fatalf("KeyForAnswer = %q, want b", key)
	}
	if _, err := q.OptionForKey("e"); !errors.Is(err, ErrInvalidOptionKey) {
		t.Fatalf("expected ErrInvalidOptionKey, got %v", err)
	}
}

// TestLetterName verifies the letter is taken from the first answer line.
func TestLetterName(t *testing.T) {
	cases := map[string]string{
		"Letter A\nMake a fist": "A",
		"Letter  Z ":            "Z",
		"Hello":                 "Hello",
		"Letter B\r\nFlat hand": "B",
	}
	for answer, want := range cases {
		if got := LetterName(answer); got != want {
			t.Fatalf("LetterName(%q) = %q, want %q", answer, got, want)
		}
	}
}
