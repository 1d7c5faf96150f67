package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"

	"gorm.io/gorm"
)

type fakeLetterSource struct {
	items []model.SignItem
}

func (f *fakeLetterSource) FindAll() ([]model.Question, error) { return nil, nil }

func (f *fakeLetterSource) FindSignItems() ([]model.SignItem, error) { return f.items, nil }

type fakeLessonSource struct {
	lessons []model.Lesson
}

func (f *fakeLessonSource) ListCategories() ([]model.CategorySummary, error) { return nil, nil }

func (f *fakeLessonSource) Find(category, query string) ([]model.Lesson, error) {
	var out []model.Lesson
	for _, l := range f.lessons {
		if l.CategoryCode == category {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLessonSource) FindByID(id uint) (*model.Lesson, error) {
	for _, l := range f.lessons {
		if l.ID == id {
			l := l
			return &l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeMedia struct {
	files map[string]string
}

func (f *fakeMedia) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.files[key]
	if !ok {
		return nil, util.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeMedia) KeyFromURL(url string) (string, bool) {
	if strings.HasPrefix(url, "/uploads/") {
		return strings.TrimPrefix(url, "/uploads/"), true
	}
	return "", false
}

func alphabetItems(letters ...string) []model.SignItem {
	items := make([]model.SignItem, len(letters))
	for i, l := range letters {
		items[i] = model.SignItem{
			Answer:   "Letter " + l + "\nHandshape " + l,
			ImageURL: "/uploads/images/" + strings.ToLower(l) + ".png",
		}
	}
	return items
}

// TestRelatedIndexes verifies the neighbour window at the edges and in the middle.
func TestRelatedIndexes(t *testing.T) {
	cases := []struct {
		index, n int
		want     []int
	}{
		{0, 26, []int{1, 2, 3}},
		{1, 26, []int{0, 2, 3}},
		{10, 26, []int{9, 11, 12}},
		{25, 26, []int{24}},
		{24, 26, []int{23, 25}},
		{0, 1, []int{}},
	}
	for _, c := range cases {
		if got := RelatedIndexes(c.index, c.n); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("RelatedIndexes(%d,%d) = %v, want %v", c.index, c.n, got, c.want)
		}
	}
}

// TestBuildAlphabetDetail verifies description parsing, progress and navigation flags.
func TestBuildAlphabetDetail(t *testing.T) {
	items := alphabetItems("A", "B", "C", "D")
	d, err := BuildAlphabetDetail(items, 3)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if d.Letter != "D" || d.Description != "Handshape D" {
		t.Fatalf("unexpected card %+v", d.LetterCard)
	}
	if d.Progress != 100 || !d.HasPrev || d.HasNext || d.Total != 4 {
		t.Fatalf("unexpected navigation %+v", d)
	}
	if len(d.Related) != 1 || d.Related[0].Letter != "C" {
		t.Fatalf("unexpected related %+v", d.Related)
	}
	if _, err := BuildAlphabetDetail(items, 4); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound out of range, got %v", err)
	}
}

// TestLetterFileName verifies the download file name uses the URL path extension.
func TestLetterFileName(t *testing.T) {
	cases := map[string]string{
		"https://cdn.example.com/a/b.jpeg?sig=x.y": "ASL_Letter_B.jpeg",
		"/uploads/images/b":                        "ASL_Letter_B.png",
		"/uploads/images/b.webp":                   "ASL_Letter_B.webp",
	}
	for url, want := range cases {
		if got := LetterFileName("Letter B\nFlat hand", url); got != want {
			t.Fatalf("LetterFileName(%q) = %s, want %s", url, got, want)
		}
	}
}

// TestLetterDownloadFromStorage verifies stored images are read through the media opener.
func TestLetterDownloadFromStorage(t *testing.T) {
	svc := NewLearningService(
		&fakeLetterSource{items: alphabetItems("A")},
		nil, nil,
		&fakeMedia{files: map[string]string{"images/a.png": "PNGDATA"}},
	)
	dl, err := svc.LetterDownload(context.Background(), 0)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	if string(body) != "PNGDATA" || dl.FileName != "ASL_Letter_A.png" || dl.ContentType != "image/png" {
		t.Fatalf("unexpected download %s %s %q", dl.FileName, dl.ContentType, body)
	}
}

// TestLetterDownloadRemote verifies external images are fetched over HTTP.
func TestLetterDownloadRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		io.WriteString(w, "JPEG")
	}))
	defer srv.Close()

	items := []model.SignItem{
		{Answer: "Letter Q\nPoint down", ImageURL: srv.URL + "/q.jpg"},
		{Answer: "Letter R\nCross fingers", ImageURL: srv.URL + "/missing.png"},
		{Answer: "Letter S\nFist", ImageURL: "ftp://example.com/s.png"},
	}
	svc := NewLearningService(&fakeLetterSource{items: items}, nil, nil, &fakeMedia{})

	dl, err := svc.LetterDownload(context.Background(), 0)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	body, _ := io.ReadAll(dl.Body)
	dl.Body.Close()
	if string(body) != "JPEG" || dl.FileName != "ASL_Letter_Q.jpg" || dl.ContentType != "image/jpeg" {
		t.Fatalf("unexpected download %+v %q", dl, body)
	}

	if _, err := svc.LetterDownload(context.Background(), 1); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for remote 404, got %v", err)
	}
	if _, err := svc.LetterDownload(context.Background(), 2); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unsupported scheme, got %v", err)
	}
	if _, err := svc.LetterDownload(context.Background(), 9); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound out of range, got %v", err)
	}
}

// TestLessonNeighbours verifies prev and next ids stay inside the category.
func TestLessonNeighbours(t *testing.T) {
	mk := func(id uint, cat string) model.Lesson {
		l := model.Lesson{Title: "l", CategoryCode: cat}
		l.ID = id
		return l
	}
	src := &fakeLessonSource{lessons: []model.Lesson{
		mk(1, model.CategoryAlphabet),
		mk(2, model.CategoryPhrases),
		mk(3, model.CategoryAlphabet),
		mk(4, model.CategoryAlphabet),
	}}
	svc := NewLearningService(nil, nil, src, nil)

	d, err := svc.Lesson(3)
	if err != nil {
		t.Fatalf("lesson: %v", err)
	}
	if d.PrevID == nil || *d.PrevID != 1 || d.NextID == nil || *d.NextID != 4 {
		t.Fatalf("unexpected neighbours prev=%v next=%v", d.PrevID, d.NextID)
	}

	d, _ = svc.Lesson(2)
	if d.PrevID != nil || d.NextID != nil {
		t.Fatalf("single lesson category should have no neighbours")
	}

	if _, err := svc.Lesson(99); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
