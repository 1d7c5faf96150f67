package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/model"
	"signlearn_backend/internal/service"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return w, env
}

type staticQuestions []model.Question

func (s staticQuestions) FindAll() ([]model.Question, error) { return s, nil }

func quizQuestions() staticQuestions {
	out := make(staticQuestions, 2)
	for i, l := range []string{"A", "B"} {
		answer := "Letter " + l + "\nHandshape"
		out[i] = model.Question{OptionA: answer, OptionB: "x", OptionC: "y", OptionD: "z", Answer: answer}
		out[i].ID = uint(i + 1)
	}
	return out
}

func quizRouter() *gin.Engine {
	svc := service.NewQuizService(quizQuestions(), service.NewMemoryStateStore(), nil)
	svc.Shuffle = nil
	qc := NewQuizController(svc)

	r := gin.New()
	g := r.Group("/api/quiz/sessions")
	g.POST("", qc.CreateSession)
	g.GET("/:id", qc.GetSession)
	g.POST("/:id/start", qc.Start)
	g.POST("/:id/answer", qc.Answer)
	g.POST("/:id/next", qc.Next)
	g.POST("/:id/jump", qc.Jump)
	g.POST("/:id/finish", qc.Finish)
	g.GET("/:id/result", qc.Result)
	g.DELETE("/:id", qc.DeleteSession)
	return r
}

// TestQuizControllerFlow drives a quiz session over HTTP.
func TestQuizControllerFlow(t *testing.T) {
	r := quizRouter()

	w, env := doJSON(t, r, http.MethodPost, "/api/quiz/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var view service.QuizView
	json.Unmarshal(env.Data, &view)
	if view.Total != 2 || !view.ShowInstructions {
		t.Fatalf("unexpected view %+v", view)
	}
	base := "/api/quiz/sessions/" + view.ID

	if w, _ := doJSON(t, r, http.MethodPost, base+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, base+"/answer", gin.H{"key": "e"}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid key status = %d", w.Code)
	}

	w, env = doJSON(t, r, http.MethodPost, base+"/answer", gin.H{"key": "a"})
	if w.Code != http.StatusOK {
		t.Fatalf("answer status = %d", w.Code)
	}
	var ans service.AnswerResult
	json.Unmarshal(env.Data, &ans)
	if ans.Feedback != service.FeedbackCorrect {
		t.Fatalf("unexpected feedback %s", ans.Feedback)
	}

	if w, _ := doJSON(t, r, http.MethodPost, base+"/answer", gin.H{"key": "b"}); w.Code != http.StatusConflict {
		t.Fatalf("second answer status = %d, want 409", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, base+"/jump", gin.H{"index": 5}); w.Code != http.StatusBadRequest {
		t.Fatalf("jump out of range status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodPost, base+"/jump", gin.H{}); w.Code != http.StatusBadRequest {
		t.Fatalf("jump without index status = %d", w.Code)
	}

	w, env = doJSON(t, r, http.MethodPost, base+"/finish", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finish status = %d", w.Code)
	}
	var score service.QuizScore
	json.Unmarshal(env.Data, &score)
	if score.Correct != 1 || score.Total != 2 || score.Percentage != 50 {
		t.Fatalf("unexpected score %+v", score)
	}

	if w, _ := doJSON(t, r, http.MethodDelete, base, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodGet, base, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}

type scriptedPredictor struct {
	pred *service.Prediction
	err  error
}

func (p *scriptedPredictor) Predict(ctx context.Context, frame []byte) (*service.Prediction, error) {
	return p.pred, p.err
}

func (p *scriptedPredictor) ResetBuffer(ctx context.Context) error { return nil }

func recognitionRouter(p service.Predictor) (*gin.Engine, *service.RecognitionService) {
	cfg := config.RecognitionConfig{DebounceMs: 1500, DuplicateWindowMs: 3000, MaxTranscript: 50, FrameIntervalMs: 50}
	svc := service.NewRecognitionService(p, cfg, 64)
	rc := NewRecognitionController(svc, nil, nil)

	r := gin.New()
	g := r.Group("/api/recognition/sessions")
	g.POST("", rc.CreateSession)
	g.POST("/:id/frames", rc.SubmitFrame)
	g.POST("/:id/pause", rc.Pause)
	g.GET("/:id/transcript/export", rc.ExportTranscript)
	g.DELETE("/:id", rc.StopSession)
	return r, svc
}

func framePost(t *testing.T, r http.Handler, path string, frame []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "frame.jpg")
	part.Write(frame)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sign(s string) *string { return &s }

// TestRecognitionControllerFrames verifies frame upload, size limits, pause and export.
func TestRecognitionControllerFrames(t *testing.T) {
	pred := &service.Prediction{
		HandDetected:          true,
		RealTimePrediction:    sign("hello"),
		RealTimeConfidence:    0.9,
		StablePrediction:      sign("hello"),
		StableConfidence:      0.9,
		ShouldAddToTranscript: true,
		BoundingBox:           &service.BoundingBox{XMin: 10, YMin: 10, XMax: 60, YMax: 60},
	}
	r, _ := recognitionRouter(&scriptedPredictor{pred: pred})

	_, env := doJSON(t, r, http.MethodPost, "/api/recognition/sessions", nil)
	var sess service.SessionView
	json.Unmarshal(env.Data, &sess)
	base := "/api/recognition/sessions/" + sess.ID

	dims := map[string]string{"videoWidth": "640", "videoHeight": "480", "displayWidth": "320", "displayHeight": "240"}
	w := framePost(t, r, base+"/frames", []byte{0xff, 0xd8, 0xff}, dims)
	if w.Code != http.StatusOK {
		t.Fatalf("frame status = %d body=%s", w.Code, w.Body.String())
	}
	var res struct {
		Data service.FrameResult `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Data.Added == nil || res.Data.DisplayBox == nil || res.Data.DisplayBox.X != 290 {
		t.Fatalf("unexpected frame result %+v", res.Data)
	}

	if w := framePost(t, r, base+"/frames", bytes.Repeat([]byte{1}, 128), nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversize frame status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, base+"/transcript/export", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "hello" {
		t.Fatalf("export = %d %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "sign_transcript_") {
		t.Fatalf("unexpected disposition %q", cd)
	}

	doJSON(t, r, http.MethodPost, base+"/pause", nil)
	if w := framePost(t, r, base+"/frames", []byte{1}, nil); w.Code != http.StatusConflict {
		t.Fatalf("paused frame status = %d", w.Code)
	}

	if w, _ := doJSON(t, r, http.MethodDelete, base, nil); w.Code != http.StatusOK {
		t.Fatalf("stop status = %d", w.Code)
	}
	if w := framePost(t, r, base+"/frames", []byte{1}, nil); w.Code != http.StatusNotFound {
		t.Fatalf("stopped session frame status = %d", w.Code)
	}
}

type staticSigns []model.SignItem

func (s staticSigns) FindSignItems() ([]model.SignItem, error) { return s, nil }

// TestTranslateController verifies matches and the no-translation message.
func TestTranslateController(t *testing.T) {
	svc := service.NewTranslateService(staticSigns{}, staticSigns{{Answer: "hello", ImageURL: "/uploads/h.png"}}, nil)
	tc := NewTranslateController(svc)
	r := gin.New()
	r.POST("/api/translate", tc.Translate)

	_, env := doJSON(t, r, http.MethodPost, "/api/translate", gin.H{"text": "Hello there"})
	var res service.TranslationResult
	json.Unmarshal(env.Data, &res)
	if len(res.Items) != 1 || res.Items[0].Token != "hello" || len(res.Unmatched) != 1 {
		t.Fatalf("unexpected translation %+v", res)
	}

	_, env = doJSON(t, r, http.MethodPost, "/api/translate", gin.H{"text": "zebra"})
	json.Unmarshal(env.Data, &res)
	if res.Message != service.NoTranslationMsg {
		t.Fatalf("expected no translation message, got %q", res.Message)
	}
}

type alphabetSource []model.SignItem

func (a alphabetSource) FindAll() ([]model.Question, error)       { return nil, nil }
func (a alphabetSource) FindSignItems() ([]model.SignItem, error) { return a, nil }

type bytesMedia map[string]string

func (m bytesMedia) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(m[key])), nil
}

func (m bytesMedia) KeyFromURL(url string) (string, bool) {
	return strings.TrimPrefix(url, "/uploads/"), strings.HasPrefix(url, "/uploads/")
}

// TestLearningControllerAlphabet verifies letter detail and the download headers.
func TestLearningControllerAlphabet(t *testing.T) {
	letters := alphabetSource{
		{Answer: "Letter A\nFist", ImageURL: "/uploads/images/a.png"},
		{Answer: "Letter B\nFlat hand", ImageURL: "/uploads/images/b.jpg"},
	}
	svc := service.NewLearningService(letters, nil, nil, bytesMedia{"images/b.jpg": "JPEGDATA"})
	lc := NewLearningController(svc)
	r := gin.New()
	r.GET("/api/alphabet/:index", lc.GetAlphabetDetail)
	r.GET("/api/alphabet/:index/download", lc.DownloadLetter)

	_, env := doJSON(t, r, http.MethodGet, "/api/alphabet/1", nil)
	var detail service.AlphabetDetail
	json.Unmarshal(env.Data, &detail)
	if detail.Letter != "B" || detail.Description != "Flat hand" || !detail.HasPrev || detail.HasNext {
		t.Fatalf("unexpected detail %+v", detail)
	}

	if w, _ := doJSON(t, r, http.MethodGet, "/api/alphabet/x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad index status = %d", w.Code)
	}
	if w, _ := doJSON(t, r, http.MethodGet, "/api/alphabet/9", nil); w.Code != http.StatusNotFound {
		t.Fatalf("missing index status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/alphabet/1/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "JPEGDATA" {
		t.Fatalf("download = %d %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="ASL_Letter_B.jpg"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
}
