package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/util"
)

func newTestInferenceClient(url string) *InferenceClient {
	return NewInferenceClient(&config.InferenceConfig{BaseURL: url + "/", Timeout: 2 * time.Second})
}

// TestInferencePredictSendsMultipart verifies the frame is posted as form file "file".
func TestInferencePredictSendsMultipart(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff, 0xe0, 1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer f.Close()
		got, _ := io.ReadAll(f)
		if string(got) != string(frame) || hdr.Filename != "frame.jpg" {
			t.Errorf("unexpected upload %q name=%s", got, hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"hand_detected": true,
			"real_time_prediction": "hello",
			"real_time_confidence": 0.81,
			"stable_prediction": null,
			"stable_confidence": 0,
			"should_add_to_transcript": false,
			"bounding_box": {"x_min": 1, "y_min": 2, "x_max": 3, "y_max": 4},
			"top_3_predictions": [{"class": "hello", "confidence": 0.81}],
			"inference_time": 12.5,
			"buffer_size": 2
		}`)
	}))
	defer srv.Close()

	p, err := newTestInferenceClient(srv.URL).Predict(context.Background(), frame)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !p.HandDetected || p.RealTimePrediction == nil || *p.RealTimePrediction != "hello" {
		t.Fatalf("unexpected prediction %+v", p)
	}
	if p.StablePrediction != nil {
		t.Fatalf("expected null stable prediction")
	}
	if p.BoundingBox == nil || p.BoundingBox.XMax != 3 || len(p.Top3) != 1 {
		t.Fatalf("unexpected box or top3: %+v %+v", p.BoundingBox, p.Top3)
	}
}

// TestInferenceStatusErrorUnwraps verifies non-2xx replies are reported as unavailable.
func TestInferenceStatusErrorUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestInferenceClient(srv.URL).Health(context.Background())
	var statusErr *InferenceStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected InferenceStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || statusErr.Body != "model not loaded" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if !errors.Is(err, util.ErrInferenceUnavailable) {
		t.Fatalf("status error should unwrap to ErrInferenceUnavailable")
	}
}

// TestInferenceUnreachable verifies transport failures wrap ErrInferenceUnavailable.
func TestInferenceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := newTestInferenceClient(url).ResetBuffer(context.Background())
	if !errors.Is(err, util.ErrInferenceUnavailable) {
		t.Fatalf("expected ErrInferenceUnavailable, got %v", err)
	}
}

// TestInferenceClassesDecode verifies the class list endpoint.
func TestInferenceClassesDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"total_classes": 2, "classes": ["hello", "yes"]}`)
	}))
	defer srv.Close()

	got, err := newTestInferenceClient(srv.URL).Classes(context.Background())
	if err != nil {
		t.Fatalf("classes: %v", err)
	}
	if got.TotalClasses != 2 || got.Classes[1] != "yes" {
		t.Fatalf("unexpected classes %+v", got)
	}
}

// TestInferenceBadJSON verifies undecodable bodies are treated as unavailable.
func TestInferenceBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	if _, err := newTestInferenceClient(srv.URL).Health(context.Background()); !errors.Is(err, util.ErrInferenceUnavailable) {
		t.Fatalf("expected ErrInferenceUnavailable, got %v", err)
	}
}
