package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/monitoring"
	"signlearn_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	frameFieldName = "file"
	frameFileName  = "frame.jpg"
	maxErrorBody   = 512
)

type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

type TopPrediction struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Prediction 识别服务 /predict 的返回
type Prediction struct {
	HandDetected          bool            `json:"hand_detected"`
	RealTimePrediction    *string         `json:"real_time_prediction"`
	RealTimeConfidence    float64         `json:"real_time_confidence"`
	StablePrediction      *string         `json:"stable_prediction"`
	StableConfidence      float64         `json:"stable_confidence"`
	ShouldAddToTranscript bool            `json:"should_add_to_transcript"`
	BoundingBox           *BoundingBox    `json:"bounding_box"`
	Top3                  []TopPrediction `json:"top_3_predictions,omitempty"`
	InferenceTime         float64         `json:"inference_time"`
	BufferSize            int             `json:"buffer_size,omitempty"`
	Timestamp             string          `json:"timestamp,omitempty"`
}

type InferenceHealth struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	ClassesLoaded bool   `json:"classes_loaded"`
	NumClasses    int    `json:"num_classes"`
	ImgSize       int    `json:"img_size"`
	Timestamp     string `json:"timestamp"`
}

type InferenceClasses struct {
	TotalClasses int      `json:"total_classes"`
	Classes      []string `json:"classes"`
}

// InferenceStatusError 识别服务返回非 2xx
type InferenceStatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *InferenceStatusError) Error() string {
	return fmt.Sprintf("inference %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *InferenceStatusError) Unwrap() error {
	return util.ErrInferenceUnavailable
}

type InferenceClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewInferenceClient(cfg *config.InferenceConfig) *InferenceClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &InferenceClient{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *InferenceClient) Health(ctx context.Context) (*InferenceHealth, error) {
	var out InferenceHealth
	if err := c.do(ctx, http.MethodGet, "/health", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InferenceClient) Classes(ctx context.Context) (*InferenceClasses, error) {
	var out InferenceClasses
	if err := c.do(ctx, http.MethodGet, "/classes", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict 以 multipart 表单上传一帧 JPEG
func (c *InferenceClient) Predict(ctx context.Context, frame []byte) (*Prediction, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(frameFieldName, frameFileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(frame); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out Prediction
	if err := c.do(ctx, http.MethodPost, "/predict", &body, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *InferenceClient) ResetBuffer(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reset_buffer", nil, "", nil)
}

func (c *InferenceClient) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string, out interface{}) (err error) {
	ctx, span := tracing.StartSpan(ctx, "inference "+endpoint)
	span.SetAttributes(attribute.String("http.method", method), attribute.String("inference.endpoint", endpoint))
	start := time.Now()
	defer func() {
		monitoring.InferenceDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			monitoring.InferenceFailures.WithLabelValues(endpoint).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrInferenceUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &InferenceStatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", util.ErrInferenceUnavailable, endpoint, err)
	}
	return nil
}
