package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/model"
	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"
	"signlearn_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const transcriptFilePrefix = "sign_transcript_"

// Predictor 识别服务中与实时采集相关的调用
type Predictor interface {
	Predict(ctx context.Context, frame []byte) (*Prediction, error)
	ResetBuffer(ctx context.Context) error
}

type RecognitionSession struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	paused   bool
	lastSeen time.Time
	stab     *Stabilizer
	inFlight atomic.Bool
}

type SessionView struct {
	ID             string            `json:"id"`
	Paused         bool              `json:"paused"`
	HandDetected   bool              `json:"handDetected"`
	CurrentSign    string            `json:"currentSign"`
	Confidence     int               `json:"confidence"`
	FPS            int               `json:"fps"`
	Transcript     []TranscriptEntry `json:"transcript"`
	TranscriptSize int               `json:"transcriptSize"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// FrameResult 一帧的处理结果，HTTP 与 WebSocket 共用
type FrameResult struct {
	SessionID        string           `json:"sessionId"`
	HandDetected     bool             `json:"handDetected"`
	CurrentSign      string           `json:"currentSign"`
	Confidence       int              `json:"confidence"`
	StablePrediction *string          `json:"stablePrediction"`
	StableConfidence int              `json:"stableConfidence"`
	Added            *TranscriptEntry `json:"added,omitempty"`
	BoundingBox      *BoundingBox     `json:"boundingBox,omitempty"`
	DisplayBox       *DisplayBox      `json:"displayBox,omitempty"`
	TopPredictions   []TopPrediction  `json:"topPredictions,omitempty"`
	InferenceTime    float64          `json:"inferenceTime"`
	RoundTripMs      int64            `json:"roundTripMs"`
	FPS              int              `json:"fps"`
	TranscriptSize   int              `json:"transcriptSize"`
}

type TranscriptExport struct {
	FileName string
	Content  string
}

type RecognitionService struct {
	Inference     Predictor
	MaxFrameBytes int64
	// AllowedOrigins WebSocket 握手允许的来源，与 cors.allowed_origins 一致
	AllowedOrigins []string

	mu       sync.RWMutex
	sessions map[string]*RecognitionSession

	cfgMu sync.RWMutex
	cfg   config.RecognitionConfig

	now func() time.Time
}

func NewRecognitionService(inference Predictor, cfg config.RecognitionConfig, maxFrameBytes int64) *RecognitionService {
	return &RecognitionService{
		Inference:     inference,
		MaxFrameBytes: maxFrameBytes,
		sessions:      make(map[string]*RecognitionSession),
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *RecognitionService) Config() config.RecognitionConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig 热更新去抖参数，已有会话立即生效
func (s *RecognitionService) UpdateConfig(cfg config.RecognitionConfig) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	settings := SettingsFromConfig(cfg)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.mu.Lock()
		sess.stab.SetSettings(settings)
		sess.mu.Unlock()
	}
	logger.Log.Info("Recognition settings updated",
		zap.Int("debounceMs", cfg.DebounceMs),
		zap.Int("duplicateWindowMs", cfg.DuplicateWindowMs),
		zap.Int("maxTranscript", cfg.MaxTranscript),
	)
}

func (s *RecognitionService) Create() *SessionView {
	now := s.now()
	sess := &RecognitionSession{
		ID:        model.NewSessionID(),
		CreatedAt: now,
		lastSeen:  now,
		stab:      NewStabilizer(SettingsFromConfig(s.Config()), now),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	monitoring.ActiveRecognitionSessions.Set(float64(count))
	logger.Log.Info("Recognition session started", zap.String("sessionId", sess.ID))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view()
}

func (s *RecognitionService) session(id string) (*RecognitionSession, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	return sess, nil
}

func (s *RecognitionService) Get(id string) (*SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	return sess.view(), nil
}

// ProcessFrame 转发一帧到识别服务；每个会话同一时刻只处理一帧
func (s *RecognitionService) ProcessFrame(ctx context.Context, id string, frame []byte, dims FrameDims) (*FrameResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if len(frame) == 0 || (s.MaxFrameBytes > 0 && int64(len(frame)) > s.MaxFrameBytes) {
		return nil, util.ErrInvalidInput
	}

	sess.mu.Lock()
	paused := sess.paused
	sess.lastSeen = s.now()
	sess.mu.Unlock()
	if paused {
		return nil, util.ErrSessionPaused
	}

	if !sess.inFlight.CompareAndSwap(false, true) {
		return nil, util.ErrFrameInFlight
	}
	defer sess.inFlight.Store(false)

	start := time.Now()
	pred, err := s.Inference.Predict(ctx, frame)
	roundTrip := time.Since(start).Milliseconds()
	if err != nil {
		sess.mu.Lock()
		sess.stab.MarkFailed()
		sess.mu.Unlock()
		return nil, err
	}

	sess.mu.Lock()
	obs := sess.stab.Observe(pred, s.now())
	size := len(sess.stab.transcript)
	sess.mu.Unlock()

	if obs.Added != nil {
		monitoring.TranscriptAdditions.Inc()
		logger.Log.Debug("Sign added to transcript",
			zap.String("sessionId", id),
			zap.String("sign", obs.Added.Sign),
			zap.Int("confidence", obs.Added.Confidence),
		)
	}

	result := &FrameResult{
		SessionID:        id,
		HandDetected:     obs.HandDetected,
		CurrentSign:      obs.CurrentSign,
		Confidence:       obs.Confidence,
		StablePrediction: pred.StablePrediction,
		StableConfidence: percent(pred.StableConfidence),
		Added:            obs.Added,
		TopPredictions:   pred.Top3,
		InferenceTime:    pred.InferenceTime,
		RoundTripMs:      roundTrip,
		FPS:              obs.FPS,
		TranscriptSize:   size,
	}
	if obs.HandDetected && pred.BoundingBox != nil {
		box := *pred.BoundingBox
		result.BoundingBox = &box
		if display, ok := MapBoundingBox(box, dims); ok {
			result.DisplayBox = &display
		}
	}
	return result, nil
}

func (s *RecognitionService) Pause(id string) (*SessionView, error) {
	return s.setPaused(id, true)
}

func (s *RecognitionService) Resume(id string) (*SessionView, error) {
	return s.setPaused(id, false)
}

func (s *RecognitionService) setPaused(id string, paused bool) (*SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.paused = paused
	sess.lastSeen = s.now()
	return sess.view(), nil
}

func (s *RecognitionService) Transcript(id string) ([]TranscriptEntry, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.stab.Transcript(), nil
}

// ClearTranscript 清空转录并重置识别服务的投票缓冲，后者失败只记日志
func (s *RecognitionService) ClearTranscript(ctx context.Context, id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.stab.Reset()
	sess.lastSeen = s.now()
	sess.mu.Unlock()

	if err := s.Inference.ResetBuffer(ctx); err != nil {
		logger.Log.Warn("Failed to reset inference buffer", zap.String("sessionId", id), zap.Error(err))
	}
	return nil
}

func (s *RecognitionService) Export(id string) (*TranscriptExport, error) {
	entries, err := s.Transcript(id)
	if err != nil {
		return nil, err
	}
	return BuildTranscriptExport(entries, s.now()), nil
}

func BuildTranscriptExport(entries []TranscriptEntry, now time.Time) *TranscriptExport {
	signs := make([]string, len(entries))
	for i, e := range entries {
		signs[i] = e.Sign
	}
	return &TranscriptExport{
		FileName: transcriptFilePrefix + now.Format(util.DateFormat) + ".txt",
		Content:  strings.Join(signs, " "),
	}
}

func (s *RecognitionService) Stop(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return util.ErrSessionNotFound
	}
	monitoring.ActiveRecognitionSessions.Set(float64(count))
	logger.Log.Info("Recognition session stopped", zap.String("sessionId", id))
	return nil
}

// Reap 移除空闲超过 idle 的会话
func (s *RecognitionService) Reap(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if len(expired) > 0 {
		monitoring.ActiveRecognitionSessions.Set(float64(count))
		logger.Log.Info("Expired idle recognition sessions", zap.Strings("sessionIds", expired))
	}
	return len(expired)
}

func (s *RecognitionService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reap(s.Config().SessionIdle())
		}
	}
}

func (s *RecognitionService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// 调用方持有 sess.mu
func (sess *RecognitionSession) view() *SessionView {
	sign, conf := sess.stab.CurrentSign()
	transcript := sess.stab.Transcript()
	return &SessionView{
		ID:             sess.ID,
		Paused:         sess.paused,
		HandDetected:   sess.stab.HandDetected(),
		CurrentSign:    sign,
		Confidence:     conf,
		FPS:            sess.stab.FPS(),
		Transcript:     transcript,
		TranscriptSize: len(transcript),
		CreatedAt:      sess.CreatedAt,
	}
}
