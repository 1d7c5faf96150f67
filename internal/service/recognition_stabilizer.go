package service

import (
	"math"
	"time"

	"signlearn_backend/internal/config"
	"signlearn_backend/internal/util"
)

const (
	WaitingSign = "Waiting..."
	fpsWindow   = 500 * time.Millisecond
)

type TranscriptEntry struct {
	Sign       string `json:"sign"`
	Confidence int    `json:"confidence"`
	Time       string `json:"time"`
}

type StabilizerSettings struct {
	Debounce        time.Duration
	DuplicateWindow time.Duration
	MaxTranscript   int
}

func SettingsFromConfig(cfg config.RecognitionConfig) StabilizerSettings {
	return StabilizerSettings{
		Debounce:        cfg.Debounce(),
		DuplicateWindow: cfg.DuplicateWindow(),
		MaxTranscript:   cfg.MaxTranscript,
	}
}

// Observation 单帧识别后的界面状态
type Observation struct {
	HandDetected bool
	CurrentSign  string
	Confidence   int
	Added        *TranscriptEntry
	FPS          int
}

// Stabilizer 将识别服务的稳定结果去抖、去重后写入转录
// 非并发安全，由所属会话加锁
type Stabilizer struct {
	settings StabilizerSettings

	transcript       []TranscriptEntry
	lastAddedSign    string
	lastAddedAt      time.Time
	lastTranscriptAt time.Time

	currentSign       string
	currentConfidence int
	handDetected      bool

	frames   int
	fpsSince time.Time
	fps      int
}

func NewStabilizer(settings StabilizerSettings, now time.Time) *Stabilizer {
	return &Stabilizer{
		settings:    settings,
		transcript:  []TranscriptEntry{},
		currentSign: WaitingSign,
		fpsSince:    now,
	}
}

func (s *Stabilizer) SetSettings(settings StabilizerSettings) {
	s.settings = settings
	s.trim()
}

// activeLastSign 上次加入的手势，超过重复窗口后视为空
func (s *Stabilizer) activeLastSign(now time.Time) string {
	if s.lastAddedSign == "" || now.Sub(s.lastAddedAt) >= s.settings.DuplicateWindow {
		return ""
	}
	return s.lastAddedSign
}

func (s *Stabilizer) Observe(p *Prediction, now time.Time) Observation {
	s.tickFPS(now)

	if p == nil || !p.HandDetected || p.BoundingBox == nil {
		s.handDetected = false
		s.currentSign = WaitingSign
		s.currentConfidence = 0
		s.lastAddedSign = ""
		return s.observation(nil)
	}

	s.handDetected = true
	if p.RealTimePrediction != nil && *p.RealTimePrediction != "" {
		s.currentSign = *p.RealTimePrediction
		s.currentConfidence = percent(p.RealTimeConfidence)
	}

	var added *TranscriptEntry
	if p.ShouldAddToTranscript && p.StablePrediction != nil && *p.StablePrediction != "" {
		sign := *p.StablePrediction
		if now.Sub(s.lastTranscriptAt) >= s.settings.Debounce && sign != s.activeLastSign(now) {
			entry := TranscriptEntry{
				Sign:       sign,
				Confidence: percent(p.StableConfidence),
				Time:       now.Format(util.ClockFormat),
			}
			s.transcript = append(s.transcript, entry)
			s.trim()
			s.lastAddedSign = sign
			s.lastAddedAt = now
			s.lastTranscriptAt = now
			added = &entry
		}
	}
	return s.observation(added)
}

// MarkFailed 请求失败时仅清除手部状态，保留去重记录
func (s *Stabilizer) MarkFailed() {
	s.handDetected = false
}

func (s *Stabilizer) Reset() {
	s.transcript = []TranscriptEntry{}
	s.currentSign = WaitingSign
	s.currentConfidence = 0
	s.lastAddedSign = ""
	s.lastAddedAt = time.Time{}
	s.lastTranscriptAt = time.Time{}
}

func (s *Stabilizer) Transcript() []TranscriptEntry {
	out := make([]TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Stabilizer) CurrentSign() (string, int) {
	return s.currentSign, s.currentConfidence
}

func (s *Stabilizer) HandDetected() bool {
	return s.handDetected
}

func (s *Stabilizer) FPS() int {
	return s.fps
}

// 保留最新的 MaxTranscript 条
func (s *Stabilizer) trim() {
	limit := s.settings.MaxTranscript
	if limit > 0 && len(s.transcript) > limit {
		s.transcript = append([]TranscriptEntry(nil), s.transcript[len(s.transcript)-limit:]...)
	}
}

func (s *Stabilizer) tickFPS(now time.Time) {
	s.frames++
	elapsed := now.Sub(s.fpsSince)
	if elapsed > fpsWindow {
		s.fps = int(math.Round(float64(s.frames) * float64(time.Second) / float64(elapsed)))
		s.frames = 0
		s.fpsSince = now
	}
}

func (s *Stabilizer) observation(added *TranscriptEntry) Observation {
	return Observation{
		HandDetected: s.handDetected,
		CurrentSign:  s.currentSign,
		Confidence:   s.currentConfidence,
		Added:        added,
		FPS:          s.fps,
	}
}

func percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// FrameDims 摄像头原始尺寸与页面显示尺寸
type FrameDims struct {
	VideoWidth    float64 `json:"videoWidth" form:"videoWidth"`
	VideoHeight   float64 `json:"videoHeight" form:"videoHeight"`
	DisplayWidth  float64 `json:"displayWidth" form:"displayWidth"`
	DisplayHeight float64 `json:"displayHeight" form:"displayHeight"`
}

func (d FrameDims) Valid() bool {
	return d.VideoWidth > 0 && d.VideoHeight > 0 && d.DisplayWidth > 0 && d.DisplayHeight > 0
}

type DisplayBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MapBoundingBox 将识别框换算到镜像显示的画面坐标
func MapBoundingBox(box BoundingBox, dims FrameDims) (DisplayBox, bool) {
	if !dims.Valid() {
		return DisplayBox{}, false
	}
	scaleX := dims.DisplayWidth / dims.VideoWidth
	scaleY := dims.DisplayHeight / dims.VideoHeight
	return DisplayBox{
		X:      (dims.VideoWidth - box.XMax) * scaleX,
		Y:      box.YMin * scaleY,
		Width:  (box.XMax - box.XMin) * scaleX,
		Height: (box.YMax - box.YMin) * scaleY,
	}, true
}
