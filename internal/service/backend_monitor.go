package service

import (
	"context"
	"sync"
	"time"

	"signlearn_backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	BackendChecking  = "checking"
	BackendConnected = "connected"
	BackendError     = "error"
)

type HealthChecker interface {
	Health(ctx context.Context) (*InferenceHealth, error)
}

type BackendStatus struct {
	Status      string           `json:"status"`
	Label       string           `json:"label"`
	Health      *InferenceHealth `json:"health,omitempty"`
	Error       string           `json:"error,omitempty"`
	LastChecked *time.Time       `json:"lastChecked,omitempty"`
}

// BackendMonitor 定时探测识别服务的 /health
type BackendMonitor struct {
	Checker  HealthChecker
	Interval time.Duration
	Timeout  time.Duration

	mu          sync.RWMutex
	status      string
	health      *InferenceHealth
	lastErr     string
	lastChecked time.Time
}

func NewBackendMonitor(checker HealthChecker, interval, timeout time.Duration) *BackendMonitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &BackendMonitor{
		Checker:  checker,
		Interval: interval,
		Timeout:  timeout,
		status:   BackendChecking,
	}
}

func (m *BackendMonitor) Run(ctx context.Context) {
	m.Check(ctx)
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check 执行一次探测，状态变化时记录日志
func (m *BackendMonitor) Check(ctx context.Context) string {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	health, err := m.Checker.Health(ctx)

	m.mu.Lock()
	prev := m.status
	m.lastChecked = time.Now()
	if err != nil {
		m.status = BackendError
		m.health = nil
		m.lastErr = err.Error()
	} else {
		m.status = BackendConnected
		m.health = health
		m.lastErr = ""
	}
	current := m.status
	m.mu.Unlock()

	if prev != current {
		if err != nil {
			logger.Log.Warn("Inference backend offline", zap.Error(err))
		} else {
			logger.Log.Info("Inference backend connected",
				zap.Bool("modelLoaded", health.ModelLoaded),
				zap.Int("numClasses", health.NumClasses),
			)
		}
	}
	return current
}

func (m *BackendMonitor) Status() BackendStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := BackendStatus{
		Status: m.status,
		Label:  statusLabel(m.status),
		Health: m.health,
		Error:  m.lastErr,
	}
	if !m.lastChecked.IsZero() {
		t := m.lastChecked
		st.LastChecked = &t
	}
	return st
}

func statusLabel(status string) string {
	switch status {
	case BackendConnected:
		return "Backend Connected"
	case BackendError:
		return "Backend Offline"
	default:
		return "Checking..."
	}
}
