package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"signlearn_backend/internal/util"
	"signlearn_backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	streamSendSize = 16
	controlMsgSize = 1024
)

const (
	StreamFrame  = "frame"
	StreamState  = "state"
	StreamError  = "error"
	StreamPause  = "pause"
	StreamResume = "resume"
	StreamClear  = "clear"
	StreamDims   = "dims"
)

// StreamMessage 服务端推送
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// StreamCommand 客户端文本消息，二进制消息一律视为 JPEG 帧
type StreamCommand struct {
	Type string     `json:"type"`
	Dims *FrameDims `json:"dims,omitempty"`
}

type recognitionStream struct {
	svc     *RecognitionService
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	dims    FrameDims
}

// ServeStream 升级为 WebSocket 并阻塞到连接关闭；会话不存在时在升级前返回错误
func (s *RecognitionService) ServeStream(w http.ResponseWriter, r *http.Request, id string) error {
	if _, err := s.session(id); err != nil {
		return err
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("Recognition stream upgrade failed", zap.String("sessionId", id), zap.Error(err))
		return nil
	}

	st := &recognitionStream{
		svc:     s,
		id:      id,
		conn:    conn,
		send:    make(chan []byte, streamSendSize),
		limiter: rate.NewLimiter(rate.Every(s.Config().FrameInterval()), 1),
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go st.writePump()
	st.readPump(ctx)
	return nil
}

// checkOrigin 与 CORS 使用同一白名单；无 Origin 的非浏览器客户端和同源请求放行
func (s *RecognitionService) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	logger.Log.Warn("Recognition stream origin rejected", zap.String("origin", origin))
	return false
}

func (st *recognitionStream) readPump(ctx context.Context) {
	defer func() {
		close(st.send)
	}()

	readLimit := int64(controlMsgSize)
	if st.svc.MaxFrameBytes > readLimit {
		readLimit = st.svc.MaxFrameBytes
	}
	st.conn.SetReadLimit(readLimit)
	st.conn.SetReadDeadline(time.Now().Add(pongWait))
	st.conn.SetPongHandler(func(string) error { st.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		msgType, message, err := st.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("Recognition stream unexpected close", zap.Error(err), zap.String("sessionId", st.id))
			}
			return
		}
		st.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msgType {
		case websocket.BinaryMessage:
			// 超过帧间隔的帧直接丢弃
			if !st.limiter.Allow() {
				continue
			}
			if !st.handleFrame(ctx, message) {
				return
			}
		case websocket.TextMessage:
			if !st.handleCommand(ctx, message) {
				return
			}
		}
	}
}

// handleFrame 返回 false 表示会话已被停止或过期
func (st *recognitionStream) handleFrame(ctx context.Context, frame []byte) bool {
	result, err := st.svc.ProcessFrame(ctx, st.id, frame, st.dims)
	switch {
	case err == nil:
		st.push(StreamFrame, result)
	case errors.Is(err, util.ErrSessionNotFound):
		st.push(StreamError, err.Error())
		return false
	case errors.Is(err, util.ErrSessionPaused), errors.Is(err, util.ErrFrameInFlight):
	case errors.Is(err, util.ErrInferenceUnavailable):
		st.push(StreamError, "Backend Offline")
	default:
		st.push(StreamError, err.Error())
	}
	return true
}

// handleCommand 返回 false 表示会话已不存在
func (st *recognitionStream) handleCommand(ctx context.Context, raw []byte) bool {
	var cmd StreamCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		st.push(StreamError, "invalid command")
		return true
	}

	var (
		view *SessionView
		err  error
	)
	switch cmd.Type {
	case StreamDims:
		if cmd.Dims != nil {
			st.dims = *cmd.Dims
		}
		return true
	case StreamPause:
		view, err = st.svc.Pause(st.id)
	case StreamResume:
		view, err = st.svc.Resume(st.id)
	case StreamClear:
		if err = st.svc.ClearTranscript(ctx, st.id); err == nil {
			view, err = st.svc.Get(st.id)
		}
	default:
		st.push(StreamError, "unknown command")
		return true
	}

	if errors.Is(err, util.ErrSessionNotFound) {
		st.push(StreamError, err.Error())
		return false
	}
	if err != nil {
		st.push(StreamError, err.Error())
		return true
	}
	st.push(StreamState, view)
	return true
}

// push 发送缓冲满时丢弃，慢客户端不阻塞识别
func (st *recognitionStream) push(msgType string, data interface{}) {
	payload, err := json.Marshal(StreamMessage{Type: msgType, Data: data})
	if err != nil {
		logger.Log.Error("Failed to encode stream message", zap.Error(err))
		return
	}
	select {
	case st.send <- payload:
	default:
		logger.Log.Debug("Recognition stream send buffer full", zap.String("sessionId", st.id))
	}
}

func (st *recognitionStream) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		st.conn.Close()
	}()
	for {
		select {
		case message, ok := <-st.send:
			st.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				st.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := st.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			st.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := st.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
