package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"signlearn_backend/internal/util"

	"github.com/gorilla/websocket"
)

type streamMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newStreamServer(svc *RecognitionService) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ServeStream(w, r, r.URL.Query().Get("id")); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
		}
	}))
}

func dialStream(srv *httptest.Server, id string, header http.Header) (*websocket.Conn, *http.Response, error) {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream?id=" + id
	return websocket.DefaultDialer.Dial(u, header)
}

func mustDial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := dialStream(srv, id, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readStream(t *testing.T, conn *websocket.Conn) streamMsg {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg streamMsg
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd)); err != nil {
		t.Fatalf("write command: %v", err)
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.WriteMessage(websocket.BinaryMessage, testFrame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func decodeView(t *testing.T, msg streamMsg) SessionView {
	t.Helper()
	if msg.Type != StreamState {
		t.Fatalf("expected state message, got %s %s", msg.Type, msg.Data)
	}
	var view SessionView
	if err := json.Unmarshal(msg.Data, &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return view
}

// TestStreamRejectsUnknownSession verifies the handshake is refused before upgrading.
func TestStreamRejectsUnknownSession(t *testing.T) {
	svc, _ := newTestRecognition(&fakePredictor{})
	srv := newStreamServer(svc)
	defer srv.Close()

	_, resp, err := dialStream(srv, "missing", nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %v", resp)
	}
}

// TestStreamFramesThrottleAndCommands drives frames and commands over one connection.
func TestStreamFramesThrottleAndCommands(t *testing.T) {
	pred := &fakePredictor{next: []*Prediction{stablePrediction("hello", 0.9)}}
	svc, _ := newTestRecognition(pred)
	sess := svc.Create()
	srv := newStreamServer(svc)
	defer srv.Close()
	conn := mustDial(t, srv, sess.ID)
	defer conn.Close()

	sendCommand(t, conn, `{"type":"dims","dims":{"videoWidth":640,"videoHeight":480,"displayWidth":320,"displayHeight":240}}`)
	// 同一帧间隔内的后两帧应被丢弃
	sendFrame(t, conn)
	sendFrame(t, conn)
	sendFrame(t, conn)
	sendCommand(t, conn, `{"type":"pause"}`)

	msg := readStream(t, conn)
	if msg.Type != StreamFrame {
		t.Fatalf("expected frame message, got %s %s", msg.Type, msg.Data)
	}
	var res FrameResult
	if err := json.Unmarshal(msg.Data, &res); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if !res.HandDetected || res.CurrentSign != "hello" || res.DisplayBox == nil || res.DisplayBox.X != 265 {
		t.Fatalf("unexpected frame result %+v", res)
	}

	if view := decodeView(t, readStream(t, conn)); !view.Paused {
		t.Fatalf("expected paused state after throttled frames, got %+v", view)
	}

	// 暂停时的帧不产生任何消息
	time.Sleep(60 * time.Millisecond)
	sendFrame(t, conn)
	sendCommand(t, conn, `{"type":"resume"}`)
	if view := decodeView(t, readStream(t, conn)); view.Paused {
		t.Fatalf("expected resumed state, got %+v", view)
	}

	sendCommand(t, conn, `{"type":"clear"}`)
	if view := decodeView(t, readStream(t, conn)); view.TranscriptSize != 0 {
		t.Fatalf("expected empty transcript after clear, got %+v", view)
	}
	pred.mu.Lock()
	resets := pred.resets
	pred.mu.Unlock()
	if resets != 1 {
		t.Fatalf("expected inference buffer reset, got %d", resets)
	}

	sendCommand(t, conn, `{"type":"wave"}`)
	if msg := readStream(t, conn); msg.Type != StreamError || string(msg.Data) != `"unknown command"` {
		t.Fatalf("expected unknown command error, got %s %s", msg.Type, msg.Data)
	}
}

// TestStreamBackendOffline verifies inference outages are reported without closing the stream.
func TestStreamBackendOffline(t *testing.T) {
	pred := &fakePredictor{err: fmt.Errorf("%w: connection refused", util.ErrInferenceUnavailable)}
	svc, _ := newTestRecognition(pred)
	sess := svc.Create()
	srv := newStreamServer(svc)
	defer srv.Close()
	conn := mustDial(t, srv, sess.ID)
	defer conn.Close()

	sendFrame(t, conn)
	if msg := readStream(t, conn); msg.Type != StreamError || string(msg.Data) != `"Backend Offline"` {
		t.Fatalf("expected Backend Offline, got %s %s", msg.Type, msg.Data)
	}

	sendCommand(t, conn, `{"type":"pause"}`)
	if view := decodeView(t, readStream(t, conn)); !view.Paused {
		t.Fatalf("stream should stay usable after an inference error")
	}
}

// TestStreamClosesWhenSessionStops verifies a frame for a stopped session ends the connection.
func TestStreamClosesWhenSessionStops(t *testing.T) {
	svc, _ := newTestRecognition(&fakePredictor{})
	sess := svc.Create()
	srv := newStreamServer(svc)
	defer srv.Close()
	conn := mustDial(t, srv, sess.ID)
	defer conn.Close()

	if err := svc.Stop(sess.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	sendFrame(t, conn)
	if msg := readStream(t, conn); msg.Type != StreamError || string(msg.Data) != `"session not found"` {
		t.Fatalf("expected session not found, got %s %s", msg.Type, msg.Data)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Fatalf("expected server close, got %v", err)
	}
}

// TestStreamOriginAllowList verifies browser origins follow the CORS allow-list.
func TestStreamOriginAllowList(t *testing.T) {
	svc, _ := newTestRecognition(&fakePredictor{})
	svc.AllowedOrigins = []string{"http://app.example"}
	sess := svc.Create()
	srv := newStreamServer(svc)
	defer srv.Close()

	_, resp, err := dialStream(srv, sess.ID, http.Header{"Origin": {"http://evil.example"}})
	if err == nil {
		t.Fatalf("expected foreign origin to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign origin, got %v", resp)
	}

	conn, _, err := dialStream(srv, sess.ID, http.Header{"Origin": {"http://app.example"}})
	if err != nil {
		t.Fatalf("allowed origin dial: %v", err)
	}
	conn.Close()
}
