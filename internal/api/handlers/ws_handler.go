package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/utils"
)

// WSHandler streams microphone audio into the STT queue.
type WSHandler struct {
	stt      services.STTService
	upgrader websocket.Upgrader
}

func NewWSHandler(stt services.STTService) *WSHandler {
	return &WSHandler{
		stt: stt,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type        string `json:"type"` // audio_chunk | end
	ChunkIndex  int64  `json:"chunk_index"`
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

type wsServerMsg struct {
	Type       string     `json:"type"`
	Status     string     `json:"status,omitempty"`
	ChunkIndex int64      `json:"chunk_index,omitempty"`
	Code       utils.Code `json:"code,omitempty"`
	Message    string     `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

func (w *wsConn) writeError(code utils.Code, msg string) {
	_ = w.writeJSON(wsServerMsg{Type: "error", Code: code, Message: msg})
}

func (h *WSHandler) AudioWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			wc.writeError(utils.CodeInvalidArgument, "invalid json")
			continue
		}

		switch msg.Type {
		case "audio_chunk":
			raw := msg.AudioBase64
			if i := strings.Index(raw, ","); i >= 0 {
				raw = raw[i+1:] // strip data:...;base64,
			}
			audio, err := base64.StdEncoding.DecodeString(raw)
			if err != nil || len(audio) == 0 {
				wc.writeError(utils.CodeInvalidArgument, "audio_base64 required")
				continue
			}
			if _, err := h.stt.EnqueueAudio(ctx, audio, msg.Language); err != nil {
				wc.writeError(utils.CodeUnavailable, "failed to enqueue audio")
				continue
			}
			_ = wc.writeJSON(wsServerMsg{Type: "status", Status: "queued", ChunkIndex: msg.ChunkIndex})

		case "end":
			_ = wc.writeJSON(wsServerMsg{Type: "status", Status: "ended"})
			return

		default:
			wc.writeError(utils.CodeInvalidArgument, "unknown message type")
		}
	}
}
