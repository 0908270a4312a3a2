package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/services"
)

// WSHandler drives the chat tester: one socket per operator session, each
// inbound turn answered with paced bubble frames so the console renders
// replies the way an end-user channel would.
type WSHandler struct {
	chat     services.ChatService
	upgrader websocket.Upgrader
}

func NewWSHandler(chat services.ChatService) *WSHandler {
	return &WSHandler{
		chat: chat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type      string            `json:"type"` // chat|ping
	UserID    string            `json:"user_id"`
	ContactID string            `json:"contact_id"`
	Locale    string            `json:"locale"`
	Messages  []models.Message  `json:"messages"`
	Metadata  map[string]string `json:"metadata"`
}

type wsServerMsg struct {
	Type    string `json:"type"` // chunk|bubble|done|error
	Text    string `json:"text,omitempty"`
	Index   int    `json:"index,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteJSON(v)
}

func (h *WSHandler) ChatWS(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx := c.Request.Context()

	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: "INVALID_ARGUMENT", Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "ping":
			_ = wc.writeJSON(wsServerMsg{Type: "done"})

		case "chat":
			resp, err := h.chat.StreamTurn(ctx, models.ChatRequest{
				TenantID:  tenantID,
				UserID:    msg.UserID,
				ContactID: msg.ContactID,
				Locale:    msg.Locale,
				Channel:   "ws-tester",
				Messages:  msg.Messages,
				Metadata:  msg.Metadata,
			}, func(chunk string) error {
				return wc.writeJSON(wsServerMsg{Type: "chunk", Text: chunk})
			})
			if err != nil {
				_ = wc.writeJSON(wsServerMsg{Type: "error", Code: "INTERNAL", Message: "chat turn failed"})
				continue
			}

			if !h.streamBubbles(ctx, wc, resp.Bubbles) {
				return
			}
			_ = wc.writeJSON(wsServerMsg{Type: "done"})

		default:
			_ = wc.writeJSON(wsServerMsg{Type: "error", Code: "INVALID_ARGUMENT", Message: "unknown message type"})
		}
	}
}

// streamBubbles honors each bubble's pacing delay before sending it.
func (h *WSHandler) streamBubbles(ctx context.Context, wc *wsConn, bubbles []models.Bubble) bool {
	for i, b := range bubbles {
		if b.DelayMS > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(time.Duration(b.DelayMS) * time.Millisecond):
			}
		}
		if err := wc.writeJSON(wsServerMsg{Type: "bubble", Text: b.Text, Index: i}); err != nil {
			return false
		}
	}
	return true
}
