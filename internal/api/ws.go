package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"factorygpt/internal/engine"
)

// WebSocketHandler serves a streaming chat channel. Each inbound message is
// one question; each outbound message is one answer. The session is pinned to
// the connection, so follow-up questions resolve against the same memory.
type WebSocketHandler struct {
	engine        *engine.Engine
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket chat handler.
func NewWebSocketHandler(eng *engine.Engine, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		engine:        eng,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsAsk is the inbound message shape.
type wsAsk struct {
	Type     string `json:"type"`
	Question string `json:"question,omitempty"`
}

// wsAnswer is the outbound message shape.
type wsAnswer struct {
	Type   string `json:"type"`
	Answer string `json:"answer,omitempty"`
	Graph  string `json:"graph,omitempty"`
	Status string `json:"status,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// One memory session per connection. The engine mints the ID on the
	// first question and we reuse it for the rest of the conversation.
	var sessionID string

	slog.Info("Chat WebSocket connected", "ip", r.RemoteAddr)
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed by client")
			} else {
				slog.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var msg wsAsk
		if err := json.Unmarshal(message, &msg); err != nil {
			// Fall back to treating the raw payload as the question.
			msg = wsAsk{Type: "ask", Question: string(message)}
		}

		switch msg.Type {
		case "ping":
			if err := h.writeJSON(ws, wsAnswer{Type: "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		case "ask", "":
			reply := h.answer(ctx, &sessionID, msg.Question)
			if err := h.writeJSON(ws, reply); err != nil {
				slog.Warn("Failed to send answer", "error", err)
				return
			}
		default:
			slog.Debug("Ignoring unknown message type", "type", msg.Type)
		}
	}
}

func (h *WebSocketHandler) answer(ctx context.Context, sessionID *string, question string) wsAnswer {
	answer, err := h.engine.Ask(ctx, *sessionID, question)
	if err != nil {
		var engErr *engine.Error
		if errors.As(err, &engErr) {
			status := "error"
			if engErr.Code == engine.ErrorNotReady {
				status = "initializing"
			}
			return wsAnswer{Type: "answer", Answer: engErr.UserMessage, Status: status}
		}
		slog.Error("Unexpected ask failure", "error", err)
		return wsAnswer{
			Type:   "answer",
			Answer: "Something went wrong while answering. Please try again.",
			Status: "error",
		}
	}
	*sessionID = answer.SessionID
	return wsAnswer{Type: "answer", Answer: answer.Text, Graph: answer.Chart, Status: "success"}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) writeJSON(ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(context.Background(), websocket.MessageText, data)
}
