// Package live pushes wheel state to the browser over WebSocket.
package live

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ashureev/mischief-wheel/internal/identity"
	"github.com/ashureev/mischief-wheel/internal/session"
	"github.com/ashureev/mischief-wheel/internal/wheel"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Message types exchanged with the client.
const (
	TypeSpin     = "spin"
	TypeComplete = "complete"
	TypeSkip     = "skip"
	TypePing     = "ping"
	TypePong     = "pong"
	TypeWheel    = "wheel"
	TypeError    = "error"
)

// Message is the envelope for both directions.
type Message struct {
	Type  string          `json:"type"`
	Wheel *wheel.Snapshot `json:"wheel,omitempty"`
	Error string          `json:"error,omitempty"`
}

// WebSocketHandler streams a wheel session and accepts its input events.
type WebSocketHandler struct {
	sm            *session.Manager
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(sm *session.Manager, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		sm:            sm,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "user_id", userID, "session_id", sessionID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	c := h.sm.GetOrCreate(userID, sessionID)
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	initial := c.Snapshot()
	if err := wsjson.Write(ctx, ws, Message{Type: TypeWheel, Wheel: &initial}); err != nil {
		slog.Debug("Failed to send initial wheel", "error", err, "user_id", userID)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, c, userID)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, ws, updates, userID)
	}()

	wg.Wait()
	slog.Info("Wheel stream ended", "user_id", userID, "session_id", sessionID)
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

func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn, c *wheel.Controller, userID string) {
	for {
		var msg Message
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var err error
		switch msg.Type {
		case TypeSpin:
			_, err = c.Spin()
		case TypeComplete:
			_, err = c.Complete()
		case TypeSkip:
			_, err = c.Skip()
		case TypePing:
			err = wsjson.Write(ctx, ws, Message{Type: TypePong})
		default:
			err = errors.New("unknown message type")
		}

		if errors.Is(err, wheel.ErrClosed) {
			if writeErr := wsjson.Write(ctx, ws, Message{Type: TypeError, Error: err.Error()}); writeErr != nil {
				slog.Debug("Failed to send session closed error", "error", writeErr, "user_id", userID)
			}
			return
		}
		if err != nil {
			if writeErr := wsjson.Write(ctx, ws, Message{Type: TypeError, Error: err.Error()}); writeErr != nil {
				slog.Debug("Failed to send error", "error", writeErr, "user_id", userID)
				return
			}
		}
	}
}

func (h *WebSocketHandler) outputLoop(ctx context.Context, ws *websocket.Conn, updates <-chan wheel.Snapshot, userID string) {
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				// Session torn down.
				return
			}
			if err := wsjson.Write(ctx, ws, Message{Type: TypeWheel, Wheel: &snap}); err != nil {
				if ctx.Err() == nil {
					slog.Debug("WebSocket write error", "error", err, "user_id", userID)
				}
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
