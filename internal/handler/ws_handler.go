package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/examgate/examgate-backend/internal/middleware"
	"github.com/examgate/examgate-backend/internal/model"
	"github.com/examgate/examgate-backend/internal/service"
	ws "github.com/examgate/examgate-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const clockInterval = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the authoritative session clock over WebSocket so
// clients never trust their local timer.
type WSHandler struct {
	sessions *service.ExamSessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionClockStream godoc
// WS /ws/v1/exams/:exam_id/sessions/:session_id/clock?token=...
// Pushes the remaining time every tick and on demand. The stream ends when
// the session expires or completes.
func (h *WSHandler) SessionClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	if _, err := h.sessions.State(c.Request.Context(), sessionID, examID, claims.UserID); err != nil {
		ws.WriteError(conn, "no live session for this exam")
		return
	}

	wsLog.Info().Msg("Clock stream connected")

	// Reader: handles ping/state requests and surfaces disconnects.
	requests := make(chan ws.Action)
	go func() {
		defer close(requests)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			requests <- msg.Action
		}
	}()

	ticker := time.NewTicker(clockInterval)
	defer ticker.Stop()

	if !h.pushClock(c, conn, sessionID, examID, claims.UserID) {
		return
	}

	for {
		select {
		case <-c.Request.Context().Done():
			wsLog.Debug().Msg("Clock stream context done")
			return
		case action, open := <-requests:
			if !open {
				wsLog.Debug().Msg("Clock stream closed by client")
				return
			}
			switch action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionState:
				if !h.pushClock(c, conn, sessionID, examID, claims.UserID) {
					return
				}
			default:
				ws.WriteError(conn, "unknown action: "+string(action))
			}
		case <-ticker.C:
			if !h.pushClock(c, conn, sessionID, examID, claims.UserID) {
				return
			}
		}
	}
}

// pushClock sends one clock frame. Returns false when the stream should end.
func (h *WSHandler) pushClock(c *gin.Context, conn *websocket.Conn, sessionID, examID uuid.UUID, userID int) bool {
	view, err := h.sessions.State(c.Request.Context(), sessionID, examID, userID)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			ws.WriteTyped(conn, ws.ClockResponse{
				Event:     ws.EventClock,
				SessionID: sessionID.String(),
				Status:    string(model.SessionStatusCompleted),
				Expired:   true,
			})
			return false
		}
		ws.WriteError(conn, "session unavailable")
		return false
	}

	err = ws.WriteTyped(conn, ws.ClockResponse{
		Event:            ws.EventClock,
		SessionID:        sessionID.String(),
		Status:           string(view.Status),
		RemainingSeconds: view.RemainingSeconds,
	})
	return err == nil
}
