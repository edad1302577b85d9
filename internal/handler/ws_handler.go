package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stjoseph/assessment-gateway/internal/middleware"
	"github.com/stjoseph/assessment-gateway/internal/service"
	"github.com/stjoseph/assessment-gateway/internal/session"
	ws "github.com/stjoseph/assessment-gateway/internal/websocket"
)

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

// WSHandler streams the live session over WebSocket: a once-per-second
// countdown tick out, answer/navigate/submit actions in.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; the tick goroutine and the read loop both push
// frames and gorilla permits only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws.WriteError(w.conn, msg)
}

// SessionStream godoc
// WS /ws/v1/student/session/stream?token=...
// Upgrades to WebSocket for the active session's live countdown and actions.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	studentID := claims.UserID

	// Require an active session before upgrading.
	if _, err := h.sessionService.Get(studentID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer raw.Close()
	conn := &wsConn{conn: raw}

	wsLog := h.log.With().Int("student_id", studentID).Logger()
	wsLog.Info().Msg("Student connected")

	tickerDone := make(chan struct{})
	go h.tickLoop(conn, studentID, tickerDone)
	defer close(tickerDone)

	for {
		var env ws.RequestEnvelope
		raw.SetReadDeadline(time.Now().Add(5 * time.Minute))

		_, payload, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		if err := decode(payload, &env); err != nil {
			conn.writeError("malformed message")
			continue
		}

		switch env.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, studentID, payload)
		case ws.ActionGoto:
			h.handleGoto(conn, studentID, payload)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, studentID, payload)
		case ws.ActionPing:
			conn.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			conn.writeError("unknown action: " + string(env.Action))
		}
	}
}

// tickLoop pushes the remaining time once per second until the session
// leaves IN_PROGRESS or the socket goes away.
func (h *WSHandler) tickLoop(conn *wsConn, studentID int, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			sess, err := h.sessionService.Get(studentID)
			if err != nil {
				return
			}
			snap := sess.Snapshot()
			if snap.State != session.StateInProgress {
				// Expiry completed the session server-side; deliver the
				// result so the client does not need to poll.
				if result, ok := sess.Result(); ok {
					conn.write(ws.ResultResponse{
						Event:      ws.EventResult,
						Score:      result.Score,
						TotalMarks: result.TotalMarks,
						Percentage: result.Percentage,
					})
				}
				return
			}
			if err := conn.write(ws.TickResponse{Event: ws.EventTick, Remaining: snap.RemainingSeconds}); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleAnswer(conn *wsConn, studentID int, payload []byte) {
	var req ws.AnswerRequest
	if err := decode(payload, &req); err != nil {
		conn.writeError("malformed answer payload")
		return
	}

	if err := h.sessionService.Answer(studentID, req.QuestionIndex, req.Option); err != nil {
		conn.writeError(err.Error())
		return
	}
	h.pushState(conn, studentID)
}

func (h *WSHandler) handleGoto(conn *wsConn, studentID int, payload []byte) {
	var req ws.GotoRequest
	if err := decode(payload, &req); err != nil {
		conn.writeError("malformed goto payload")
		return
	}

	if err := h.sessionService.Navigate(studentID, req.QuestionIndex); err != nil {
		conn.writeError(err.Error())
		return
	}
	h.pushState(conn, studentID)
}

func (h *WSHandler) handleSubmit(conn *wsConn, wsLog zerolog.Logger, studentID int, payload []byte) {
	var req ws.SubmitRequest
	if err := decode(payload, &req); err != nil {
		conn.writeError("malformed submit payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := h.sessionService.Submit(ctx, studentID, req.Force)
	if err != nil {
		var unanswered *session.UnansweredError
		if errors.As(err, &unanswered) {
			conn.write(ws.ConfirmResponse{Event: ws.EventConfirm, Unanswered: unanswered.Count})
			return
		}
		wsLog.Warn().Err(err).Msg("Submission over WebSocket failed")
		conn.writeError(err.Error())
		return
	}

	conn.write(ws.ResultResponse{
		Event:      ws.EventResult,
		Score:      result.Score,
		TotalMarks: result.TotalMarks,
		Percentage: result.Percentage,
	})
}

func (h *WSHandler) pushState(conn *wsConn, studentID int) {
	snap, err := h.sessionService.Snapshot(studentID)
	if err != nil {
		return
	}
	conn.write(ws.StateResponse{
		Event:         ws.EventState,
		State:         string(snap.State),
		QuestionIndex: snap.Cursor,
		Answers:       snap.Answers,
		Remaining:     snap.RemainingSeconds,
	})
}

func decode(payload []byte, v interface{}) error {
	return json.Unmarshal(payload, v)
}
