package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/coach"
	"github.com/sells-group/radar-coach/internal/model"
	"github.com/sells-group/radar-coach/internal/sanitize"
	"github.com/sells-group/radar-coach/internal/session"
	pkganthropic "github.com/sells-group/radar-coach/pkg/anthropic"
)

const welcomeMessage = "Welcome to the Technology Radar blip submission tool! I'll help you " +
	"craft a strong submission for the next radar edition.\n\n" +
	"To get started, tell me about the technology or technique you'd like " +
	"to submit. You can include as much or as little detail as you'd like — " +
	"I'll ask follow-up questions to help strengthen your submission.\n\n" +
	"You can click **Submit Blip** at any time to finalize your submission."

const devBanner = "[DEV MODE — using offline responses, no API key needed]\n\n"

const genericErrorMessage = "An unexpected error occurred. Please refresh and try again."

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin checks are handled by the CORS policy on the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is one inbound frame from the browser.
type clientMessage struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess := s.sessions.GetOrCreate(sessionID)
	log := zap.L().With(zap.String("session_id", sess.ID))

	if err := s.sendWelcome(conn, sess); err != nil {
		log.Warn("websocket write failed", zap.Error(err))
		return
	}

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", zap.Error(err))
			} else {
				log.Info("session disconnected")
			}
			return
		}

		action := msg.Action
		if action == "" {
			action = "message"
		}
		text := strings.TrimSpace(msg.Message)

		if action == "reset" {
			sess.Lock()
			sess.Reset()
			sess.Unlock()
			if err := s.sendWelcome(conn, sess); err != nil {
				log.Warn("websocket write failed", zap.Error(err))
				return
			}
			continue
		}

		isSubmit := action == "submit"
		if text == "" && !isSubmit {
			continue
		}

		if err := s.runTurn(r.Context(), conn, sess, text, isSubmit, log); err != nil {
			log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

// runTurn drives one request/response exchange over the socket. The
// returned error is a write failure; turn-level failures are reported to
// the client instead.
func (s *server) runTurn(ctx context.Context, conn *websocket.Conn, sess *session.Session, text string, isSubmit bool, log *zap.Logger) error {
	sess.Lock()
	defer sess.Unlock()
	defer sess.Touch()

	if text != "" {
		sess.AppendUser(sanitize.UserMessage(sess.ID, text))
	}

	var fullText strings.Builder
	for ev := range s.orch.RunTurn(ctx, sess, isSubmit) {
		switch ev.Type {
		case coach.EventText:
			fullText.WriteString(ev.Text)
			if err := conn.WriteJSON(map[string]string{"type": "assistant_chunk", "content": ev.Text}); err != nil {
				return err
			}
		case coach.EventToolOutcome:
			if ev.ToolName == coach.ToolExtractBlip {
				if err := s.sendQualityUpdate(conn, sess.Blip); err != nil {
					return err
				}
			}
		case coach.EventError:
			log.Error("turn failed", zap.Error(ev.Err))
			if err := conn.WriteJSON(map[string]string{"type": "error", "content": genericErrorMessage}); err != nil {
				return err
			}
		case coach.EventDone:
			// The tool rounds are already in the transcript; the closing
			// prose is recorded here.
			if fullText.Len() > 0 {
				sess.AppendAssistant([]pkganthropic.ContentBlock{
					pkganthropic.TextBlock(fullText.String()),
				})
			}
		}
	}

	if err := conn.WriteJSON(map[string]string{"type": "assistant_done"}); err != nil {
		return err
	}

	if isSubmit && !sess.Submitted {
		sess.Submitted = true
		rec, err := s.store.SaveSubmission(ctx, sess.Blip, sess.ID)
		if err != nil {
			log.Error("save submission failed", zap.Error(err))
			return conn.WriteJSON(map[string]string{"type": "error", "content": genericErrorMessage})
		}
		log.Info("submission saved",
			zap.String("submission_id", rec.ID),
			zap.Float64("quality", rec.QualityScore),
		)
		return conn.WriteJSON(map[string]any{
			"type":          "submission_complete",
			"quality_score": rec.QualityScore,
			"submission_id": rec.ID,
		})
	}
	return nil
}

func (s *server) sendWelcome(conn *websocket.Conn, sess *session.Session) error {
	content := welcomeMessage
	if s.devMode {
		content = devBanner + content
	}
	if err := conn.WriteJSON(map[string]string{"type": "assistant_message", "content": content}); err != nil {
		return err
	}
	sess.Lock()
	blip := sess.Blip
	sess.Unlock()
	return s.sendQualityUpdate(conn, blip)
}

// sendQualityUpdate pushes the current scores and gathered fields so the
// sidebar can re-render. Score fields are stripped from the display data,
// the client gets them top-level.
func (s *server) sendQualityUpdate(conn *websocket.Conn, blip *model.BlipSubmission) error {
	res := s.engine.Score(blip)

	display := map[string]any{}
	if data, err := json.Marshal(blip); err == nil {
		json.Unmarshal(data, &display)
	}
	delete(display, "completeness_score")
	delete(display, "quality_score")

	return conn.WriteJSON(map[string]any{
		"type":           "quality_update",
		"completeness":   res.Completeness,
		"quality":        res.Quality,
		"blip_data":      display,
		"missing_fields": res.MissingFields,
		"ring_gaps":      res.RingGaps,
	})
}
