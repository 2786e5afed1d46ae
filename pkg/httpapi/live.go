package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/goliatone/go-formsubmit/pkg/component"
	"github.com/goliatone/go-formsubmit/pkg/model"
	"github.com/goliatone/go-formsubmit/pkg/store"
	"github.com/goliatone/go-formsubmit/pkg/validation"
)

// Message types exchanged on the live socket.
const (
	MessageUpdate     = "update"
	MessageSubmit     = "submit"
	MessageMounted    = "mounted"
	MessageValidation = "validation"
	MessageInvalid    = "invalid"
	MessageSubmitted  = "submitted"
	MessageError      = "error"
)

const liveWriteTimeout = 10 * time.Second

// LiveMessage is a frame sent by the server.
type LiveMessage struct {
	Type    string               `json:"type"`
	Field   string               `json:"field,omitempty"`
	Errors  []string             `json:"errors,omitempty"`
	Fields  map[string][]string  `json:"fields,omitempty"`
	Data    model.SubmissionData `json:"data,omitempty"`
	Visible []string             `json:"visible,omitempty"`
	Success bool                 `json:"success,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// live keeps one mounted component per connection. Clients send
// {"type":"update","field":...,"value":...} frames and receive the field's
// realtime validation result; {"type":"submit"} runs the full submit.
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	c, err := s.component(chi.URLParam(r, "handle"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	referer := r.Referer()
	logger := s.logger.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("form", c.Form().Handle).
		Logger()

	c.Mount()
	visible, _ := c.Visible()
	if err := send(conn, LiveMessage{Type: MessageMounted, Data: c.Data(), Visible: visible}); err != nil {
		return
	}

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("live connection closed")
			}
			return
		}
		reply := s.handleLive(ctx, c, raw, referer)
		if err := send(conn, reply); err != nil {
			logger.Debug().Err(err).Msg("live write failed")
			return
		}
	}
}

func (s *Server) handleLive(ctx context.Context, c *component.Component, raw []byte, referer string) LiveMessage {
	frame, err := store.DecodeData(raw)
	if err != nil {
		return LiveMessage{Type: MessageError, Error: "invalid JSON frame"}
	}
	kind, _ := frame["type"].(string)
	switch kind {
	case MessageUpdate:
		field, _ := frame["field"].(string)
		if field == "" {
			return LiveMessage{Type: MessageError, Error: "field is required"}
		}
		messages, err := realtime(ctx, c, field, frame["value"])
		if err != nil {
			return LiveMessage{Type: MessageError, Field: field, Error: err.Error()}
		}
		visible, _ := c.Visible()
		return LiveMessage{Type: MessageValidation, Field: field, Errors: messages, Visible: visible}
	case MessageSubmit:
		result, err := c.Submit(ctx, referer)
		var verr *validation.Errors
		switch {
		case errors.As(err, &verr):
			return LiveMessage{Type: MessageInvalid, Fields: verr.Fields}
		case err != nil:
			s.logger.Error().Err(err).Str("form", c.Form().Handle).Msg("live submit failed")
			return LiveMessage{Type: MessageError, Error: "submission failed"}
		}
		return LiveMessage{Type: MessageSubmitted, Success: c.Flash(), Data: result.Data, Visible: result.Visible}
	default:
		return LiveMessage{Type: MessageError, Error: "unknown message type"}
	}
}

func send(conn *websocket.Conn, msg LiveMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// realtime updates one field and returns its messages. Rule errors are
// returned as errors; rejected values are not.
func realtime(ctx context.Context, c *component.Component, field string, value any) ([]string, error) {
	err := c.Update(ctx, field, value)
	if err == nil {
		return []string{}, nil
	}
	var verr *validation.Errors
	if errors.As(err, &verr) {
		return verr.Get(field), nil
	}
	return nil, err
}
