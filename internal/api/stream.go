package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"uk-forecast-lab/internal/forecast"
	"uk-forecast-lab/internal/observability"
)

const (
	streamReadLimit = 64 * 1024
	streamIdle      = 5 * time.Minute
	streamWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// StreamRequest is one client frame on the prediction stream.
type StreamRequest struct {
	RequestID          string `json:"request_id,omitempty"`
	PredictionDatetime string `json:"prediction_datetime"`
	Model              string `json:"model,omitempty"`
	Version            string `json:"version,omitempty"`
}

// StreamFrame is one server frame: a prediction or a typed error.
type StreamFrame struct {
	Type       string           `json:"type"` // prediction | error
	RequestID  string           `json:"request_id,omitempty"`
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Error      *ErrorResponse   `json:"error,omitempty"`
}

// handleStream serves predictions over a websocket, one reply per request frame.
func (s *Server) handleStream(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Printf("stream upgrade: %v", err)
		return
	}
	defer ws.Close()

	observability.StreamOpened()
	defer observability.StreamClosed()

	ws.SetReadLimit(streamReadLimit)
	ctx := c.Request.Context()

	for {
		ws.SetReadDeadline(time.Now().Add(streamIdle))

		var req StreamRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("stream read: %v", err)
			}
			return
		}

		frame := s.streamReply(ctx, req)
		ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := ws.WriteJSON(frame); err != nil {
			s.logger.Printf("stream write: %v", err)
			return
		}
	}
}

func (s *Server) streamReply(ctx context.Context, req StreamRequest) StreamFrame {
	at, err := parseTime(req.PredictionDatetime, s.loc)
	if err == nil {
		var res *forecast.Result
		res, err = s.svc.Predict(ctx, forecast.Request{Time: at, Model: req.Model, Version: req.Version})
		if err == nil {
			pr := s.predictResponse(res)
			return StreamFrame{Type: "prediction", RequestID: req.RequestID, Prediction: &pr}
		}
	}

	_, kind := classify(err)
	return StreamFrame{Type: "error", RequestID: req.RequestID, Error: &ErrorResponse{Error: kind, Detail: err.Error()}}
}
