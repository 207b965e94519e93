package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"millionaire-service/internal/app"
	"millionaire-service/internal/game"
)

// WSHandler plays one game over a websocket and pushes leaderboard updates.
type WSHandler struct {
	service  *app.GameService
	validate *validator.Validate
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service:  service,
		validate: newValidator(),
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	userID := r.URL.Query().Get("userId")
	if gameID == "" || userID == "" {
		http.Error(w, "missing gameId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	g, err := h.service.Game(ctx, gameID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}

	updates, cancel, err := h.service.Subscribe(ctx)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).WithField("game_id", gameID).Debug("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: newGameView(g)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		send <- h.handle(ctx, gameID, userID, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

type answerPayload struct {
	Letter string `json:"letter" validate:"required,answer_key"`
}

type helpPayload struct {
	Type string `json:"type" validate:"required,lifeline"`
}

func (h *WSHandler) handle(ctx context.Context, gameID, userID string, inbound inboundMessage) outboundMessage[any] {
	var (
		g   *game.Game
		err error
	)
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := h.decode(inbound.Payload, &payload); err != nil {
			return errorMessage(err)
		}
		var correct bool
		g, correct, err = h.service.SubmitAnswer(ctx, gameID, userID, payload.Letter)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: answerResponse{Correct: correct, Game: newGameView(g)}}
	case "help":
		var payload helpPayload
		if err := h.decode(inbound.Payload, &payload); err != nil {
			return errorMessage(err)
		}
		lifeline, perr := game.ParseLifeline(payload.Type)
		if perr != nil {
			return errorMessage(perr)
		}
		g, err = h.service.UseLifeline(ctx, gameID, userID, lifeline)
	case "takeMoney":
		g, err = h.service.CashOut(ctx, gameID, userID)
	case "state":
		g, err = h.service.Game(ctx, gameID, userID)
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
	if err != nil {
		return errorMessage(err)
	}
	return outboundMessage[any]{Type: "state", Payload: newGameView(g)}
}

func (h *WSHandler) decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidRequest
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: newErrorPayload(err)}
}
