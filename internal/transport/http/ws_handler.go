package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"guesswhat-trivia-service/internal/app"
	"guesswhat-trivia-service/internal/domain"
)

// WSHandler is the event gateway: it maps inbound participant actions to
// session operations and routes direct replies back to the acting socket.
// Broadcasts go through the Hub.
type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
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

// flexID is the single ingress point where identifiers are normalized to a
// canonical string. Clients have been observed sending numbers and even
// objects where a game ID belongs; everything but strings and numbers is
// rejected before any map lookup, so a malformed ID can never masquerade as
// a missing session.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	return domain.ErrInvalidIdentifier
}

type joinPayload struct {
	GameID   flexID `json:"gameId"`
	Nickname string `json:"nickname"`
}

type startPayload struct {
	GameID     flexID   `json:"gameId"`
	Rounds     int      `json:"rounds"`
	Categories []string `json:"categories"`
}

type answerPayload struct {
	GameID   flexID  `json:"gameId"`
	PlayerID flexID  `json:"playerId"`
	Answer   string  `json:"answer"`
	Time     float64 `json:"time"`
}

type gamePayload struct {
	GameID flexID `json:"gameId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinedPayload struct {
	PlayerID string `json:"playerId"`
}

// ServeWS upgrades the connection and runs its read loop. Connection state
// (which game and player this socket belongs to) is established by the
// joinGame message, mirroring how the client protocol works.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	c := newClient()
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	var gameID, playerID string
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), c, inbound, &gameID, &playerID)
	}

	if gameID != "" {
		h.hub.Unsubscribe(gameID, c)
		if playerID != "" {
			h.service.PlayerLeft(context.Background(), gameID, playerID)
		}
	}
	close(c.send)
	<-writerDone
}

// dispatch routes one inbound message. Errors never cross the socket
// boundary: they become an error envelope for the acting socket only.
func (h *WSHandler) dispatch(ctx context.Context, c *client, msg inboundMessage, gameID, playerID *string) {
	switch msg.Type {
	case "joinGame":
		var p joinPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if p.GameID == "" || p.Nickname == "" {
			h.replyError(c, "Invalid game ID or nickname.")
			return
		}
		// One room per connection. Switching games on a live socket would
		// leave a stale subscription behind in the old room, so a cross-game
		// rejoin is rejected; rejoining the same game stays idempotent.
		rejoining := *gameID == string(p.GameID)
		if *gameID != "" && !rejoining {
			h.replyError(c, "This connection is already in a game.")
			return
		}
		// Subscribe before joining so the roster broadcast that includes
		// this player reaches their own socket too.
		h.hub.Subscribe(string(p.GameID), c)
		player, snapshot, err := h.service.Join(ctx, string(p.GameID), p.Nickname)
		if err != nil {
			if !rejoining {
				h.hub.Unsubscribe(string(p.GameID), c)
			}
			h.replyError(c, joinErrorMessage(err))
			return
		}
		*gameID = string(p.GameID)
		*playerID = player.ID
		c.push(outbound{Type: "joinedGame", Payload: joinedPayload{PlayerID: player.ID}})
		if snapshot != nil {
			h.replySnapshot(c, *snapshot)
		}

	case "validateGameCode":
		var p gamePayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		c.push(outbound{Type: "gameCodeValid", Payload: h.service.ValidateGame(ctx, string(p.GameID))})

	case "startGame":
		var p startPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if err := h.service.StartGame(ctx, string(p.GameID), *playerID, p.Rounds, p.Categories); err != nil {
			h.replyError(c, err.Error())
		}

	case "submitAnswer":
		var p answerPayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if err := h.service.SubmitAnswer(ctx, string(p.GameID), string(p.PlayerID), p.Answer, p.Time); err != nil {
			h.replyError(c, err.Error())
		}

	case "timerExpired":
		var p gamePayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		// Stale reports for a game that is already gone are not the
		// client's problem; drop them quietly.
		if err := h.service.TimerExpired(string(p.GameID)); err != nil {
			log.Debug().Err(err).Str("game_id", string(p.GameID)).Msg("timerExpired for unknown game")
		}

	case "forceNextQuestion":
		var p gamePayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if err := h.service.ForceAdvance(string(p.GameID), *playerID); err != nil {
			h.replyError(c, err.Error())
		}

	case "requestCurrentQuestion":
		var p gamePayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		snapshot, err := h.service.CurrentQuestion(ctx, string(p.GameID))
		if err != nil {
			h.replyError(c, err.Error())
			return
		}
		h.replySnapshot(c, snapshot)

	case "endGame":
		var p gamePayload
		if !h.decode(c, msg.Payload, &p) {
			return
		}
		if err := h.service.EndGame(ctx, string(p.GameID), *playerID); err != nil {
			h.replyError(c, err.Error())
		}

	default:
		h.replyError(c, "unsupported message type")
	}
}

func (h *WSHandler) decode(c *client, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		h.replyError(c, "invalid payload")
		return false
	}
	return true
}

func (h *WSHandler) replyError(c *client, message string) {
	c.push(outbound{Type: "error", Payload: errorPayload{Message: message}})
}

// replySnapshot re-sends the in-progress game to one socket: gameStarted so
// the client leaves the lobby screen, then the live question with whatever
// time remains. Direct reply only, never a rebroadcast.
func (h *WSHandler) replySnapshot(c *client, snapshot domain.QuestionSnapshot) {
	c.push(outbound{Type: "gameStarted", Payload: domain.EventGameStarted{
		TotalQuestions: snapshot.TotalQuestions,
		Players:        snapshot.Players,
	}})
	c.push(outbound{Type: "newQuestion", Payload: domain.EventNewQuestion{
		Question:  snapshot.Question,
		TimeLimit: snapshot.TimeLeft,
	}})
}

func joinErrorMessage(err error) string {
	if err == domain.ErrGameNotFound {
		return "Game not found. Please check the code and try again."
	}
	return "Failed to join the game. Please try again later."
}
