package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/transport/dispatch"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	router   *dispatch.Router
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(router *dispatch.Router, service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		router:  router,
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// inboundMessage is one user action. Payload is the token of a previously
// received choice, or empty for plain commands.
type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and feeds every inbound frame
// through the action router. Sessions the user touched push their snapshots
// to the connection until they are evicted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := domain.NormalizeUserID(r.URL.Query().Get("userId"))
	if err != nil {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	displayName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "user_id", userID, "error", err)
				// unblocks the reader
				_ = conn.Close()
				return
			}
		}
	}()

	var (
		forwarders sync.WaitGroup
		cancels    = make(map[string]func())
	)
	follow := func(sessionID string) {
		if sessionID == "" {
			return
		}
		if _, ok := cancels[sessionID]; ok {
			return
		}
		updates, cancel, err := h.service.Subscribe(ctx, sessionID)
		if err != nil {
			return
		}
		cancels[sessionID] = cancel
		forwarders.Add(1)
		go func() {
			defer forwarders.Done()
			for {
				select {
				case snap, ok := <-updates:
					if !ok {
						return
					}
					if !deliver(send, writerDone, closeSignals, outboundMessage[any]{Type: "snapshot", Payload: domain.ResponseFromSnapshot(snap)}) {
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, ok := h.handle(ctx, userID, displayName, inbound, follow)
		if ok && !deliver(send, writerDone, nil, reply) {
			break
		}
	}

	close(closeSignals)
	for _, cancel := range cancels {
		cancel()
	}
	forwarders.Wait()
	close(send)
	<-writerDone
}

// deliver queues msg for the writer. It gives up once the writer has stopped
// or stop is closed.
func deliver(send chan<- outboundMessage[any], writerDone, stop <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	case <-stop:
		return false
	}
}

// handle dispatches one inbound frame. It reports false when nothing should
// be sent back.
func (h *WSHandler) handle(ctx context.Context, userID, displayName string, inbound inboundMessage, follow func(string)) (outboundMessage[any], bool) {
	action := domain.Action{UserID: userID, DisplayName: displayName, Type: inbound.Type}
	if len(inbound.Payload) > 0 && string(inbound.Payload) != "null" {
		if err := json.Unmarshal(inbound.Payload, &action.Payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}}, true
		}
	}

	resp, err := h.router.Dispatch(ctx, action)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			return outboundMessage[any]{}, false
		}
		if domain.KindOf(err) == domain.KindStoreUnavailable || domain.KindOf(err) == domain.KindInternal {
			h.logger.Error("action failed", "user_id", userID, "action", action.Type, "error", err)
		}
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: dispatch.Message(err)}}, true
	}
	follow(resp.SessionID)
	return outboundMessage[any]{Type: "response", Payload: resp}, true
}
