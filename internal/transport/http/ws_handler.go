package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-performance-service/internal/app"
	"quiz-performance-service/internal/performance"
)

type WSHandler struct {
	service  *app.PerformanceService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PerformanceService) *WSHandler {
	return &WSHandler{
		service: service,
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

type filterPayload struct {
	Filter string `json:"filter"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades to a websocket that streams the user's performance view.
// The filter is per-connection state: changing it re-projects the latest summary.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	state := performance.ViewState{Filter: performance.ParseFilter(r.URL.Query().Get("filter"))}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	filters := make(chan performance.Filter)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	projectorDone := make(chan struct{})

	// Only the writer touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				slog.Warn("ws write error", "error", err, "user_id", userID)
				_ = conn.Close()
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	// The projector owns the view state and the latest summary.
	go func() {
		defer close(projectorDone)
		var (
			latest performance.Summary
			ready  bool
		)
		for {
			select {
			case summary, ok := <-updates:
				if !ok {
					return
				}
				latest, ready = summary, true
			case f := <-filters:
				state.Filter = f
				if !ready {
					continue
				}
			case <-closeSignals:
				return
			}
			view := performance.Project(latest, state)
			if !emit(outboundMessage[any]{Type: "performance", Payload: view}) {
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "filter":
			var payload filterPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid filter payload"}})
				continue
			}
			select {
			case filters <- performance.ParseFilter(payload.Filter):
			case <-projectorDone:
			}
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-projectorDone
	close(send)
	<-writerDone
}
