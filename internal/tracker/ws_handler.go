package tracker

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/algotracker/pkg/http/errors"
	"github.com/gokatarajesh/algotracker/pkg/http/ws"
)

// WSHandler streams list_state and status_update messages to everyone
// viewing an algorithm.
type WSHandler struct {
	registry *Registry
	hub      *ws.Hub
	upgrader *websocket.Upgrader
	logger   zerolog.Logger
	http     *HTTPHandler
}

func NewWSHandler(registry *Registry, hub *ws.Hub, upgrader *websocket.Upgrader, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry: registry,
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "tracker_ws").Logger(),
		http:     NewHTTPHandler(registry, logger),
	}
}

// HandleWebSocket handles GET /ws/algorithms/{slug}
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	list, err := h.registry.Open(r.Context(), slug)
	if err != nil {
		h.http.respondError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id := uuid.New()
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(id, wsConn)
	h.hub.JoinRoom(slug, id)

	go wsConn.WritePump()

	if err := h.sendState(id, list.Snapshot()); err != nil {
		h.logger.Warn().Err(err).Str("slug", slug).Msg("initial list_state failed")
	}

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(id, list, msg)
	})

	h.hub.LeaveRoom(slug, id)
	h.hub.UnregisterConnection(id)
}

func (h *WSHandler) handleMessage(id uuid.UUID, list *List, msg ws.Message) error {
	switch msg.Type {
	case ws.TypePing:
		pong, err := ws.NewMessage(ws.TypePong, struct{}{})
		if err != nil {
			return err
		}
		pong.RequestID = msg.RequestID
		return h.hub.SendTo(id, pong)
	case ws.TypeRefresh:
		return h.sendState(id, list.Snapshot())
	default:
		return h.sendError(id, httperrors.ErrCodeInvalidRequest, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

// HubObserver fans list events out to the algorithm's room on hub. Install
// it as the Observer of the registry's lists.
func HubObserver(hub *ws.Hub, logger zerolog.Logger) Observer {
	logger = logger.With().Str("component", "tracker_ws").Logger()
	return func(ev Event) {
		msg, err := eventMessage(ev)
		if err != nil {
			logger.Error().Err(err).Msg("failed to encode list event")
			return
		}
		_ = hub.BroadcastToRoom(ev.State.Slug, msg)
	}
}

func (h *WSHandler) sendState(id uuid.UUID, state State) error {
	msg, err := eventMessage(Event{Kind: EventState, State: state})
	if err != nil {
		return err
	}
	return h.hub.SendTo(id, msg)
}

func (h *WSHandler) sendError(id uuid.UUID, code, message string) error {
	msg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return h.hub.SendTo(id, msg)
}

func eventMessage(ev Event) (ws.Message, error) {
	if ev.Kind == EventStatus {
		return ws.NewMessage(ws.TypeStatusUpdate, ws.StatusUpdatePayload{
			Slug:   ev.State.Slug,
			Status: string(ev.State.Status),
		})
	}
	return ws.NewMessage(ws.TypeListState, ws.ListStatePayload{
		Slug:      ev.State.Slug,
		Loading:   ev.State.Loading,
		Status:    string(ev.State.Status),
		Questions: ev.State.Questions,
	})
}
